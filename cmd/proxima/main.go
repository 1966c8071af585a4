// Command proxima provides operational tooling for the proxima vector
// search library: synthetic benchmarks and version information.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proximadb/proxima/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "proxima",
	Short: "Proxima - embeddable vector similarity search",
	Long: `Proxima is an embeddable approximate nearest-neighbor search engine
for high-dimensional vectors. This CLI benchmarks index configurations
against exact search so you can size M/efConstruction/efSearch for your
workload before embedding the library.`,
	Version: version.Full(),
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Proxima %s\n", version.Full())
		buildInfo := version.GetBuildInfo()
		if buildInfo.GitCommit != "unknown" {
			fmt.Printf("Git commit: %s\n", buildInfo.GitCommit)
		}
		if buildInfo.BuildDate != "unknown" {
			fmt.Printf("Built: %s\n", buildInfo.BuildDate)
		}
		fmt.Printf("Go version: %s\n", buildInfo.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
