package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/proximadb/proxima"
)

// benchConfig holds benchmark parameters. Flags provide the defaults; a
// YAML config file, when given, replaces them wholesale.
type benchConfig struct {
	Dimensions       int    `yaml:"dimensions"`
	Vectors          int    `yaml:"vectors"`
	Queries          int    `yaml:"queries"`
	TopK             int    `yaml:"top_k"`
	M                int    `yaml:"m"`
	EfConstruction   int    `yaml:"ef_construction"`
	EfSearch         int    `yaml:"ef_search"`
	Metric           string `yaml:"metric"`
	Seed             int64  `yaml:"seed"`
	ReducedPrecision bool   `yaml:"reduced_precision"`
}

func defaultBenchConfig() benchConfig {
	return benchConfig{
		Dimensions:     128,
		Vectors:        10000,
		Queries:        100,
		TopK:           10,
		M:              16,
		EfConstruction: 200,
		EfSearch:       100,
		Metric:         string(proxima.MetricCosine),
		Seed:           42,
	}
}

var benchCfgFile string
var benchCfg = defaultBenchConfig()

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark HNSW recall and latency against exact search",
	Long: `Build a brute-force store and an HNSW store over the same random
unit vectors, run identical queries against both, and report the top-K
overlap (recall), query latency, and memory attributed to vector storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchCfgFile != "" {
			data, err := os.ReadFile(benchCfgFile)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			if err := yaml.Unmarshal(data, &benchCfg); err != nil {
				return fmt.Errorf("parse config: %w", err)
			}
		}
		return runBench(benchCfg)
	},
}

func init() {
	f := benchCmd.Flags()
	f.StringVarP(&benchCfgFile, "config", "c", "", "YAML benchmark config file")
	f.IntVar(&benchCfg.Dimensions, "dims", benchCfg.Dimensions, "vector dimensionality")
	f.IntVar(&benchCfg.Vectors, "vectors", benchCfg.Vectors, "number of vectors to index")
	f.IntVar(&benchCfg.Queries, "queries", benchCfg.Queries, "number of queries to run")
	f.IntVar(&benchCfg.TopK, "topk", benchCfg.TopK, "results per query")
	f.IntVar(&benchCfg.M, "m", benchCfg.M, "HNSW max connections per layer")
	f.IntVar(&benchCfg.EfConstruction, "efc", benchCfg.EfConstruction, "HNSW construction candidate list size")
	f.IntVar(&benchCfg.EfSearch, "efs", benchCfg.EfSearch, "HNSW query candidate list size")
	f.StringVar(&benchCfg.Metric, "metric", benchCfg.Metric, "scoring metric: cosine, euclidean, dotproduct")
	f.Int64Var(&benchCfg.Seed, "seed", benchCfg.Seed, "random seed")
	f.BoolVar(&benchCfg.ReducedPrecision, "f32", benchCfg.ReducedPrecision, "store vectors at reduced (float32) precision")
}

func runBench(cfg benchConfig) error {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(cfg.Seed))

	exact, err := proxima.New(proxima.Options{
		Dimensions:       cfg.Dimensions,
		Metric:           proxima.Metric(cfg.Metric),
		Index:            proxima.IndexBruteForce,
		ReducedPrecision: cfg.ReducedPrecision,
	})
	if err != nil {
		return err
	}
	approx, err := proxima.New(proxima.Options{
		Dimensions:       cfg.Dimensions,
		Metric:           proxima.Metric(cfg.Metric),
		Index:            proxima.IndexHNSW,
		M:                cfg.M,
		EfConstruction:   cfg.EfConstruction,
		EfSearch:         cfg.EfSearch,
		RandomSeed:       &cfg.Seed,
		ReducedPrecision: cfg.ReducedPrecision,
	})
	if err != nil {
		return err
	}

	log.Printf("indexing %d vectors (%d dims)...", cfg.Vectors, cfg.Dimensions)
	records := make([]proxima.Record, cfg.Vectors)
	for i := range records {
		records[i] = proxima.Record{
			ID:     fmt.Sprintf("v%d", i),
			Vector: randomUnitVector(rng, cfg.Dimensions),
		}
	}

	start := time.Now()
	if _, err := exact.Insert(ctx, records); err != nil {
		return err
	}
	exactBuild := time.Since(start)

	start = time.Now()
	if _, err := approx.Insert(ctx, records); err != nil {
		return err
	}
	approxBuild := time.Since(start)

	var overlap, exactLatency, approxLatency float64
	for q := 0; q < cfg.Queries; q++ {
		query := randomUnitVector(rng, cfg.Dimensions)

		start = time.Now()
		want, err := exact.Search(ctx, query, proxima.WithTopK(cfg.TopK), proxima.WithMetadata(false))
		if err != nil {
			return err
		}
		exactLatency += time.Since(start).Seconds()

		start = time.Now()
		got, err := approx.Search(ctx, query, proxima.WithTopK(cfg.TopK), proxima.WithMetadata(false))
		if err != nil {
			return err
		}
		approxLatency += time.Since(start).Seconds()

		overlap += resultOverlap(want, got)
	}

	n := float64(cfg.Queries)
	stats := approx.MemoryStats()
	fmt.Printf("\nvectors:        %d x %d dims (%s metric)\n", cfg.Vectors, cfg.Dimensions, cfg.Metric)
	fmt.Printf("build:          exact %v, hnsw %v\n", exactBuild.Round(time.Millisecond), approxBuild.Round(time.Millisecond))
	fmt.Printf("query latency:  exact %.3fms, hnsw %.3fms (avg over %d queries)\n",
		exactLatency/n*1000, approxLatency/n*1000, cfg.Queries)
	fmt.Printf("recall@%d:      %.1f%%\n", cfg.TopK, overlap/n*100)
	fmt.Printf("vector memory:  %s (%s/record)\n",
		humanize.IBytes(uint64(stats.UsedBytes)), humanize.IBytes(uint64(stats.AvgRecordBytes)))
	return nil
}

// resultOverlap returns the fraction of exact results also present in the
// approximate results.
func resultOverlap(want, got []proxima.SearchResult) float64 {
	if len(want) == 0 {
		return 1
	}
	ids := make(map[string]struct{}, len(got))
	for _, r := range got {
		ids[r.ID] = struct{}{}
	}
	hits := 0
	for _, r := range want {
		if _, ok := ids[r.ID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

func randomUnitVector(rng *rand.Rand, dims int) []float64 {
	v := make([]float64, dims)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		v[0] = 1
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}
