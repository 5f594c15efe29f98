// Package main 离线构建、查看与试查疾病资料索引
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"symptom-advisor-bot/internal/config"
	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/internal/infrastructure/persistence/milvus"
	"symptom-advisor-bot/internal/infrastructure/vectorindex"
	"symptom-advisor-bot/internal/wire"
	"symptom-advisor-bot/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var configDir string

	rootCmd := &cobra.Command{
		Use:           "corpus-indexer",
		Short:         "Build and inspect the disease corpus index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "配置目录")

	loadConfig := func(backend string) (*config.Config, error) {
		cfg, err := config.LoadFrom(configDir)
		if err != nil {
			return nil, err
		}
		if backend != "" {
			cfg.Vector.Backend = backend
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
		}
		logger.Init(cfg.Observability.Logging.Level, "text")
		return cfg, nil
	}

	var (
		sourceDir string
		backend   string
	)
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Embed every markdown file and write the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(backend)
			if err != nil {
				return err
			}
			if sourceDir == "" {
				sourceDir = cfg.Indexer.SourceDir
			}
			return runBuild(cmd.Context(), cfg, sourceDir)
		},
	}
	buildCmd.Flags().StringVar(&sourceDir, "source", "", "语料目录（默认 indexer.source_dir）")
	buildCmd.Flags().StringVar(&backend, "backend", "", "flat 或 milvus（默认 vector.backend）")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of the built index as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(backend)
			if err != nil {
				return err
			}
			return runInspect(cmd.Context(), cfg)
		},
	}
	inspectCmd.Flags().StringVar(&backend, "backend", "", "flat 或 milvus（默认 vector.backend）")

	var topK int
	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Retrieve the nearest chunks for a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(backend)
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), cfg, strings.Join(args, " "), topK)
		},
	}
	searchCmd.Flags().IntVarP(&topK, "top-k", "k", 0, "返回条数（默认 retrieval.top_k）")
	searchCmd.Flags().StringVar(&backend, "backend", "", "flat 或 milvus（默认 vector.backend）")

	rootCmd.AddCommand(buildCmd, inspectCmd, searchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runBuild(ctx context.Context, cfg *config.Config, sourceDir string) error {
	indexer, cleanup, err := wire.InitializeIndexer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	snap, err := indexer.Run(ctx, sourceDir)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d chunks (dim=%d, model=%s, backend=%s) in %s\n",
		snap.Len(), snap.Dimension, snap.Model, cfg.Vector.Backend, time.Since(start).Round(time.Millisecond))
	return nil
}

type fileSummary struct {
	Name   string `yaml:"name"`
	Chunks int    `yaml:"chunks"`
}

type indexSummary struct {
	Backend   string        `yaml:"backend"`
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension,omitempty"`
	Entries   int           `yaml:"entries"`
	BuiltAt   string        `yaml:"built_at,omitempty"`
	Files     []fileSummary `yaml:"files,omitempty"`
}

func summarize(snap *entity.IndexSnapshot) indexSummary {
	counts := make(map[string]int)
	for _, c := range snap.Chunks {
		counts[c.Filename]++
	}
	files := make([]fileSummary, 0, len(counts))
	for name, n := range counts {
		files = append(files, fileSummary{Name: name, Chunks: n})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return indexSummary{
		Backend:   "flat",
		Model:     snap.Model,
		Dimension: snap.Dimension,
		Entries:   snap.Len(),
		BuiltAt:   snap.BuiltAt.Format(time.RFC3339),
		Files:     files,
	}
}

func runInspect(ctx context.Context, cfg *config.Config) error {
	var summary indexSummary

	switch cfg.Vector.Backend {
	case "milvus":
		client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
		if err != nil {
			return err
		}
		defer client.Close()

		repo := milvus.NewRepository(client)
		if err := repo.Open(ctx, cfg.Embedding.Model); err != nil {
			return err
		}
		summary = indexSummary{Backend: "milvus", Model: cfg.Embedding.Model, Entries: repo.Len()}
	default:
		indexPath, metadataPath := cfg.IndexPaths()
		snap, err := vectorindex.NewFileStore(indexPath, metadataPath).Load(cfg.Embedding.Model)
		if err != nil {
			return err
		}
		summary = summarize(snap)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(summary)
}

func runSearch(ctx context.Context, cfg *config.Config, query string, k int) error {
	chat, cleanup, err := wire.InitializeChat(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	hits, err := chat.Retriever.RetrieveChunks(ctx, query, k)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("#%d %s [%d] distance=%.4f\n%s\n\n", i+1, h.Chunk.Filename, h.Chunk.ChunkID, h.Distance, h.Chunk.Content)
	}
	return nil
}
