package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/repojudge/repojudge/internal/api"
	"github.com/repojudge/repojudge/internal/cache"
	"github.com/repojudge/repojudge/internal/config"
	"github.com/repojudge/repojudge/internal/github"
	"github.com/repojudge/repojudge/internal/llm"
	"github.com/repojudge/repojudge/internal/models"
	"github.com/repojudge/repojudge/internal/pipeline"
)

func main() {
	root := &cobra.Command{
		Use:   "repojudge",
		Short: "GitHub repository → AI-generated README, quality analysis, and chat",
	}

	root.AddCommand(serveCmd(), readmeCmd(), analyzeCmd(), statsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline wires the orchestrator from config: SurrealDB cache when an
// endpoint is configured, in-process cache otherwise.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	var store cache.Store
	closeStore := func() {}

	if cfg.SurrealURL != "" {
		surreal, err := cache.NewSurreal(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := surreal.InitSchema(ctx); err != nil {
			_ = surreal.Close(ctx)
			return nil, nil, err
		}
		store = surreal
		closeStore = func() { _ = surreal.Close(context.Background()) }
	} else {
		logger.Warn("SURREAL_URL not set, using in-process cache")
		store = cache.NewMemory()
	}

	dispatcher := llm.NewDispatcher(llm.NewPool(cfg.LLMBaseURL))
	p := pipeline.New(store, fetcherFactory(cfg), dispatcher, cfg.CacheTTL)
	return p, closeStore, nil
}

func fetcherFactory(cfg *config.Config) pipeline.FetcherFactory {
	return func(token string) pipeline.Fetcher {
		return boundFetcher{
			client: newGitHubClient(cfg, token),
			sel:    github.Selection{MaxFiles: cfg.MaxContextFiles, MaxBytes: cfg.MaxFileBytes},
		}
	}
}

func newGitHubClient(cfg *config.Config, token string) *github.Client {
	return github.NewClient(token, github.Options{
		APIBaseURL:   cfg.GitHubAPIURL,
		RawBaseURL:   cfg.GitHubRawURL,
		FetchTimeout: cfg.FetchTimeout,
		FileTimeout:  cfg.FileTimeout,
	})
}

// boundFetcher fixes the selection bounds so the pipeline sees the
// two-argument contract.
type boundFetcher struct {
	client *github.Client
	sel    github.Selection
}

func (f boundFetcher) FetchContext(ctx context.Context, owner, repo string) (*models.ContextBundle, error) {
	return f.client.FetchContext(ctx, owner, repo, f.sel)
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.Addr = addr
			}

			p, closeStore, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			srv := api.New(p, func(token string) api.GitHubDirectory {
				return newGitHubClient(cfg, token)
			}, api.Options{
				Addr:                cfg.Addr,
				FallbackGitHubToken: cfg.GitHubToken,
				FallbackGeminiKey:   cfg.GeminiKey,
			})
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides ADDR/PORT)")
	return cmd
}

func oneShotFlags(cmd *cobra.Command, lang, model *string, force *bool) {
	cmd.Flags().StringVar(lang, "lang", "en", "Output language (en|tr)")
	cmd.Flags().StringVar(model, "model", "flash", "Model choice (flash|pro)")
	cmd.Flags().BoolVar(force, "force", false, "Bypass the cache read")
}

func readmeCmd() *cobra.Command {
	var lang, model string
	var force bool

	cmd := &cobra.Command{
		Use:   "readme <repo-url>",
		Short: "Generate a README for one repository and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			p, closeStore, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := p.GenerateReadme(cmd.Context(), pipeline.Request{
				RepoURL:      args[0],
				Language:     lang,
				Model:        model,
				ForceRefresh: force,
				AuthToken:    cfg.GitHubToken,
				APIKey:       cfg.GeminiKey,
			})
			if err != nil {
				return err
			}
			fmt.Println(result.Readme)
			return nil
		},
	}
	oneShotFlags(cmd, &lang, &model, &force)
	return cmd
}

func analyzeCmd() *cobra.Command {
	var lang, model string
	var force bool

	cmd := &cobra.Command{
		Use:   "analyze <repo-url>",
		Short: "Analyze one repository and print the JSON report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			p, closeStore, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			outcome, err := p.Analyze(cmd.Context(), pipeline.Request{
				RepoURL:      args[0],
				Language:     lang,
				Model:        model,
				ForceRefresh: force,
				AuthToken:    cfg.GitHubToken,
				APIKey:       cfg.GeminiKey,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(outcome.Analysis, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if outcome.Cached {
				fmt.Fprintln(os.Stderr, "(served from cache)")
			}
			return nil
		},
	}
	oneShotFlags(cmd, &lang, &model, &force)
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show live cache entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			if cfg.SurrealURL == "" {
				return fmt.Errorf("stats requires SURREAL_URL")
			}

			db, err := cache.NewSurreal(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			n, err := db.CountEntries(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Live cache entries: %d\n", n)
			return nil
		},
	}
}
