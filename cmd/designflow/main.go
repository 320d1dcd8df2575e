package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/archive"
	"github.com/zen-systems/designflow/pkg/config"
	"github.com/zen-systems/designflow/pkg/figma"
	"github.com/zen-systems/designflow/pkg/pipeline"
)

var (
	stagesFile  string
	verboseFlag bool
	aliases     *config.ModelAliases
)

func main() {
	// Local .env is a convenience for development; missing is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "designflow",
		Short: "Generate production-ready frontend code from Figma designs",
		Long: `Designflow runs a four-stage agent pipeline over a Figma design:
a designer analyzes the design data, an architect plans the component
structure, a coder generates the code, and a reviewer checks the result
against the original design.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&stagesFile, "stages", "", "path to stage routing config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(parseCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	var adapterFlag string
	var modelFlag string
	var outFlag string
	var zipFlag string
	var autoFixFlag bool
	var retriesFlag int
	var timeoutFlag int

	cmd := &cobra.Command{
		Use:   "generate [figma-url]",
		Short: "Run the full pipeline against a Figma file URL",
		Long: `Fetches the design behind the URL and runs all four stages in order.
Every stage's artifact is written under the run directory as it
completes, so a failed run still leaves the upstream artifacts behind.

Use --adapter and --model to route every stage to one provider, or a
--stages file for per-stage routing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			designURL := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.FigmaAccessToken == "" {
				return fmt.Errorf("FIGMA_ACCESS_TOKEN is not set")
			}

			applyOverrides(cfg.Stages, adapterFlag, modelFlag)
			if retriesFlag >= 0 {
				cfg.Stages.Retry.MaxRetries = retriesFlag
			}
			if timeoutFlag > 0 {
				cfg.Stages.CallTimeoutSeconds = timeoutFlag
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}

			client, err := figma.NewClient(cfg.FigmaAccessToken)
			if err != nil {
				return err
			}

			runner, err := pipeline.NewRunner(client, adapters, cfg.Stages)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, err := runner.Run(ctx, designURL, pipeline.Options{
				RunsDir: outFlag,
				AutoFix: autoFixFlag,
				Logger:  logger,
				OnProgress: func(stage, message string, fraction float64) {
					if fraction >= 0 {
						fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", fraction*100, message)
					} else {
						fmt.Fprintf(os.Stderr, "       %s\n", message)
					}
				},
			})
			if err != nil {
				return err
			}

			printRunSummary(run)

			if run.Success() && zipFlag != "" {
				if err := writeZip(zipFlag, run); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Archive written to %s\n", zipFlag)
			}

			if !run.Success() {
				failed := run.FailedStage()
				if failed != nil && failed.Err != nil {
					return fmt.Errorf("stage %s failed (%s): %w", failed.Name, failed.Kind, failed.Err)
				}
				return fmt.Errorf("pipeline did not complete")
			}

			fmt.Fprintf(os.Stderr, "Generated code: %s\n", filepath.Join(run.Dir, "output"))
			return nil
		},
	}

	cmd.Flags().StringVar(&adapterFlag, "adapter", "", "route every stage to this adapter (anthropic, openai, google, deepseek)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "route every stage to this model or alias")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "runs", "base directory for run output")
	cmd.Flags().StringVar(&zipFlag, "zip", "", "also write the generated project as a zip archive")
	cmd.Flags().BoolVar(&autoFixFlag, "autofix", false, "regenerate code once when the reviewer rejects it")
	cmd.Flags().IntVar(&retriesFlag, "retries", -1, "max retries for transient failures (-1 uses config)")
	cmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "per-call timeout in seconds (0 uses config)")

	return cmd
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [figma-url]",
		Short: "Validate a Figma URL and print its file key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := figma.ParseURL(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "FILE KEY\t%s\n", ref.FileKey)
			if ref.NodeID != "" {
				fmt.Fprintf(w, "NODE ID\t%s\n", ref.NodeID)
			}
			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	var resolveFlag bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available providers, models, and aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if resolveFlag {
				return showAliases()
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")

			providers := aliases.ListProviders()
			if len(providers) == 0 {
				providers = []string{"anthropic", "deepseek", "google", "openai"}
			}

			for _, provider := range providers {
				models := formatList(aliases.GetProviderModels(provider))
				status := "no key"
				if cfg.HasAdapter(provider) {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", provider, models, status)
			}

			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&resolveFlag, "resolve", false, "show aliases and what they resolve to")

	return cmd
}

func showAliases() error {
	if aliases == nil || len(aliases.Aliases) == 0 {
		fmt.Println("No model aliases configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tMODEL\tPROVIDER")

	var names []string
	for name := range aliases.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, alias := range names {
		model := aliases.Aliases[alias]
		fmt.Fprintf(w, "%s\t%s\t%s\n", alias, model, aliases.GetProviderForModel(model))
	}

	return w.Flush()
}

func printRunSummary(run *pipeline.Run) {
	w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSTATUS\tATTEMPTS\tDURATION")
	for _, stage := range run.Stages {
		detail := ""
		if stage.Kind != "" {
			detail = fmt.Sprintf(" (%s)", stage.Kind)
		}
		fmt.Fprintf(w, "%s\t%s%s\t%d\t%s\n", stage.Name, stage.Status, detail, stage.Attempts, stage.Duration.Round(time.Millisecond))
	}
	w.Flush()

	if run.Review != nil {
		verdict := "rejected"
		if run.Review.Approved {
			verdict = "approved"
		}
		fmt.Fprintf(os.Stderr, "Review: %d/100 (%s) %s\n", run.Review.Score, verdict, run.Review.Summary)
	}
}

// writeZip packages the generated files with the stage artifacts read back
// from the run directory.
func writeZip(path string, run *pipeline.Run) error {
	artifacts := make(map[string][]byte)
	for _, name := range []string{"design-analysis.json", "architecture.json", "review.json"} {
		data, err := os.ReadFile(filepath.Join(run.Dir, name))
		if err != nil {
			continue
		}
		artifacts[name] = data
	}
	return archive.WriteFile(path, run.FileSet, artifacts)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	result := items[0]
	for i := 1; i < len(items); i++ {
		result += ", " + items[i]
	}
	return result
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "designflow",
	})
	if verboseFlag {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if stagesFile != "" {
		cfg, err = config.LoadWithStagesFile(stagesFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	aliases, _ = config.LoadAliasesWithFallback()

	return cfg, nil
}

// applyOverrides routes every stage to one adapter/model when the flags are
// set. The model flag may be an alias.
func applyOverrides(stages *config.StagesConfig, adapterName, model string) {
	if adapterName != "" {
		stages.Default.Adapter = adapterName
		for name, target := range stages.Stages {
			target.Adapter = ""
			stages.Stages[name] = target
		}
	}
	if model != "" {
		if aliases != nil {
			model = aliases.Resolve(model)
		}
		stages.Default.Model = model
		for name, target := range stages.Stages {
			target.Model = ""
			stages.Stages[name] = target
		}
	}
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters["deepseek"] = a
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no LLM API key configured (set ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY, or DEEPSEEK_API_KEY)")
	}

	return adapters, nil
}
