package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/app"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/checker"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/config"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/presenter"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/storage"
	"github.com/kurihiro0119/gitlab-commit-checker/pkg/client"
)

var (
	cfgFile     string
	outputJSON  bool
	useRemote   bool
	gitlabURL   string
	inputFile   string
	contextURL  string
	noHistory   bool
	failOnError bool
	limit       int
)

var rootCmd = &cobra.Command{
	Use:   "gitlab-commits",
	Short: "GitLab latest commit checker",
	Long: `A CLI tool for checking the latest commit of many GitLab project branches at once.

Projects are given as "path/branch" (e.g. group/sub/project/main); a project
without a branch is checked on main. Requests reuse an existing browser session
through exported cookies or a token configured in the environment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var checkCmd = &cobra.Command{
	Use:   "check [project/branch ...]",
	Short: "Check the latest commit of each project branch",
	Long: `Fetch the latest commit of every given project branch concurrently.

Projects are read from the arguments, from --file, and from stdin when it is
not a terminal. Every project yields exactly one row, in input order.`,
	RunE: runCheck,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously submitted checks",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all history records",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&useRemote, "remote", false, "run through the API server at API_ENDPOINT")

	checkCmd.Flags().StringVar(&gitlabURL, "url", "", "GitLab base URL (default is GITLAB_URL)")
	checkCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read projects from file, one per line (- for stdin)")
	checkCmd.Flags().StringVar(&contextURL, "context-url", "", "browsing context whose headers to use")
	checkCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this check in history")
	checkCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any project fails")

	historyCmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records to show")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var files []string
	if cfgFile != "" {
		files = append(files, cfgFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// readInput collects project lines from args, --file and piped stdin
func readInput(cmd *cobra.Command, args []string) (string, error) {
	lines := append([]string{}, args...)

	readStdin := inputFile == "-"
	if inputFile != "" && inputFile != "-" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read projects file: %w", err)
		}
		lines = append(lines, string(data))
	}
	if inputFile == "" && len(args) == 0 {
		if f, ok := cmd.InOrStdin().(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
			readStdin = true
		}
	}
	if readStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		lines = append(lines, string(data))
	}

	return strings.Join(lines, "\n"), nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	baseURL := gitlabURL
	if baseURL == "" {
		baseURL = cfg.GitLabURL
	}

	ctx := context.Background()
	var batch *domain.Batch

	if useRemote {
		batch, err = client.NewClient(cfg.APIEndpoint).Check(ctx, client.CheckRequest{
			GitLabURL:  baseURL,
			Projects:   input,
			ContextURL: contextURL,
		})
	} else {
		var opts []checker.Option
		if noHistory {
			opts = append(opts, checker.WithHistory(nil))
		}
		a, aerr := app.New(cfg, opts...)
		if aerr != nil {
			return aerr
		}
		defer a.Close()

		batch, err = a.Checker.Run(ctx, baseURL, input, contextURL)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	p := presenter.New(cmd.OutOrStdout())
	if outputJSON {
		if err := p.JSON(batch); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\nLatest commits: %s\n\n", batch.GitLabURL)
		p.Results(batch.Results)
		p.Summary(batch)
	}

	if failOnError && batch.Failed() > 0 {
		return fmt.Errorf("%d of %d checks failed", batch.Failed(), len(batch.Results))
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var records []*domain.HistoryRecord

	if useRemote {
		records, err = client.NewClient(cfg.APIEndpoint).ListHistory(ctx, limit)
	} else {
		store, serr := openStorage(cfg)
		if serr != nil {
			return serr
		}
		defer store.Close()
		records, err = store.ListHistory(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	p := presenter.New(cmd.OutOrStdout())
	if outputJSON {
		if records == nil {
			records = []*domain.HistoryRecord{}
		}
		return p.JSON(records)
	}
	p.History(records)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if useRemote {
		err = client.NewClient(cfg.APIEndpoint).ClearHistory(ctx)
	} else {
		store, serr := openStorage(cfg)
		if serr != nil {
			return serr
		}
		defer store.Close()
		err = store.ClearHistory(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
	return nil
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	store, err := app.NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}
