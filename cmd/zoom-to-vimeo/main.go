package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"zoom-to-vimeo/internal/config"
	"zoom-to-vimeo/internal/download"
	"zoom-to-vimeo/internal/filename"
	"zoom-to-vimeo/internal/logging"
	"zoom-to-vimeo/internal/pipeline"
	"zoom-to-vimeo/internal/progress"
	"zoom-to-vimeo/internal/vimeo"
	"zoom-to-vimeo/internal/worksheet"
	"zoom-to-vimeo/internal/zoom"
)

var (
	// Version information - will be set during build
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	worksheetFile string
	downloadDir   string
	workers       int
	verbose       bool
	dryRun        bool
	noProgress    bool
	limit         int
)

// runEnv bundles everything a subcommand needs once configuration is loaded
type runEnv struct {
	cfg     *config.Config
	logger  logging.Logger
	sinks   *logging.SinkSet
	sheet   *worksheet.Sheet
	watcher *worksheet.Watcher
}

// buildRootCommand creates and configures the root command
func buildRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zoom-to-vimeo",
		Short: "Move Zoom cloud recordings to Vimeo",
		Long: `zoom-to-vimeo transfers recorded meetings from Zoom cloud storage
to Vimeo, driven by a CSV worksheet.

Each worksheet row names a meeting, the local file name to use, and the
Vimeo folder the video belongs in. The tool downloads recordings from
whichever configured Zoom account holds them, uploads the files to Vimeo,
and writes transfer statuses back into the worksheet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(createFetchCommand())
	rootCmd.AddCommand(createPublishCommand())
	rootCmd.AddCommand(createRunCommand())
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file path (default: config.yaml)")
	rootCmd.PersistentFlags().StringVar(&worksheetFile, "worksheet", "", "worksheet CSV path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&downloadDir, "download-dir", "", "local recordings directory (overrides config)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent workers, 1-10 (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "show what would be transferred without transferring")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 0, "limit processing to N worksheet rows (0 = no limit)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if limit < 0 {
			return fmt.Errorf("limit must be a positive number or 0, got: %d", limit)
		}
		if workers < 0 || workers > 10 {
			return fmt.Errorf("workers must be between 1 and 10, got: %d", workers)
		}
		return nil
	}

	return rootCmd
}

// createFetchCommand creates the fetch subcommand
func createFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download worksheet recordings from Zoom",
		Long: `Download every worksheet recording that is not already on disk,
probing the configured Zoom accounts in order until one holds the meeting.
Download statuses are written back into the worksheet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupRun(false)
			if err != nil {
				return err
			}
			defer env.close()

			results := runFetch(cmd.Context(), env)
			if err := finishRun(env, pipeline.ModeFetch, results); err != nil {
				return err
			}
			printSummary(cmd, "fetch", results)
			return nil
		},
	}
}

// createPublishCommand creates the publish subcommand
func createPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Upload downloaded recordings to Vimeo",
		Long: `Upload every downloaded recording that is not already published,
filing each video into the folder its worksheet row names. Upload statuses
and the new video URIs are written back into the worksheet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupRun(true)
			if err != nil {
				return err
			}
			defer env.close()

			results := runPublish(cmd.Context(), env)
			if err := finishRun(env, pipeline.ModePublish, results); err != nil {
				return err
			}
			printSummary(cmd, "publish", results)
			return nil
		},
	}
}

// createRunCommand creates the run subcommand chaining fetch and publish
func createRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch from Zoom, then publish to Vimeo",
		Long: `Run the full transfer: download missing recordings from Zoom, then
upload them to Vimeo. The worksheet is read once at the start and written
once at the end with both status columns updated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupRun(true)
			if err != nil {
				return err
			}
			defer env.close()

			fetchResults := runFetch(cmd.Context(), env)
			if !dryRun {
				if err := pipeline.Apply(env.sheet, pipeline.ModeFetch, fetchResults); err != nil {
					return err
				}
			}
			printSummary(cmd, "fetch", fetchResults)

			publishResults := runPublish(cmd.Context(), env)
			if err := finishRun(env, pipeline.ModePublish, publishResults); err != nil {
				return err
			}
			printSummary(cmd, "publish", publishResults)
			return nil
		},
	}
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, commit, and build information for zoom-to-vimeo",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("zoom-to-vimeo version %s\n", version)
			cmd.Printf("Commit: %s\n", commit)
			cmd.Printf("Build date: %s\n", buildDate)
		},
	}
}

// createConfigCommand creates the config help subcommand
func createConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show configuration file structure and examples",
		Long:  "Display the required configuration file structure, environment variables, and examples",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(configHelp)
		},
	}
}

const configHelp = `Configuration File Structure (config.yaml):

ZOOM ACCOUNTS (Required):
========================
zoom:
  accounts:                                # Ordered pool, probed first to last (max 26)
    - name: Account_A
      account_id: "your_zoom_account_id"   # From the Server-to-Server OAuth app
      client_id: "your_zoom_client_id"
      client_secret: "your_zoom_client_secret"
      auth: basic                          # Token exchange: basic (default) or jwt
  base_url: "https://api.zoom.us/v2"       # Zoom API base URL
  token_url: "https://zoom.us/oauth/token" # OAuth token endpoint

VIMEO (Required for publish):
============================
vimeo:
  access_token: "your_vimeo_token"         # Personal access token with upload scope
  base_url: "https://api.vimeo.com"

WORKSHEET:
=========
worksheet:
  file: "./meetings.csv"   # Columns: Meeting ID, File Name, Vimeo URI
  watch: false             # Reload the worksheet when it changes on disk

DOWNLOAD / UPLOAD:
=================
download:
  output_dir: "./zoom_downloads"  # Where recordings land locally
  workers: 5                      # Concurrent downloads (1-10)
  timeout_seconds: 300
upload:
  workers: 3                      # Concurrent uploads (1-10)
  timeout_seconds: 600

LOGGING:
=======
logging:
  level: "info"                        # debug, info, warn, error
  file: ""                             # Optional log file
  console: true
  json_format: false
  success_file: "./vimeo_success.log"  # Append-only outcome logs
  failure_file: "./vimeo_failure.log"

ENVIRONMENT VARIABLES:
=====================
Accounts can come entirely from the environment, lettered in probe order;
scanning stops at the first incomplete letter:
  ZOOM_ACCOUNT_A_ACCOUNT_ID, ZOOM_ACCOUNT_A_CLIENT_ID, ZOOM_ACCOUNT_A_CLIENT_SECRET
  ZOOM_ACCOUNT_B_ACCOUNT_ID, ...

Other overrides:
  VIMEO_ACCESS_TOKEN, MEETINGS_CSV_FILE, DOWNLOAD_OUTPUT_DIR,
  ZOOM_BASE_URL, ZOOM_TOKEN_URL

A .env file in the working directory is loaded before the environment is read.

EXAMPLE USAGE:
=============
  zoom-to-vimeo fetch                      # Download missing recordings
  zoom-to-vimeo publish                    # Upload and file into folders
  zoom-to-vimeo run                        # Fetch then publish
  zoom-to-vimeo fetch --limit 5 --dry-run
  zoom-to-vimeo publish --workers 2 --worksheet ./batch2.csv
`

// setupRun loads configuration, applies flag overrides and reads the
// worksheet. requireVimeo is set for flows that upload.
func setupRun(requireVimeo bool) (*runEnv, error) {
	configPath := "config.yaml"
	if configFile != "" {
		configPath = configFile
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if worksheetFile != "" {
		cfg.Worksheet.File = worksheetFile
	}
	if downloadDir != "" {
		cfg.Download.OutputDir = downloadDir
	}
	if workers > 0 {
		cfg.Download.Workers = workers
		cfg.Upload.Workers = workers
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if requireVimeo && !dryRun {
		if err := cfg.RequireVimeo(); err != nil {
			return nil, err
		}
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	sinks, err := logging.NewSinkSet(cfg.Logging.SuccessFile, cfg.Logging.FailureFile)
	if err != nil {
		logger.Close()
		return nil, err
	}

	sanitizer := filename.NewSanitizer(filename.SanitizerOptions{})
	sheet, err := worksheet.Read(cfg.Worksheet.File, sanitizer)
	if err != nil {
		sinks.Close()
		logger.Close()
		return nil, err
	}

	env := &runEnv{
		cfg:    cfg,
		logger: logger,
		sinks:  sinks,
		sheet:  sheet,
	}

	// The worksheet is read once and rewritten once; an edit made while a
	// run is in flight would be silently overwritten at write-back, so
	// surface it when watching is enabled
	if cfg.Worksheet.Watch {
		watcher, err := worksheet.NewWatcher(worksheet.WatchConfig{FilePath: cfg.Worksheet.File}, func() {
			logger.Warn("worksheet %s changed on disk during the run; those edits will be overwritten at write-back", cfg.Worksheet.File)
		})
		if err != nil {
			logger.Warn("failed to watch worksheet: %v", err)
		} else {
			env.watcher = watcher
		}
	}

	return env, nil
}

func (env *runEnv) close() {
	if env.watcher != nil {
		env.watcher.Close()
	}
	env.sinks.Close()
	env.logger.Close()
}

// items returns the work items for this run, honoring --limit
func (env *runEnv) items() []worksheet.WorkItem {
	items := env.sheet.Items()
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// runFetch wires the Zoom side and downloads every pending item
func runFetch(ctx context.Context, env *runEnv) []pipeline.RunResult {
	cfg := env.cfg

	tokens := zoom.NewOAuthTokenSource(cfg.Zoom.TokenURL, cfg.Download.TimeoutDuration())
	api := zoom.NewClient(cfg.Zoom.BaseURL, cfg.Download.TimeoutDuration())
	locator := zoom.NewLocator(cfg.Zoom.Accounts, tokens, api, env.logger)

	downloader := download.NewManager(download.Config{
		ConcurrentLimit: cfg.Download.Workers,
		Timeout:         cfg.Download.TimeoutDuration(),
	})

	processor := pipeline.NewProcessor(pipeline.ProcessorConfig{
		DownloadDir: cfg.Download.OutputDir,
		DryRun:      dryRun,
	}, locator, downloader, nil, env.sinks, env.logger)

	coordinator := pipeline.NewCoordinator(processor, cfg.Download.Workers, env.logger)

	items := env.items()
	env.logger.Info("fetching %d worksheet recordings into %s", len(items), cfg.Download.OutputDir)

	bar := progress.NewBar(int64(len(items)), progress.Config{Disabled: noProgress})
	return coordinator.RunAll(ctx, pipeline.ModeFetch, items, bar)
}

// runPublish wires the Vimeo side and uploads every pending item
func runPublish(ctx context.Context, env *runEnv) []pipeline.RunResult {
	cfg := env.cfg

	uploader := vimeo.NewClient(cfg.Vimeo.BaseURL, cfg.Vimeo.AccessToken, cfg.Upload.TimeoutDuration())

	processor := pipeline.NewProcessor(pipeline.ProcessorConfig{
		DownloadDir: cfg.Download.OutputDir,
		DryRun:      dryRun,
	}, nil, nil, uploader, env.sinks, env.logger)

	coordinator := pipeline.NewCoordinator(processor, cfg.Upload.Workers, env.logger)

	items := env.items()
	env.logger.Info("publishing %d worksheet recordings from %s", len(items), cfg.Download.OutputDir)

	bar := progress.NewBar(int64(len(items)), progress.Config{Disabled: noProgress})
	return coordinator.RunAll(ctx, pipeline.ModePublish, items, bar)
}

// finishRun merges results into the worksheet and rewrites it. Dry runs
// leave the file untouched.
func finishRun(env *runEnv, mode pipeline.Mode, results []pipeline.RunResult) error {
	if dryRun {
		return nil
	}
	if err := pipeline.Apply(env.sheet, mode, results); err != nil {
		return err
	}
	if err := env.sheet.Write(env.cfg.Worksheet.File); err != nil {
		return err
	}
	env.logger.Info("worksheet %s updated", env.cfg.Worksheet.File)
	return nil
}

// printSummary renders the per-item outcomes and totals for one phase
func printSummary(cmd *cobra.Command, phase string, results []pipeline.RunResult) {
	counts := make(map[pipeline.Outcome]int)

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetTitle("%s summary", phase)
	tw.AppendHeader(table.Row{"Meeting ID", "File", "Outcome", "Detail"})
	for _, result := range results {
		counts[result.Outcome]++
		tw.AppendRow(table.Row{result.MeetingID, result.FileName, result.Outcome.String(), result.Message})
	}
	tw.AppendFooter(table.Row{"", "", "total", len(results)})
	tw.Render()

	cmd.Printf("%s: %d succeeded, %d skipped, %d partial, %d failed\n",
		phase,
		counts[pipeline.OutcomeDownloaded]+counts[pipeline.OutcomeUploaded],
		counts[pipeline.OutcomeSkipped],
		counts[pipeline.OutcomePartialUpload],
		counts[pipeline.OutcomeFailed])
}

func main() {
	rootCmd := buildRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
