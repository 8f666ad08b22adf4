package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/uvadev/CanvasBulkFileDelete/canvas"
	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/logger"
	"github.com/uvadev/CanvasBulkFileDelete/mapping"
	"github.com/uvadev/CanvasBulkFileDelete/processor"
	"github.com/uvadev/CanvasBulkFileDelete/report"
)

func main() {
	// Define CLI flags
	var (
		// General flags
		configPath  = flag.String("config", "./config.yaml", "Path to YAML config file (created with defaults when missing)")
		dryRun      = flag.Bool("dry-run", false, "Run in dry-run mode (no files will be deleted) (env: DRY_RUN)")
		showHistory = flag.Bool("show-history", false, "Print archived run reports and exit")

		// Logger flags
		logLevel = flag.String("log-level", "", "Log level: silent, error, info, debug, verbose (env: LOG_LEVEL)")

		// Canvas API flags
		apiURL         = flag.String("api-url", "", "Canvas base URL (env: CANVAS_BASE_URL)")
		apiToken       = flag.String("api-token", "", "Canvas API token (env: CANVAS_API_TOKEN)")
		lookupStrategy = flag.String("lookup-strategy", "", "User lookup strategy: sis_id, canvas_id (env: CANVAS_LOOKUP_STRATEGY)")
		apiMaxRPS      = flag.Int("api-max-rps", -1, "Max requests per second to Canvas (0 = no limit) (env: CANVAS_MAX_RPS)")

		// Mapping flags
		mappingType = flag.String("mapping-type", "", "Mapping source type: file, s3, ftp (env: MAPPING_TYPE)")
		mappingFile = flag.String("mapping-file", "", "Path to the mapping file for the file source (env: MAPPING_FILE_PATH)")

		// Report flags
		reportDir = flag.String("report-dir", "", "Directory for run report JSON files (env: REPORT_DIR)")

		// General flags
		showHelp = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// Load configuration from file and environment variables
	cfg, created, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("Created default config at %s - fill in the Canvas credentials and run again\n", *configPath)
		os.Exit(0)
	}

	// Override with CLI flags if provided
	applyFlags(cfg, flagValues{
		dryRun:         *dryRun,
		logLevel:       *logLevel,
		apiURL:         *apiURL,
		apiToken:       *apiToken,
		lookupStrategy: *lookupStrategy,
		apiMaxRPS:      *apiMaxRPS,
		mappingType:    *mappingType,
		mappingFile:    *mappingFile,
		reportDir:      *reportDir,
	})

	// Showing archived runs needs only the report config, not API credentials
	if *showHistory {
		if err := printHistory(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading run history: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(&cfg.Logger)
	log.Info("Starting Canvas bulk file deletion tool")
	log.Debug("Configuration loaded and validated")

	// Initialize mapping source
	log.Debug("Initializing mapping source...")
	src, err := mapping.CreateSource(&cfg.Mapping)
	if err != nil {
		log.Error("Failed to create mapping source: %v", err)
		os.Exit(1)
	}
	log.Info("Mapping source initialized: type=%s", src.GetType())

	// Initialize Canvas API client
	log.Debug("Initializing Canvas client...")
	client, err := canvas.NewClient(&cfg.API)
	if err != nil {
		log.Error("Failed to create Canvas client: %v", err)
		os.Exit(1)
	}
	log.Info("Canvas client initialized: base_url=%s, lookup=%s", cfg.API.BaseURL, cfg.API.Lookup)

	// Initialize report sink
	log.Debug("Initializing report sink...")
	sink, err := report.CreateSink(&cfg.Report, log)
	if err != nil {
		log.Error("Failed to create report sink: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("Closing report sink...")
		if err := sink.Close(); err != nil {
			log.Error("Error closing report sink: %v", err)
		}
	}()
	log.Info("Report sink initialized: dir=%s", cfg.Report.Dir)

	// Create processor
	log.Debug("Creating processor...")
	if cfg.DryRun {
		log.Info("Running in DRY-RUN mode - no files will be deleted")
	}
	runner := processor.NewRunner(src, client, sink, log, cfg.API.Lookup, cfg.DryRun)

	// A started run is never interrupted: every task settles into an
	// outcome and the report is written before the process exits.
	log.Info("Starting deletion process...")
	stats, err := runner.Run(context.Background())
	if err != nil {
		log.Error("Run failed: %v", err)
		os.Exit(1)
	}

	log.Info("Run completed successfully, report: %s", stats.ReportPath)
}

type flagValues struct {
	dryRun         bool
	logLevel       string
	apiURL         string
	apiToken       string
	lookupStrategy string
	apiMaxRPS      int
	mappingType    string
	mappingFile    string
	reportDir      string
}

func applyFlags(cfg *config.AppConfig, flags flagValues) {
	// General
	if flag.Lookup("dry-run").Value.String() == "true" {
		cfg.DryRun = flags.dryRun
	}

	// Logger
	if flags.logLevel != "" {
		cfg.Logger.Level = config.LogLevel(flags.logLevel)
	}

	// Canvas API
	if flags.apiURL != "" {
		cfg.API.BaseURL = flags.apiURL
	}
	if flags.apiToken != "" {
		cfg.API.Token = flags.apiToken
	}
	if flags.lookupStrategy != "" {
		cfg.API.Lookup = config.LookupStrategy(flags.lookupStrategy)
	}
	if flags.apiMaxRPS >= 0 {
		// Allow 0 (no limit) to be explicitly set
		cfg.API.MaxRPS = flags.apiMaxRPS
	}

	// Mapping
	if flags.mappingType != "" {
		cfg.Mapping.MappingType = config.MappingType(flags.mappingType)
	}
	if flags.mappingFile != "" {
		if cfg.Mapping.File == nil {
			cfg.Mapping.File = &config.FileMappingConfig{}
		}
		cfg.Mapping.File.Path = flags.mappingFile
	}

	// Report
	if flags.reportDir != "" {
		cfg.Report.Dir = flags.reportDir
	}
}

func printHistory(cfg *config.AppConfig) error {
	if cfg.Report.History == nil || !cfg.Report.History.Enabled {
		return fmt.Errorf("run history is not enabled in the report config")
	}

	hist, err := report.OpenHistory(cfg.Report.History)
	if err != nil {
		return err
	}
	defer hist.Close()

	records, err := hist.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No archived runs")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  deleted=%d no_matching_file=%d user_not_found=%d errors=%d\n",
			rec.Stamp,
			len(rec.Report.CompletedWithDeletion),
			len(rec.Report.CompletedWithoutDeletion),
			len(rec.Report.UserNotFound),
			len(rec.Report.Error))
	}
	return nil
}

func printHelp() {
	fmt.Println("Canvas Bulk File Deletion Tool")
	fmt.Println()
	fmt.Println("Usage: canvas-bulk-file-delete [options]")
	fmt.Println()
	fmt.Println("Deletes one named file from each mapped user's personal Canvas files.")
	fmt.Println("The mapping is a text file with one 'userKey,filename' pair per line.")
	fmt.Println()
	fmt.Println("Configuration is read from a YAML file, then environment variables,")
	fmt.Println("then command-line flags. Flags take precedence.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Example:")
	fmt.Println("  canvas-bulk-file-delete --mapping-file=./mapping.csv --api-url=https://canvas.example.edu --api-token=TOKEN")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DRY_RUN                  - Run in dry-run mode (true/false)")
	fmt.Println("  LOG_LEVEL                - Log level (silent, error, info, debug, verbose)")
	fmt.Println("  CANVAS_BASE_URL          - Canvas base URL")
	fmt.Println("  CANVAS_API_TOKEN         - Canvas API token")
	fmt.Println("  CANVAS_LOOKUP_STRATEGY   - User lookup strategy (sis_id, canvas_id)")
	fmt.Println("  CANVAS_TIMEOUT_SECONDS   - API request timeout in seconds")
	fmt.Println("  CANVAS_MAX_RETRIES       - Max retries for API requests")
	fmt.Println("  CANVAS_MAX_RPS           - Max requests per second to Canvas (0 = no limit)")
	fmt.Println("  CANVAS_PAGE_SIZE         - Page size for file listings")
	fmt.Println("  MAPPING_TYPE             - Mapping source type (file, s3, ftp)")
	fmt.Println("  MAPPING_FILE_PATH        - Path to the mapping file")
	fmt.Println("  MAPPING_TIMEOUT_SECONDS  - Mapping fetch timeout in seconds")
	fmt.Println("  MAPPING_MAX_RETRIES      - Max retries for mapping fetches")
	fmt.Println("  S3_REGION                - S3 region of the mapping object")
	fmt.Println("  S3_BUCKET                - S3 bucket holding the mapping object")
	fmt.Println("  S3_KEY                   - S3 key of the mapping object")
	fmt.Println("  S3_ACCESS_KEY_ID         - S3 access key ID")
	fmt.Println("  S3_SECRET_ACCESS_KEY     - S3 secret access key")
	fmt.Println("  S3_ENDPOINT              - S3 endpoint URL")
	fmt.Println("  FTP_HOST                 - FTP server host")
	fmt.Println("  FTP_PORT                 - FTP server port")
	fmt.Println("  FTP_USERNAME             - FTP username")
	fmt.Println("  FTP_PASSWORD             - FTP password")
	fmt.Println("  FTP_PATH                 - Path to the mapping file on the FTP server")
	fmt.Println("  FTP_USE_TLS              - Use FTPS (true/false)")
	fmt.Println("  REPORT_DIR               - Directory for run report JSON files")
	fmt.Println("  REPORT_HISTORY_ENABLED   - Archive run reports in a local DB (true/false)")
	fmt.Println("  REPORT_HISTORY_PATH      - Path to the run history database")
	fmt.Println("  REPORT_HISTORY_BUCKET    - Bucket name in the run history database")
	fmt.Println("  REPORT_HISTORY_NO_SYNC   - Disable fsync for the history DB (true/false)")
}
