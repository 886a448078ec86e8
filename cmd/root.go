package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"invoicestore/internal/backup"
	"invoicestore/internal/config"
	"invoicestore/internal/confirmation"
	"invoicestore/internal/display"
	"invoicestore/internal/logging"
	"invoicestore/internal/migration"
	"invoicestore/internal/store"
)

var cfgFile string

// CLI flag variables
var (
	// Backend flags
	backendType string
	backendPath string

	// Operation flags
	verbose     bool
	quiet       bool
	autoApprove bool
	logFile     string
	skipMigrate bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "invoicestore",
	Short: "A versioned invoicing data store with quota-aware backups and schema migration",
	Long: `invoicestore manages the persistence layer of a small-business invoicing
tool: invoices, customers, settings and number sequences in a versioned
key-value store with quota enforcement, schema migration and backups.

Opening the store migrates its data forward to the current schema version,
taking a pre-migration backup first so any failure can be rolled back.

Examples:
  # List invoices from the default file backend
  invoicestore invoice list

  # Use a SQLite backend at an explicit path
  invoicestore --backend=sqlite --path=./invoices.db invoice list

  # Take a manual backup and list stored bundles
  invoicestore backup create
  invoicestore backup list

  # Restore a bundle without an interactive prompt
  invoicestore backup restore 8f14e45f --auto-approve

  # Export the current data set to the configured destination
  invoicestore export

  # Run the scheduled backup daemon
  invoicestore watch`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.invoicestore.yaml)")

	// Backend flags
	rootCmd.PersistentFlags().StringVar(&backendType, "backend", "", "storage backend (file, sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&backendPath, "path", "", "backend directory (file) or database file (sqlite)")

	// Operation flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&autoApprove, "auto-approve", false, "automatically approve destructive operations without confirmation")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file in addition to stdout")
	rootCmd.PersistentFlags().BoolVar(&skipMigrate, "skip-migrate", false, "open the store without migrating to the current schema version")

	// Bind flags to viper
	viper.BindPFlag("backend.type", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("backend.path", rootCmd.PersistentFlags().Lookup("path"))
	viper.BindPFlag("logging.log_file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.AddCommand(createInvoiceCommand())
	rootCmd.AddCommand(createCustomerCommand())
	rootCmd.AddCommand(createSettingsCommand())
	rootCmd.AddCommand(createBackupCommand())
	rootCmd.AddCommand(createExportCommand())
	rootCmd.AddCommand(createImportCommand())
	rootCmd.AddCommand(createWatchCommand())
	rootCmd.AddCommand(createStatusCommand())
	rootCmd.AddCommand(createUsageCommand())
	rootCmd.AddCommand(createConfigCommand())
	rootCmd.AddCommand(createVersionCommand())
}

// validateFlags validates CLI flags and their combinations
func validateFlags() error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet flags are mutually exclusive")
	}
	return nil
}

// buildConfig builds the configuration from the config file and CLI flags
func buildConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	// Override with CLI flags if provided
	if backendType != "" {
		cfg.Backend.Type = backendType
	}
	if backendPath != "" {
		cfg.Backend.Path = backendPath
	}
	if logFile != "" {
		cfg.Logging.LogFile = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// buildLogger builds the logger from the configuration and verbosity flags
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	level := logging.LogLevel(cfg.Logging.Level)
	if verbose {
		level = logging.LogLevelVerbose
	}
	if quiet {
		level = logging.LogLevelQuiet
	}

	return logging.NewLogger(logging.Config{
		Level:   level,
		Output:  os.Stderr,
		Format:  cfg.Logging.Format,
		LogFile: cfg.Logging.LogFile,
	})
}

// app bundles the opened store and the services commands operate on.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   *store.Store
	backups *backup.Manager
	engine  *migration.Engine
	display *display.Service
	confirm confirmation.Service
}

// newApp opens the store and migrates its data to the current schema
// version unless --skip-migrate is set.
func newApp() (*app, error) {
	if err := validateFlags(); err != nil {
		return nil, err
	}

	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   s,
		backups: backup.NewManager(s, cfg, logger),
		display: display.NewService(),
		confirm: confirmation.NewService(),
	}
	a.engine = migration.NewEngine(s, a.backups, logger)

	if !skipMigrate {
		if err := a.engine.MigrateToCurrent(); err != nil {
			a.Close()
			return nil, fmt.Errorf("schema migration failed: %w", err)
		}
	}

	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".invoicestore" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".invoicestore")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("INVOICESTORE")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
	goVersion = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc, gv string) {
	version = v
	buildTime = bt
	gitCommit = gc
	goVersion = gv
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("invoicestore version %s\n", version)
			fmt.Printf("Built: %s\n", buildTime)
			fmt.Printf("Commit: %s\n", gitCommit)
			fmt.Printf("Go version: %s\n", goVersion)
			fmt.Printf("Schema version: %s\n", migration.CurrentVersion)
		},
	}
}

// createConfigCommand creates the config subcommand for generating a sample config
func createConfigCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(outputPath); err != nil {
				return fmt.Errorf("failed to write configuration: %w", err)
			}
			fmt.Printf("Configuration written to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", ".invoicestore.yaml", "output path for the sample configuration")
	return cmd
}
