package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/maloquacious/todolist/internal/config"
	"github.com/maloquacious/todolist/internal/logger"
	"github.com/maloquacious/todolist/internal/store"
	"github.com/maloquacious/todolist/internal/store/sqlite"
	"github.com/maloquacious/todolist/internal/web"
)

var (
	version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
)

var (
	configFile string
	shutdownTO time.Duration
	port       int
	exitAfter  time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "app",
		Short:        "Todo list server and datastore CLI",
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, toml or env); environment variables override it")
	rootCmd.PersistentFlags().DurationVar(&shutdownTO, "shutdown-timeout", 0, "graceful shutdown timeout (overrides SHUTDOWN_TIMEOUT)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Initialize the datastore and start the HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides PORT)")
	serveCmd.Flags().DurationVar(&exitAfter, "exit-after", 0, "optional runtime; if set, server exits after this duration (testing)")

	// db command group
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Datastore management commands",
	}
	dbCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create and initialize the datastore",
		RunE:  runDBCreate,
	}
	dbVerifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify schema integrity and version",
		RunE:  runDBVerify,
	}
	dbCmd.AddCommand(dbCreateCmd, dbVerifyCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(serveCmd, dbCmd, versionCmd)
	return rootCmd
}

// loadConfig reads the configuration once and applies command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("shutdown-timeout") {
		cfg.ShutdownTimeout = shutdownTO
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger.Default = log
	return cfg, log, nil
}

// runServe initializes the store and serves until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := sqlite.New(cfg.DBPath)
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	log.Info("store ready at %s", cfg.DBPath)
	log.Info("todolist %s (app version %s, environment %s)", version.String(), cfg.Version, cfg.Environment)

	// Optional run timer
	if exitAfter > 0 {
		log.Info("exit-after timer set: %s", exitAfter)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, exitAfter)
		defer cancel()
	}

	return web.New(cfg, st, log).ListenAndServe(ctx)
}

func runDBCreate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := sqlite.New(cfg.DBPath)
	if err := st.Init(cmd.Context()); err != nil {
		return fmt.Errorf("db create: %w", err)
	}
	log.Info("db create: initialized %s (schema %s)", cfg.DBPath, sqlite.SchemaVersion)
	return nil
}

type verifyReport struct {
	Path          string `json:"path"`
	State         string `json:"state"`
	SchemaVersion string `json:"schemaVersion,omitempty"`
	Expected      string `json:"expected"`
}

func runDBVerify(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := sqlite.New(cfg.DBPath)
	state, err := st.CheckState(cmd.Context())
	if err != nil {
		return fmt.Errorf("db verify: %w", err)
	}

	report := verifyReport{
		Path:     cfg.DBPath,
		State:    state.String(),
		Expected: sqlite.SchemaVersion,
	}
	if state == store.StateReady || state == store.StateVersionMismatch {
		if report.SchemaVersion, err = st.SchemaVersion(cmd.Context()); err != nil {
			return fmt.Errorf("db verify: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if state != store.StateReady {
		return fmt.Errorf("db verify: datastore is %s", state)
	}
	return nil
}
