package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/edusuite/schoolbot/internal/api"
	"github.com/edusuite/schoolbot/internal/auth"
	"github.com/edusuite/schoolbot/internal/dialog"
	"github.com/edusuite/schoolbot/internal/lockfile"
	"github.com/edusuite/schoolbot/internal/messaging"
	"github.com/edusuite/schoolbot/internal/session"
	"github.com/edusuite/schoolbot/internal/sheets"
	"github.com/edusuite/schoolbot/internal/util"
	"github.com/edusuite/schoolbot/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for SchoolBot state data
	DefaultStateDir = "/var/lib/schoolbot"
	// DefaultDBFileName is the default SQLite database filename for the sheet store
	DefaultDBFileName = "schoolbot.db"
	// DefaultWhatsAppDBFileName is the default SQLite database filename for the WhatsApp session
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("SchoolBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("SchoolBot exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	WhatsAppDSN string
	StateDir    string
	APIAddr     string
	SessionTTL  string
	NumericCode bool
}

// Flags holds command line flag values
type Flags struct {
	qrOutput   *string
	numeric    *bool
	stateDir   *string
	dbDSN      *string
	waDSN      *string
	apiAddr    *string
	sessionTTL *time.Duration
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		WhatsAppDSN: os.Getenv("WHATSAPP_DB_DSN"),
		StateDir:    os.Getenv("SCHOOLBOT_STATE_DIR"),
		APIAddr:     os.Getenv("API_ADDR"),
		SessionTTL:  os.Getenv("SESSION_TTL"),
		NumericCode: util.ParseBoolEnv("WHATSAPP_NUMERIC_CODE", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SCHOOLBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
		slog.Debug("No WHATSAPP_DB_DSN provided, defaulting to SQLite", "sqlite_path", config.WhatsAppDSN)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"SCHOOLBOT_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"SESSION_TTL", config.SessionTTL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	defaultTTL := session.DefaultTTL
	if config.SessionTTL != "" {
		if parsed, err := time.ParseDuration(config.SessionTTL); err == nil {
			defaultTTL = parsed
		} else {
			slog.Warn("Invalid SESSION_TTL, using default", "value", config.SessionTTL, "default", defaultTTL)
		}
	}

	flags := Flags{
		qrOutput:   flag.String("qr-output", "", "path to write login QR code"),
		numeric:    flag.Bool("numeric-code", config.NumericCode, "use numeric login code instead of QR code (overrides $WHATSAPP_NUMERIC_CODE)"),
		stateDir:   flag.String("state-dir", config.StateDir, "state directory for SchoolBot data (overrides $SCHOOLBOT_STATE_DIR)"),
		dbDSN:      flag.String("db-dsn", config.DatabaseURL, "database DSN for the sheet store (overrides $DATABASE_URL)"),
		waDSN:      flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "database DSN for the WhatsApp session (overrides $WHATSAPP_DB_DSN)"),
		apiAddr:    flag.String("api-addr", config.APIAddr, "admin API server address (overrides $API_ADDR)"),
		sessionTTL: flag.Duration("session-ttl", defaultTTL, "idle lifetime of dialogue sessions (overrides $SESSION_TTL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"waDSN_set", *flags.waDSN != "",
		"apiAddr", *flags.apiAddr,
		"sessionTTL", *flags.sessionTTL)

	return flags
}

// newSheetStore opens the sheet datastore matching the DSN type.
func newSheetStore(dsn string) (sheets.Store, error) {
	if sheets.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL sheet store")
		return sheets.NewPostgresStore(sheets.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite sheet store", "db_path", dsn)
	return sheets.NewSQLiteStore(sheets.WithDSN(dsn))
}

// run bootstraps every module and blocks until shutdown.
func run(flags Flags) error {
	// Hold the state directory for the lifetime of the process.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := newSheetStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	directory := sheets.NewDirectory(store)
	sessions := session.NewStore(session.WithTTL(*flags.sessionTTL))
	engine := dialog.NewEngine(sessions, directory,
		dialog.WithVerifier(auth.NewPlaintextVerifier()),
	)

	waOpts := []whatsapp.Option{whatsapp.WithDBDSN(*flags.waDSN)}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	waClient, err := whatsapp.NewClient(waOpts...)
	if err != nil {
		return err
	}

	service := messaging.NewWhatsAppService(waClient)
	dispatcher := messaging.NewDispatcher(service, engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions.StartEviction(ctx)
	if err := service.Start(ctx); err != nil {
		return err
	}
	defer service.Stop()

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(sessions, apiOpts...)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Admin API server stopped", "error", err)
		}
	}()
	defer server.Stop()

	slog.Info("SchoolBot running", "state_dir", *flags.stateDir)
	err = dispatcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
