package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/examtracker/internal/clock"
	appI18n "github.com/pavelanni/examtracker/internal/i18n"
	"github.com/pavelanni/examtracker/internal/store"
	"github.com/pavelanni/examtracker/internal/tracker"
)

func main() {
	_ = godotenv.Load() // .env is optional
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "examtracker",
		Short:        "Personal exam practice tracker",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(
		serve,
		subjectCmd(),
		examCmd(),
		practiceCmd(),
		reviewCmd(),
		statsCmd(),
		dashboardCmd(),
		exportCmd(),
		importCmd(),
		prefsCmd(),
		clearCmd(),
	)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// addCommonFlags registers the flags every command understands.
func addCommonFlags(f *pflag.FlagSet) {
	f.String("db", "examtracker.db", "SQLite database path")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examtracker")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examtracker")
	v.AddConfigPath("/etc/examtracker")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// app bundles what a command needs once the database is open.
type app struct {
	v       *viper.Viper
	db      *store.Store
	clock   clock.Clock
	tracker *tracker.Tracker
	ctx     context.Context
}

// openApp sets up logging, translations and the tracker for cmd.
// The caller must Close the returned app.
func openApp(cmd *cobra.Command) (*app, error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	c := clock.System{}
	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	return &app{
		v:       v,
		db:      db,
		clock:   c,
		tracker: tracker.New(db, c, slog.Default()),
		ctx:     ctx,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp adapts a function taking an open app to a cobra RunE.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
