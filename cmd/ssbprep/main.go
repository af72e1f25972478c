package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/ssbprep/internal/catalog"
	"github.com/pavelanni/ssbprep/internal/handler"
	appI18n "github.com/pavelanni/ssbprep/internal/i18n"
	"github.com/pavelanni/ssbprep/internal/llm"
	"github.com/pavelanni/ssbprep/internal/llm/prompts"
	"github.com/pavelanni/ssbprep/internal/mentor"
	"github.com/pavelanni/ssbprep/internal/model"
	"github.com/pavelanni/ssbprep/internal/practice"
	"github.com/pavelanni/ssbprep/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ssbprep",
		Short: "SSB interview preparation API with AI mentor feedback",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), catalogCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `ssbprep --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8001", "HTTP listen address")
	addDBFlags(cmd)
	f.String("llm-provider", "openai", "LLM backend (openai, huggingface)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the LLM provider (or set SSBPREP_LLM_KEY)")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Duration("llm-timeout", 60*time.Second, "Timeout for a single LLM call")
	f.Float32("llm-temperature", 0.7, "Sampling temperature for the openai provider")
	f.String("hf-url", llm.DefaultHuggingFaceURL, "Hugging Face inference endpoint")
	f.Int("hf-max-tokens", 250, "Maximum new tokens for the huggingface provider")
	f.String("feedback-style", string(prompts.StyleStandard), "Feedback style (strict, standard, encouraging)")
	f.Bool("strict-input", true, "Reject request bodies with missing required fields")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.StringP("lang", "l", "en", "Default language for API messages (en, hi)")
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export mentor chat transcripts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	addDBFlags(cmd)
	f.String("user-id", "", "Export only this user (default: all users)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.StringP("lang", "l", "en", "Language for status messages (en, hi)")
	addLogFlags(cmd)
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [test-type]",
		Short: "Validate and print the practice catalog as JSON",
		Long: "Validate and print the practice catalog as JSON.\n\nTest types: " +
			strings.Join(testTypeNames(), ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: runCatalog,
	}
	cmd.Flags().StringP("lang", "l", "en", "Language for messages (en, hi)")
	addLogFlags(cmd)
	return cmd
}

func addDBFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-driver", "sqlite", "Database driver (sqlite, postgres, mysql)")
	cmd.Flags().String("db", store.DefaultSQLitePath, "SQLite path or database DSN")
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
}

func setupLogging(v *viper.Viper) {
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

	v.SetEnvPrefix("SSBPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("ssbprep")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/ssbprep")
	v.AddConfigPath("/etc/ssbprep")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// loadConfig reads configuration for cmd and installs the logger it asks for.
func loadConfig(cmd *cobra.Command) *viper.Viper {
	v := viperForCmd(cmd)
	setupLogging(v)
	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := loadConfig(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	if err := prompts.Load(); err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	db, err := store.New(v.GetString("db-driver"), v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	style := strings.ToLower(strings.TrimSpace(v.GetString("feedback-style")))
	if !prompts.IsValidStyle(style) {
		slog.Warn("invalid feedback-style, using standard", "style", style)
		style = string(prompts.StyleStandard)
	}

	gw, err := newGateway(v, lang)
	if err != nil {
		return err
	}

	strict := v.GetBool("strict-input")
	ps := practice.New(cat, gw, practice.Options{Style: prompts.Style(style), Lenient: !strict})
	ms := mentor.New(gw, db, prompts.Style(style))

	h, err := handler.New(cat, ps, ms, model.ServerConfig{
		StrictInput: strict,
		CORSOrigins: v.GetStringSlice("cors-origins"),
		Lang:        lang,
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	srv := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting server",
		"addr", srv.Addr,
		"provider", gw.ProviderName(),
		"model", v.GetString("llm-model"),
		"db_driver", db.Driver(),
		"lang", lang,
		"feedback_style", style,
		"strict_input", strict,
	)
	return serveUntilSignal(cmd.Context(), srv)
}

// newGateway builds the configured provider and checks its endpoint. An
// unreachable provider only logs a warning: requests fall back to canned text.
func newGateway(v *viper.Viper, lang string) (*llm.Gateway, error) {
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Kind:        v.GetString("llm-provider"),
		BaseURL:     v.GetString("llm-url"),
		APIKey:      v.GetString("llm-key"),
		Model:       v.GetString("llm-model"),
		Temperature: float32(v.GetFloat64("llm-temperature")),
		HFURL:       v.GetString("hf-url"),
		HFMaxTokens: v.GetInt("hf-max-tokens"),
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	gw := llm.New(provider, appI18n.Translate(lang, "FallbackResponse"), v.GetDuration("llm-timeout"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gw.Ping(ctx); err != nil {
		slog.Warn("LLM health check failed, feedback will fall back until it recovers",
			"provider", provider.Name(), "error", err)
	} else {
		slog.Info("LLM endpoint OK", "provider", provider.Name(), "model", v.GetString("llm-model"))
	}
	return gw, nil
}

// serveUntilSignal runs srv until SIGINT or SIGTERM, then shuts it down
// gracefully.
func serveUntilSignal(parent context.Context, srv *http.Server) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := loadConfig(cmd)
	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db-driver"), v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	export, err := db.ExportChats(ctx, v.GetString("user-id"))
	if err != nil {
		return fmt.Errorf("export chats: %w", err)
	}

	if err := writeJSON(v.GetString("output"), export); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, appI18n.Tp(ctx, "TurnsExported", export.TotalTurns))
	return nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	v := loadConfig(cmd)
	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if len(args) == 1 {
		table, err := cat.List(model.TestType(args[0]))
		if err != nil {
			return errors.New(appI18n.Td(context.Background(), "UnknownTestType", map[string]any{"Type": args[0]}))
		}
		return writeJSON("-", table)
	}

	all := make(map[model.TestType]any, len(model.AllTestTypes))
	for _, t := range model.AllTestTypes {
		table, err := cat.List(t)
		if err != nil {
			return err
		}
		all[t] = table
	}
	return writeJSON("-", all)
}

func testTypeNames() []string {
	names := make([]string, len(model.AllTestTypes))
	for i, t := range model.AllTestTypes {
		names[i] = string(t)
	}
	return names
}

// writeJSON writes indented JSON to outPath, or to stdout for "" and "-".
func writeJSON(outPath string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
