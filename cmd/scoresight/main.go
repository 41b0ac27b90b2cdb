package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arjunverma/scoresight/internal/analysis"
	"github.com/arjunverma/scoresight/internal/handler"
	"github.com/arjunverma/scoresight/internal/llm"
	"github.com/arjunverma/scoresight/internal/loader"
	"github.com/arjunverma/scoresight/internal/model"
	"github.com/arjunverma/scoresight/internal/report"
	"github.com/arjunverma/scoresight/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scoresight",
		Short: "Exam-attempt analysis and AI-assisted report generation",
	}

	analyze := analyzeCmd()
	root.AddCommand(analyze, serveCmd(), historyCmd())

	// Make "analyze" the default when no subcommand is given.
	root.RunE = analyze.RunE

	// Register analyze flags on root so bare `scoresight file.json` still works.
	root.Flags().AddFlagSet(analyze.Flags())

	return root
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze submission files and generate PDF reports",
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.StringP("input-dir", "i", "", "Directory of submission JSON files (in addition to positional files)")
	f.StringP("out", "o", "generated_reports", "Output directory for PDF reports")
	f.String("db", "scoresight.db", "SQLite database path for report history")
	f.IntP("workers", "w", 2, "Maximum concurrent per-file pipelines")
	f.Bool("no-feedback", false, "Skip the AI feedback call and use a placeholder narrative")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP analysis server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "scoresight.db", "SQLite database path for report history")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export the generated-report history as JSON",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.String("db", "scoresight.db", "SQLite database path for report history")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)
	return cmd
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "https://generativelanguage.googleapis.com/v1beta/openai/", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the feedback model (or set SCORESIGHT_LLM_KEY)")
	f.String("llm-model", "gemini-2.0-flash", "Feedback model name")
}

func addLogFlags(f *pflag.FlagSet) {
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

	v.SetEnvPrefix("SCORESIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("scoresight")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/scoresight")
	v.AddConfigPath("/etc/scoresight")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func newLLMClient(v *viper.Viper) *llm.Client {
	return llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	files, err := collectInputs(args, v.GetString("input-dir"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no submission files to process: pass file paths or --input-dir")
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cfg := model.Config{
		OutputDir:  v.GetString("out"),
		Workers:    v.GetInt("workers"),
		NoFeedback: v.GetBool("no-feedback"),
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	llmClient := newLLMClient(v)

	slog.Info("starting analysis", "files", len(files), "workers", cfg.Workers, "out", cfg.OutputDir)

	// Each file is an independent pipeline; a failure aborts that file only.
	var (
		wg        sync.WaitGroup
		sem       = make(chan struct{}, cfg.Workers)
		mu        sync.Mutex
		succeeded int
		failed    int
	)
	for _, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(file string) {
			defer wg.Done()
			defer func() { <-sem }()
			err := processFile(cmd.Context(), file, cfg, llmClient, db)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("report failed", "file", file, "error", err)
				failed++
			} else {
				succeeded++
			}
		}(file)
	}
	wg.Wait()

	slog.Info("processing summary", "attempted", len(files), "succeeded", succeeded, "failed", failed)
	if succeeded > 0 {
		abs, err := filepath.Abs(cfg.OutputDir)
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "PDF reports are located in %s\n", abs)
		}
	}
	return nil
}

// processFile runs the full pipeline for one submission file:
// load -> analyze -> feedback -> PDF -> history record.
func processFile(ctx context.Context, path string, cfg model.Config, llmClient *llm.Client, db *store.Store) error {
	slog.Info("processing submission", "file", path)

	rec, err := loader.LoadFile(path)
	if err != nil {
		return err
	}

	res, err := analysis.Analyze(rec)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", path, err)
	}
	slog.Info("data processed", "student", res.StudentName, "test", res.TestName,
		"questions", res.Overall.TotalQuestionsInTest)

	var feedback string
	if cfg.NoFeedback {
		feedback = "Error: AI feedback was skipped for this report."
	} else {
		feedback = llmClient.GenerateFeedback(ctx, llm.BuildContext(res), res.StudentName)
		if llm.IsErrorFeedback(feedback) {
			slog.Warn("feedback generation failed", "student", res.StudentName, "detail", feedback)
		} else {
			slog.Info("feedback received", "student", res.StudentName)
		}
	}

	pdfPath := filepath.Join(cfg.OutputDir, safeBaseName(path)+"_report.pdf")
	if err := report.GenerateFile(res, feedback, pdfPath); err != nil {
		return err
	}
	slog.Info("report generated", "path", pdfPath)

	_, err = db.InsertReport(model.ReportRecord{
		SourceFile:         path,
		StudentName:        res.StudentName,
		TestName:           res.TestName,
		Score:              res.Overall.Score,
		AccuracyPercent:    res.Overall.AccuracyPercent,
		TotalQuestions:     res.Overall.TotalQuestionsInTest,
		CorrectAnswers:     res.Overall.CorrectAnswers,
		IncorrectAnswers:   res.Overall.IncorrectAnswers,
		UnattemptedAnswers: res.Overall.UnattemptedAnswers,
		PDFPath:            pdfPath,
		FeedbackOK:         !llm.IsErrorFeedback(feedback),
	})
	if err != nil {
		return fmt.Errorf("record report for %s: %w", path, err)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	h := handler.New(db, newLLMClient(v))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "model", v.GetString("llm-model"), "llm_url", v.GetString("llm-url"))
	return http.ListenAndServe(addr, r)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	reports, err := db.ListReports()
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
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

// collectInputs merges positional file arguments with *.json files found in
// the input directory.
func collectInputs(args []string, dir string) ([]string, error) {
	files := append([]string(nil), args...)
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read input directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
				continue
			}
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// safeBaseName derives a filesystem-safe report name from a source path.
func safeBaseName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, base)
}
