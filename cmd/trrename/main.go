// Command trrename classifies German broker PDFs and renames them in
// place to yyyy_mm_dd_Typ_ISIN_Asset.pdf.
//
// Usage:
//
//	trrename run <folder> -dry-run     # preview a folder
//	trrename run <folder>              # rename for real
//	trrename watch <folder>            # keep renaming as PDFs land
//	trrename report -run run_...      # inspect a past run
//	trrename serve -listen :8417       # JSON API over the journal
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/config"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/dbopen"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/journal"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/pipeline"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/report"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/sqllog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "watch":
		cmdWatch(os.Args[2:])
	case "report":
		cmdReport(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `trrename - sort broker PDFs by renaming them in place

usage:
  trrename run    <folder> [-dry-run] [-recursive] [-journal db] [-config file]
  trrename watch  <folder> [-interval d] [-debounce d] [-dry-run] [-recursive] [-journal db]
  trrename report [-run id] [-csv file] [-limit n] [-journal db] [-config file]
  trrename serve  [-listen addr] [-journal db] [-config file]

run     Classifies every PDF under <folder> and renames it to
        yyyy_mm_dd_Typ_ISIN_Asset.pdf. -dry-run previews without
        touching any file; the journal records the run either way.
watch   Runs a batch over <folder>, then keeps watching it and renames
        new PDFs as they land. Stop with Ctrl-C.
report  Prints run history from the journal. -run selects one run's
        outcomes, -csv exports them (use - for stdout).
serve   Serves the journal as a read-only JSON API.
`)
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "trrename.yaml", "path to config file")
	journalPath := fs.String("journal", "", "journal database path (overrides config)")
	dryRun := fs.Bool("dry-run", false, "resolve every rename without touching files")
	recursive := fs.Bool("recursive", false, "descend into subdirectories")
	maxFileMB := fs.Int("max-file-mb", 0, "per-file size cap in MiB (overrides config)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if fs.NArg() > 0 {
		cfg.Root = fs.Arg(0)
	}
	if cfg.Root == "" {
		fmt.Fprintln(os.Stderr, "run requires a folder")
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *recursive {
		cfg.Recursive = true
	}
	if *journalPath != "" {
		cfg.JournalPath = *journalPath
	}
	if *maxFileMB > 0 {
		cfg.MaxFileMB = *maxFileMB
	}

	logger := newLogger(cfg)
	jnl := openJournal(cfg, logger)
	defer jnl.Close()

	p, err := pipeline.New(pipeline.Config{
		Root:        cfg.Root,
		Recursive:   cfg.Recursive,
		DryRun:      cfg.DryRun,
		MaxFileSize: cfg.MaxFileBytes(),
		Rules:       cfg.Rules,
		Journal:     jnl,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("trrename: setup", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := p.Run(ctx)
	if sum != nil {
		printSummary(sum)
	}
	if err != nil {
		logger.Error("trrename: run aborted", "error", err)
		os.Exit(1)
	}
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "trrename.yaml", "path to config file")
	journalPath := fs.String("journal", "", "journal database path (overrides config)")
	dryRun := fs.Bool("dry-run", false, "resolve every rename without touching files")
	recursive := fs.Bool("recursive", false, "descend into subdirectories")
	maxFileMB := fs.Int("max-file-mb", 0, "per-file size cap in MiB (overrides config)")
	interval := fs.Duration("interval", 0, "poll interval (default 2s)")
	debounce := fs.Duration("debounce", 0, "quiet period before a batch fires (default 1s)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if fs.NArg() > 0 {
		cfg.Root = fs.Arg(0)
	}
	if cfg.Root == "" {
		fmt.Fprintln(os.Stderr, "watch requires a folder")
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *recursive {
		cfg.Recursive = true
	}
	if *journalPath != "" {
		cfg.JournalPath = *journalPath
	}
	if *maxFileMB > 0 {
		cfg.MaxFileMB = *maxFileMB
	}

	logger := newLogger(cfg)
	jnl := openJournal(cfg, logger)
	defer jnl.Close()

	w, err := pipeline.NewWatcher(pipeline.Config{
		Root:        cfg.Root,
		Recursive:   cfg.Recursive,
		DryRun:      cfg.DryRun,
		MaxFileSize: cfg.MaxFileBytes(),
		Rules:       cfg.Rules,
		Journal:     jnl,
		Logger:      logger,
	}, pipeline.WatchOptions{
		Interval: *interval,
		Debounce: *debounce,
	})
	if err != nil {
		logger.Error("trrename: setup", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil {
		logger.Error("trrename: watch aborted", "error", err)
		os.Exit(1)
	}
}

// printSummary writes the per-file outcomes and the run totals to
// stdout. Per-file failures are part of a completed run, not an error
// exit.
func printSummary(sum *pipeline.Summary) {
	for _, o := range sum.Outcomes {
		if o.Status == pipeline.StatusRenamed {
			fmt.Printf("%s -> %s\n", o.Path, o.NewName)
			continue
		}
		line := fmt.Sprintf("%s: %s", o.Path, o.Status)
		if o.Detail != "" {
			line += " (" + o.Detail + ")"
		}
		fmt.Println(line)
	}
	verb := "renamed"
	if sum.DryRun {
		verb = "would rename"
	}
	fmt.Printf("run %s: %d files, %s %d, skipped %d, failed %d\n",
		sum.RunID, sum.Total(), verb, sum.Renamed, sum.Skipped, sum.Failed)
}

func cmdReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "trrename.yaml", "path to config file")
	journalPath := fs.String("journal", "", "journal database path (overrides config)")
	runID := fs.String("run", "", "show one run's outcomes")
	csvPath := fs.String("csv", "", "write the outcomes as CSV (- for stdout)")
	limit := fs.Int("limit", 20, "maximum runs to list")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *journalPath != "" {
		cfg.JournalPath = *journalPath
	}

	jnl := openJournal(cfg, newLogger(cfg))
	defer jnl.Close()

	ctx := context.Background()

	if *runID == "" {
		runs, err := jnl.Runs(ctx, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "report: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return
		}
		for _, r := range runs {
			mode := ""
			if r.DryRun {
				mode = "  (dry run)"
			}
			fmt.Printf("%s  %s  total %d, renamed %d, skipped %d, failed %d%s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Total, r.Renamed, r.Skipped, r.Failed, mode)
		}
		return
	}

	run, err := jnl.GetRun(ctx, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
	outs, err := jnl.Outcomes(ctx, run.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}

	if *csvPath != "" {
		if err := writeCSVFile(*csvPath, outs); err != nil {
			fmt.Fprintf(os.Stderr, "report: csv: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for _, o := range outs {
		if o.Status == "renamed" {
			fmt.Printf("%s -> %s\n", o.Path, o.NewName)
			continue
		}
		line := fmt.Sprintf("%s: %s", o.Path, o.Status)
		if o.Detail != "" {
			line += " (" + o.Detail + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("run %s: total %d, renamed %d, skipped %d, failed %d\n",
		run.ID, run.Total, run.Renamed, run.Skipped, run.Failed)
}

func writeCSVFile(path string, outs []journal.Outcome) error {
	rows := report.Rows(outs)
	if path == "-" {
		return report.WriteCSV(os.Stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "trrename.yaml", "path to config file")
	journalPath := fs.String("journal", "", "journal database path (overrides config)")
	listen := fs.String("listen", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *journalPath != "" {
		cfg.JournalPath = *journalPath
	}
	if *listen != "" {
		cfg.Report.Listen = *listen
	}

	logger := newLogger(cfg)
	jnl := openJournal(cfg, logger)
	defer jnl.Close()

	srv, err := report.NewServer(jnl, report.Config{
		Addr:     cfg.Report.Listen,
		Username: cfg.Report.Username,
		Password: cfg.Report.Password,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("trrename: serve setup", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("trrename: serve", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// openJournal opens the journal, routing SQL statement logs through
// logger when debug logging is on.
func openJournal(cfg *config.Config, logger *slog.Logger) *journal.Journal {
	var opts []dbopen.Option
	if cfg.SlogLevel() == slog.LevelDebug {
		sqllog.SetLogger(logger)
		opts = append(opts, dbopen.WithStatementLog())
	}
	jnl, err := journal.Open(cfg.JournalPath, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
		os.Exit(1)
	}
	return jnl
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
