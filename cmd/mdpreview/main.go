// Package main is the entry point for the mdpreview tool. It opens a
// markdown file, runs the preview engine over it, and reports which
// image references were materialized.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/mdpreview/internal/app"
	"github.com/dshills/mdpreview/internal/preview"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, file, settle, watch := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	if err := application.Open(file); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := application.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	if watch {
		// Keep running with live config reload until a signal arrives.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return 0
	}

	settleDown(application, settle)
	report(application)
	return 0
}

// settleDown waits for the initial scan and any remote downloads to
// finish, bounded by the settle timeout. Each completed download can
// schedule another scan, so the wait loops until the queue stays quiet.
func settleDown(application *app.Application, settle time.Duration) {
	queue := application.Queue()
	deadline := time.Now().Add(settle)

	for time.Now().Before(deadline) {
		queue.Sync()
		if queue.Pending() == 0 {
			// A debounce expiry or download completion may still be
			// on its way.
			time.Sleep(50 * time.Millisecond)
			if queue.Pending() == 0 {
				return
			}
		}
	}
}

// report prints one line per image reference with its preview outcome.
func report(application *app.Application) {
	doc := application.Document()
	engine := application.Engine()

	for i, b := range doc.Blocks() {
		if strings.TrimSpace(b.Text) != string(preview.Placeholder) {
			continue
		}
		img, ok := engine.CachedImage(b.ID)
		if !ok {
			fmt.Printf("line %d: preview pending\n", i+1)
			continue
		}
		bounds := img.Bounds()
		fmt.Printf("line %d: preview %dx%d\n", i+1, bounds.Dx(), bounds.Dy())
	}

	s := engine.Stats()
	fmt.Printf("scans=%d inserted=%d updated=%d removed=%d downloads=%d dropped=%d\n",
		s.Scans, s.ArtifactsInserted, s.ArtifactsUpdated, s.ArtifactsRemoved,
		s.DownloadsCompleted, s.DownloadsDropped)
}

func parseFlags() (app.Options, string, time.Duration, bool) {
	var opts app.Options
	var settle time.Duration
	var watch bool
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.DurationVar(&opts.Debounce, "debounce", 0, "Edit-quiet interval before a scan (overrides config)")
	flag.DurationVar(&settle, "settle", 30*time.Second, "How long to wait for scans and downloads")
	flag.BoolVar(&watch, "watch", false, "Keep running and reload config on change")
	flag.BoolVar(&watch, "w", false, "Keep running and reload config on change (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mdpreview - markdown image preview engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: mdpreview [options] <file.md>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mdpreview README.md               Preview once and report\n")
		fmt.Fprintf(os.Stderr, "  mdpreview -w -c cfg.toml doc.md   Run with live config reload\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("mdpreview %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
			// Valid
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	opts.WatchConfig = watch
	return opts, flag.Arg(0), settle, watch
}
