package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/goliatone/go-md2confluence/cmd/md2confluence/internal/bootstrap"
	publishcmd "github.com/goliatone/go-md2confluence/internal/commands/publish"
	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/internal/publisher"
	"github.com/goliatone/go-md2confluence/internal/runtimeconfig"
)

var (
	moduleBuilder = bootstrap.BuildModule
	envLookup     = os.LookupEnv
	loadEnvFiles  = bootstrap.LoadEnvFiles
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		log.Fatalf("md2confluence: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("md2confluence", flag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "Path to a .env file loaded before reading the environment")
	baseDir := fs.String("base-dir", "", "Markdown root directory (overrides BASE_DIR)")
	imageDir := fs.String("image-dir", "", "Image root directory (overrides IMAGE_DIR, defaults to the base directory)")
	space := fs.String("space", "", "Target space key (overrides SPACE_KEY)")
	representation := fs.String("representation", "", "Body representation: wiki or storage (overrides REPRESENTATION)")
	logLevel := fs.String("log-level", "", "Log level (overrides LOG_LEVEL)")
	dryRun := fs.Bool("dry-run", false, "Convert and log without calling the remote service")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: md2confluence [flags] [file.md]\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("expected at most one markdown file, got %d arguments", fs.NArg())
	}

	if err := loadEnvFiles(*envFile); err != nil {
		return err
	}
	cfg, err := runtimeconfig.FromEnv(envLookup)
	if err != nil {
		return err
	}
	applyFlag(&cfg.Markdown.BaseDir, *baseDir)
	applyFlag(&cfg.Markdown.ImageDir, *imageDir)
	applyFlag(&cfg.Confluence.SpaceKey, *space)
	applyFlag(&cfg.Markdown.Representation, strings.ToLower(*representation))
	applyFlag(&cfg.Logging.Level, *logLevel)
	if *dryRun {
		cfg.Publish.DryRun = true
	}

	module, err := moduleBuilder(bootstrap.Options{Config: cfg})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Module == nil {
		return errors.New("module not configured")
	}

	runID := uuid.NewString()
	ctx = logging.ContextWithFields(ctx, map[string]any{"run_id": runID})
	logger := module.Logger.WithContext(ctx)
	logger.Info("md2confluence.run.start",
		"base_dir", cfg.Markdown.BaseDir,
		"space", cfg.Confluence.SpaceKey,
		"dry_run", cfg.Publish.DryRun,
	)

	var summary publisher.RunSummary
	collect := func(s publisher.RunSummary) { summary = s }

	if file := fs.Arg(0); file != "" {
		err = module.Module.PublishFileHandler().Execute(ctx, publishcmd.PublishFileCommand{
			Path:           file,
			ResultCallback: collect,
		})
	} else {
		err = module.Module.PublishDirectoryHandler().Execute(ctx, publishcmd.PublishDirectoryCommand{
			Directory:      ".",
			ResultCallback: collect,
		})
	}

	printSummary(stdout, summary)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func applyFlag(target *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*target = trimmed
	}
}

func printSummary(w io.Writer, summary publisher.RunSummary) {
	fmt.Fprintf(w, "documents: %d created: %d updated: %d dry-run: %d failed: %d warnings: %d\n",
		summary.Total, summary.Created, summary.Updated, summary.DryRun, summary.Failed, summary.Warnings)
	for _, res := range summary.Results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, "FAIL %s: %v\n", res.FilePath, res.Err)
		case res.Result != nil && res.Result.URL != "":
			fmt.Fprintf(w, "ok   %s -> %s\n", res.FilePath, res.Result.URL)
		default:
			fmt.Fprintf(w, "ok   %s\n", res.FilePath)
		}
		if res.Result == nil {
			continue
		}
		for _, warning := range res.Result.Warnings {
			fmt.Fprintf(w, "     warning: %s\n", warning)
		}
		if res.Result.LabelError != nil {
			fmt.Fprintf(w, "     warning: labels: %v\n", res.Result.LabelError)
		}
	}
}
