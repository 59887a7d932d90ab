// Package cli implements the command-line interface for ws-usage.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/kbase/workspace-usage/internal/logctx"
	"github.com/kbase/workspace-usage/pkg/aggregate"
	"github.com/kbase/workspace-usage/pkg/archive"
	"github.com/kbase/workspace-usage/pkg/logging"
	"github.com/kbase/workspace-usage/pkg/report"
	"github.com/kbase/workspace-usage/pkg/usagecfg"
	"github.com/kbase/workspace-usage/pkg/wsdb"
	"github.com/kbase/workspace-usage/pkg/wsindex"
)

// options holds the parsed command-line surface.
type options struct {
	configPath    string
	outDir        string
	latestOnly    bool
	pageSize      int64
	withParquet   bool
	archiveBucket string
	archivePrefix string
	storeMonths   bool
}

// Run executes the report job with the given arguments. All failures come
// back as errors; the caller decides the exit code.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ws-usage", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", usagecfg.DefaultPath,
		"path to the config file; by default a file called "+usagecfg.DefaultPath+" in the working directory")
	fs.StringVar(&opts.outDir, "output", "",
		"write JSON output to this directory, creating it if needed; if empty the report is computed but not persisted")
	fs.BoolVar(&opts.latestOnly, "latest-only", false,
		"count only the newest version of each object")
	fs.Int64Var(&opts.pageSize, "page-size", aggregate.DefaultPageSize,
		"width of the object-id range scanned per store query")
	fs.BoolVar(&opts.withParquet, "parquet", false,
		"also write the object listing as a Parquet file")
	fs.StringVar(&opts.archiveBucket, "archive-bucket", "",
		"S3 bucket to upload the report files to after writing")
	fs.StringVar(&opts.archivePrefix, "archive-prefix", "",
		"key prefix for archived report files")
	fs.BoolVar(&opts.storeMonths, "store-months", false,
		"insert the monthly summary into the target store")
	debug := fs.Bool("debug", false, "debug logging")
	pretty := fs.Bool("pretty", false, "human-friendly console logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.pageSize <= 0 {
		return fmt.Errorf("page-size must be positive, got %d", opts.pageSize)
	}
	if opts.withParquet && opts.outDir == "" {
		return errors.New("-parquet requires -output")
	}
	if opts.archivePrefix != "" && opts.archiveBucket == "" {
		return errors.New("-archive-prefix requires -archive-bucket")
	}
	if opts.archiveBucket != "" && opts.outDir == "" {
		return errors.New("-archive-bucket requires -output")
	}

	logging.Init(*debug, *pretty)
	ctx = logctx.WithLogger(ctx, *logging.L())

	if opts.outDir != "" {
		if err := report.EnsureOutputDir(opts.outDir); err != nil {
			return err
		}
	}

	cfg, err := usagecfg.Load(opts.configPath)
	if err != nil {
		return err
	}

	return run(ctx, cfg, opts)
}

// run is the setup-validated job body: index, aggregate, then persist.
func run(ctx context.Context, cfg *usagecfg.Config, opts options) error {
	log := logctx.FromContext(ctx)
	start := time.Now()

	store, err := wsdb.Connect(ctx, connectConfig(cfg.Source))
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	index, err := wsindex.Build(ctx, store)
	if err != nil {
		return err
	}

	res, err := aggregate.Run(ctx, store, index, aggregate.Config{
		PageSize:          opts.pageSize,
		LatestOnly:        opts.latestOnly,
		ExcludeWorkspaces: cfg.ExcludeWorkspaces,
		IncludeTypes:      cfg.IncludeTypes,
		ListTypes:         cfg.ListTypes,
	})
	if err != nil {
		return err
	}

	env := report.NewMonthlyEnvelope(res.Months)

	if opts.outDir != "" {
		if err := report.Write(ctx, opts.outDir, index, res, env); err != nil {
			return err
		}
		if opts.withParquet {
			path := opts.outDir + "/" + report.ObjectParquetFile
			if err := report.WriteObjectListParquet(path, res.Objects); err != nil {
				return err
			}
			log.Info().Str("file", report.ObjectParquetFile).Msg("object listing written as parquet")
		}
	} else {
		log.Info().Msg("no output directory given, results not persisted")
	}

	if opts.storeMonths {
		if err := publishMonths(ctx, cfg.Target, env); err != nil {
			return err
		}
	}

	if opts.archiveBucket != "" {
		if err := archiveReports(ctx, opts); err != nil {
			return err
		}
	}

	log.Info().
		Int("users", len(res.Users)).
		Int("workspaces", len(index)).
		Int("months", len(res.Months)).
		Int("listed_objects", len(res.Objects)).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")
	return nil
}

func publishMonths(ctx context.Context, target usagecfg.Mongo, env *report.MonthlyEnvelope) error {
	store, err := wsdb.Connect(ctx, connectConfig(target))
	if err != nil {
		return fmt.Errorf("target store: %w", err)
	}
	defer store.Close(context.Background())

	if err := store.InsertMonthlySummary(ctx, env); err != nil {
		return err
	}
	logger := logctx.FromContext(ctx)
	logger.Info().Msg("monthly summary published to target store")
	return nil
}

func archiveReports(ctx context.Context, opts options) error {
	up, err := archive.NewUploader(ctx)
	if err != nil {
		return err
	}
	names := []string{
		report.UserFile,
		report.WorkspaceFile,
		report.ObjectFile,
		report.MonthFile,
	}
	if opts.withParquet {
		names = append(names, report.ObjectParquetFile)
	}
	return up.UploadDir(ctx, opts.archiveBucket, opts.archivePrefix, opts.outDir, names)
}

func connectConfig(m usagecfg.Mongo) wsdb.ConnectConfig {
	return wsdb.ConnectConfig{
		Host: m.Host,
		Port: m.Port,
		DB:   m.DB,
		User: m.User,
		Pwd:  m.Pwd,
	}
}
