// Command store-check audits the store document and optionally writes a
// compressed backup of it. It exits non-zero when violations are found.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/botica/internal/app"
	"github.com/xenking/botica/internal/integrity"
	"github.com/xenking/botica/internal/storage/file"
)

var errViolations = errors.New("store has integrity violations")

func main() {
	var (
		store  app.StoreConfig
		backup string
	)
	store.BindFlags(flag.CommandLine, os.Getenv)
	flag.StringVar(&backup, "backup", "", "write the loaded document to this path before checking (.gz to compress)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, store, backup); err != nil {
		lg.Error("Store check failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Store check passed")
}

func run(ctx context.Context, lg *zap.Logger, store app.StoreConfig, backup string) error {
	if err := store.Validate(); err != nil {
		return err
	}
	backend, closeStore, err := app.OpenExistingStore(ctx, lg, store)
	if err != nil {
		return err
	}
	defer closeStore()

	doc, err := backend.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load document")
	}
	lg.Info("Loaded document",
		zap.Int("users", len(doc.Users)),
		zap.Int("products", len(doc.Products)),
		zap.Int("orders", len(doc.Orders)),
		zap.Int("contacts", len(doc.Contacts)),
	)

	if backup != "" {
		if err := file.New(backup).Save(ctx, doc); err != nil {
			return errors.Wrap(err, "write backup")
		}
		lg.Info("Backup written", zap.String("path", backup))
	}

	report, err := integrity.Run(ctx, doc, integrity.DefaultChecks()...)
	if err != nil {
		return err
	}
	for _, f := range report.Findings {
		fields := []zap.Field{
			zap.String("check", f.Check),
			zap.String("subject", f.Subject),
			zap.String("detail", f.Detail),
		}
		if f.Severity == integrity.Violation {
			lg.Warn("Violation", fields...)
			continue
		}
		lg.Info("Notice", fields...)
	}

	if n := report.Violations(); n > 0 {
		return errors.Wrapf(errViolations, "%d found", n)
	}
	return nil
}
