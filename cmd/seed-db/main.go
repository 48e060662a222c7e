// Command seed-db upserts catalog products from a JSON file into the store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/xenking/botica/internal/app"
	"github.com/xenking/botica/internal/domain/product"
	"github.com/xenking/botica/internal/storage"
)

func main() {
	var (
		store        app.StoreConfig
		productsFile string
	)
	store.BindFlags(flag.CommandLine, os.Getenv)
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.gz accepted)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, store, productsFile); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, store app.StoreConfig, productsFile string) error {
	if err := store.Validate(); err != nil {
		return err
	}

	lg.Info("Reading products", zap.String("path", productsFile))
	products, err := readProducts(productsFile)
	if err != nil {
		return err
	}

	backend, closeStore, err := app.OpenStore(ctx, lg, store)
	if err != nil {
		return err
	}
	defer closeStore()

	inserted, updated, err := storage.NewProductRepository(backend).Upsert(ctx, products)
	if err != nil {
		return errors.Wrap(err, "upsert products")
	}
	lg.Info("Upserted products",
		zap.Int("inserted", inserted),
		zap.Int("updated", updated),
	)
	return nil
}

// readProducts decodes a JSON product array, gunzipping paths ending in .gz.
func readProducts(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var products []product.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		switch {
		case strings.TrimSpace(p.ID) == "":
			return nil, errors.Errorf("product %d: missing id", i)
		case p.Price.IsNegative():
			return nil, errors.Errorf("product %s: negative price %s", p.ID, p.Price)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, errors.Errorf("product %s: listed twice", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return products, nil
}
