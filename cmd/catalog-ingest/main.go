// Command catalog-ingest imports distributor catalog dumps into the book
// table. Dumps are gzip-compressed JSON Lines files, one book per line, and
// may repeat titles across files. Files are streamed concurrently; a bloom
// filter keyed by ISBN drops duplicates without holding every seen ISBN in
// memory, so multi-gigabyte dumps stay cheap to ingest.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pageturn/bookshop-pos/internal/domain/book"
	"github.com/pageturn/bookshop-pos/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

type dumpRecord struct {
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	ISBN     string          `json:"isbn"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz catalog dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "list dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := repository.NewBookRepository(pool)
	records := make(chan dumpRecord, 1024)

	g, ctx := errgroup.WithContext(ctx)

	// Readers: one goroutine per dump file.
	readers, readerCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		readers.Go(streamDumpFile(readerCtx, f, records))
	}
	g.Go(func() error {
		defer close(records)
		return readers.Wait()
	})

	// Single writer: bloom dedup keeps the first record per ISBN and
	// serializes database writes.
	g.Go(func() error {
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var written, skipped uint64

		for rec := range records {
			if rec.ISBN != "" && seen.TestOrAddString(rec.ISBN) {
				skipped++
				continue
			}

			if err := repo.Upsert(ctx, book.Book{
				Title:    rec.Title,
				Author:   rec.Author,
				ISBN:     rec.ISBN,
				Price:    rec.Price,
				Stock:    rec.Stock,
				Category: rec.Category,
			}); err != nil {
				return errors.Wrapf(err, "upsert %q", rec.ISBN)
			}

			written++
			if written%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.Uint64("written", written),
					slog.Uint64("skipped", skipped),
				)
			}
		}

		slog.Info("ingest complete",
			slog.Uint64("written", written),
			slog.Uint64("skipped", skipped),
		)
		return nil
	})

	return g.Wait()
}

// streamDumpFile decodes one gzip-compressed JSON Lines file and sends each
// record downstream. Blank lines are skipped; a malformed line aborts the
// whole ingest so a truncated dump is never half-imported silently.
func streamDumpFile(ctx context.Context, path string, out chan<- dumpRecord) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var line uint64
		for scanner.Scan() {
			line++
			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}

			var rec dumpRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return errors.Wrapf(err, "parse %s line %d", path, line)
			}

			select {
			case out <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("dump file read", slog.String("path", path), slog.Uint64("lines", line))
		return nil
	}
}
