// Command promo-ingest bulk-loads promo codes for a tenant from gzipped
// export files. Each line is "CODE,discount_type,value[,usage_limit]".
// Files are parsed concurrently; a bloom filter drops duplicate codes across
// files before they reach the database.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dukahub/dukapos/internal/domain/promo"
	"github.com/dukahub/dukapos/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	minCodeLen    = 4
	maxCodeLen    = 32
	progressEvery = 100_000
)

func main() {
	var (
		databaseURL string
		tenantID    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&tenantID, "tenant", "", "tenant ID to attach the codes to")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if tenantID == "" {
		slog.Error("tenant ID is required: set --tenant")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no input files: pass one or more .gz exports as arguments")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, tenantID, files); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, databaseURL, tenantID string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Parse all files concurrently, deduplicating through a shared filter.
	// The filter may drop a rare non-duplicate (false positive); the unique
	// index on (tenant_id, code) is the hard guarantee.
	dedup := newDedup()
	codes := make(chan promo.Code, 1024)

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(parseFile(gctx, f, tenantID, dedup, codes))
	}
	go func() {
		_ = g.Wait()
		close(codes)
	}()

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	promos := repository.NewPromoRepository(pool)

	var written int
	for c := range codes {
		if err := promos.Create(ctx, c); err != nil {
			return errors.Wrapf(err, "insert promo %s", c.Code)
		}
		written++
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Int("written", written))
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("promo codes written", slog.Int("count", written))
	return nil
}

// dedup is a concurrency-safe bloom filter over code strings.
type dedup struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

func newDedup() *dedup {
	return &dedup{filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR)}
}

// seen reports whether code was probably added before, adding it as a side
// effect.
func (d *dedup) seen(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter.TestAndAddString(code)
}

func parseFile(ctx context.Context, path, tenantID string, dedup *dedup, out chan<- promo.Code) func() error {
	return func() error {
		var count uint64
		err := streamGzFile(ctx, path, func(line string) error {
			c, ok := parseLine(line, tenantID)
			if !ok {
				return nil
			}
			if dedup.seen(c.Code) {
				return nil
			}
			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress", slog.String("file", path), slog.Uint64("codes", count))
			}
			select {
			case out <- c:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}

		slog.Info("file parsed", slog.String("file", path), slog.Uint64("codes", count))
		return nil
	}
}

// parseLine decodes "CODE,discount_type,value[,usage_limit]". Malformed
// lines are skipped rather than failing the run.
func parseLine(line, tenantID string) (promo.Code, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 3 {
		return promo.Code{}, false
	}

	code := strings.ToUpper(strings.TrimSpace(fields[0]))
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return promo.Code{}, false
	}

	var discountType promo.DiscountType
	switch strings.TrimSpace(fields[1]) {
	case "percentage":
		discountType = promo.DiscountPercentage
	case "fixed":
		discountType = promo.DiscountFixed
	default:
		return promo.Code{}, false
	}

	value, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil || !value.IsPositive() {
		return promo.Code{}, false
	}

	usageLimit := 0
	if len(fields) >= 4 {
		usageLimit, err = strconv.Atoi(strings.TrimSpace(fields[3]))
		if err != nil || usageLimit < 0 {
			return promo.Code{}, false
		}
	}

	return promo.Code{
		ID:            newCodeID(tenantID, code),
		TenantID:      tenantID,
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: value,
		Active:        true,
		UsageLimit:    usageLimit,
	}, true
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
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
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

// newCodeID derives a stable UUID from the tenant and code so re-running an
// ingest cannot create duplicate rows under a different ID.
func newCodeID(tenantID, code string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(tenantID+"/"+code)).String()
}
