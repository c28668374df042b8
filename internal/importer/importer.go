// Package importer replays archived order submissions into the order
// service. Archives are gzip-compressed JSON Lines files where every line is
// a POST /api/orders body.
package importer

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartmenu/order-intake/internal/domain/order"
	"github.com/smartmenu/order-intake/internal/handler"
)

const maxLineBytes = 1 << 20

// Submitter accepts order submissions.
type Submitter interface {
	Submit(ctx context.Context, sub order.Submission) (*order.Order, error)
}

// Config tunes duplicate detection.
type Config struct {
	// ExpectedLines sizes the duplicate filter.
	ExpectedLines uint
	// FalsePositiveRate is the probability that a new line is taken for a
	// duplicate and skipped.
	FalsePositiveRate float64
}

// Stats summarizes an import run.
type Stats struct {
	Imported   int
	Rejected   int
	Malformed  int
	Duplicates int
}

// Importer streams archives into a Submitter.
type Importer struct {
	orders Submitter
	seen   *bloom.BloomFilter
}

// New creates an Importer.
func New(orders Submitter, cfg Config) *Importer {
	if cfg.ExpectedLines == 0 {
		cfg.ExpectedLines = 1_000_000
	}
	if cfg.FalsePositiveRate <= 0 {
		cfg.FalsePositiveRate = 0.0001
	}
	return &Importer{
		orders: orders,
		seen:   bloom.NewWithEstimates(cfg.ExpectedLines, cfg.FalsePositiveRate),
	}
}

// ImportFiles opens every path and imports it. Lines repeated across files
// are submitted once.
func (im *Importer) ImportFiles(ctx context.Context, paths ...string) (Stats, error) {
	readers := make([]namedReader, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll(readers)
			return Stats{}, errors.Wrapf(err, "open %s", p)
		}
		readers = append(readers, namedReader{name: p, r: f})
	}
	defer closeAll(readers)

	return im.run(ctx, readers)
}

// Import reads a single gzip stream.
func (im *Importer) Import(ctx context.Context, name string, r io.Reader) (Stats, error) {
	return im.run(ctx, []namedReader{{name: name, r: r}})
}

type namedReader struct {
	name string
	r    io.Reader
}

func closeAll(readers []namedReader) {
	for _, nr := range readers {
		if c, ok := nr.r.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

type line struct {
	source string
	number int
	data   []byte
}

// run streams lines in one goroutine and submits them in another, so
// decompression overlaps with database writes.
func (im *Importer) run(ctx context.Context, readers []namedReader) (Stats, error) {
	var stats Stats
	lines := make(chan line, 64)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(lines)
		for _, nr := range readers {
			if err := im.stream(ctx, nr, lines, &stats); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for l := range lines {
			im.submit(ctx, l, &stats)
		}
		return ctx.Err()
	})

	err := g.Wait()
	return stats, err
}

// stream writes only to stats.Duplicates; submit owns the other counters.
func (im *Importer) stream(ctx context.Context, nr namedReader, out chan<- line, stats *Stats) error {
	gz, err := pgzip.NewReader(nr.r)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", nr.name)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for scanner.Scan() {
		n++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		if im.seen.TestAndAdd(data) {
			zctx.From(ctx).Warn("Skip duplicate line",
				zap.String("source", nr.name),
				zap.Int("line", n),
				zap.ByteString("data", data),
			)
			stats.Duplicates++
			continue
		}

		l := line{source: nr.name, number: n, data: append([]byte(nil), data...)}
		select {
		case out <- l:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", nr.name)
	}
	return nil
}

func (im *Importer) submit(ctx context.Context, l line, stats *Stats) {
	lg := zctx.From(ctx).With(zap.String("source", l.source), zap.Int("line", l.number))

	sub, err := handler.DecodeSubmission(l.data)
	if err != nil {
		lg.Warn("Skip malformed line", zap.Error(err))
		stats.Malformed++
		return
	}

	o, err := im.orders.Submit(ctx, sub)
	if err != nil {
		if fields := order.FieldMessages(err); fields != nil {
			lg.Warn("Skip invalid order", zap.Any("fields", fields))
		} else {
			lg.Error("Submit order", zap.Error(err))
		}
		stats.Rejected++
		return
	}
	lg.Debug("Imported order", zap.Int64("order_id", o.ID))
	stats.Imported++
}
