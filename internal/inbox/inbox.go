// Package inbox ingests signal batch files dropped into a directory.
//
// Each .json/.yaml file holds one signal.Batch. Successfully ingested files
// are archived under .processed/ (or deleted), files that fail validation are
// moved to .failed/ next to a .error note, and files that fail for any other
// reason stay in place. The watcher retries them on a fixed interval.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/metrics"
	"github.com/starford/subtaste/internal/parser"
	"github.com/starford/subtaste/internal/signal"
	"github.com/starford/subtaste/internal/storage"
)

const (
	ProcessedDir = ".processed"
	FailedDir    = ".failed"
)

// DefaultRetryInterval is how often the watcher retries files whose ingest
// failed transiently.
const DefaultRetryInterval = 30 * time.Second

// Result kinds passed to EventCallback.
const (
	ResultIngested = "ingested"
	ResultFailed   = "failed"
	ResultRetry    = "retry"
)

// Ingester applies a batch to the genome store.
type Ingester interface {
	Ingest(ctx context.Context, b signal.Batch) (genomeservice.Change, error)
}

// EventCallback is called after each processed file with one of the Result
// kinds.
type EventCallback func(kind string, path string)

// Processor moves batch files from the inbox into the genome service.
type Processor struct {
	store         storage.Provider
	ingester      Ingester
	logger        *slog.Logger
	metrics       *metrics.Recorder
	cb            EventCallback
	keepProcessed bool
	retryInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	retries map[string]struct{}
}

type Option func(*Processor)

func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Processor) { p.metrics = r }
}

func WithCallback(cb EventCallback) Option {
	return func(p *Processor) { p.cb = cb }
}

// WithKeepProcessed controls whether ingested files are archived (true, the
// default) or deleted.
func WithKeepProcessed(keep bool) Option {
	return func(p *Processor) { p.keepProcessed = keep }
}

// WithRetryInterval sets how often Watch retries failed files. Values of
// zero or less keep the default.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.retryInterval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New creates a Processor.
func New(store storage.Provider, ing Ingester, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		store:         store,
		ingester:      ing,
		logger:        logger,
		keepProcessed: true,
		retryInterval: DefaultRetryInterval,
		now:           func() time.Time { return time.Now().UTC() },
		retries:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sync processes every batch file currently in the inbox.
func (p *Processor) Sync(ctx context.Context) error {
	metas, err := p.store.List("")
	if err != nil {
		return err
	}
	for _, m := range metas {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = p.Process(ctx, m.Path)
	}
	return nil
}

// Process ingests one file. The returned error is informational; the file
// has already been archived, quarantined or left for retry.
func (p *Processor) Process(ctx context.Context, path string) error {
	data, err := p.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.settle(path)
		}
		p.logger.Warn("inbox: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return err
	}

	res, err := parser.Parse(path, data, p.now())
	if err == nil {
		var change genomeservice.Change
		change, err = p.ingester.Ingest(ctx, res.Batch)
		if err == nil {
			p.settle(path)
			p.archive(path)
			p.metrics.InboxBatch("ok")
			p.logger.Info("inbox: ingested",
				slog.String("path", path),
				slog.String("owner", res.Batch.UserID),
				slog.String("batch", res.Batch.BatchID),
				slog.Int("signals", len(res.Batch.Signals)),
				slog.Int("version", change.Genome.Version),
			)
			p.notify(ResultIngested, path)
			return nil
		}
	}

	if errors.Is(err, apperr.ErrValidation) {
		p.settle(path)
		p.quarantine(path, err)
		p.metrics.InboxBatch("failed")
		p.logger.Warn("inbox: rejected", slog.String("path", path), slog.String("error", err.Error()))
		p.notify(ResultFailed, path)
		return err
	}

	p.mu.Lock()
	p.retries[path] = struct{}{}
	p.mu.Unlock()
	p.metrics.InboxBatch("retry")
	p.logger.Warn("inbox: ingest failed, will retry", slog.String("path", path), slog.String("error", err.Error()))
	p.notify(ResultRetry, path)
	return err
}

// Pending returns the files waiting for a retry, sorted.
func (p *Processor) Pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.retries))
	for path := range p.retries {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Retry processes every pending file again. Files that vanished in the
// meantime are forgotten.
func (p *Processor) Retry(ctx context.Context) {
	for _, path := range p.Pending() {
		if ctx.Err() != nil {
			return
		}
		_ = p.Process(ctx, path)
	}
}

func (p *Processor) settle(path string) {
	p.mu.Lock()
	delete(p.retries, path)
	p.mu.Unlock()
}

func (p *Processor) archive(path string) {
	var err error
	if p.keepProcessed {
		err = p.store.Move(path, filepath.Join(ProcessedDir, path))
	} else {
		err = p.store.Delete(path)
	}
	if err != nil {
		p.logger.Error("inbox: archive failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (p *Processor) quarantine(path string, cause error) {
	dest := filepath.Join(FailedDir, path)
	if err := p.store.Move(path, dest); err != nil {
		p.logger.Error("inbox: quarantine failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	note := fmt.Sprintf("%s\n%s\n", p.now().Format(time.RFC3339), cause)
	if err := p.store.Write(dest+".error", []byte(note)); err != nil {
		p.logger.Warn("inbox: write error note failed", slog.String("path", dest), slog.String("error", err.Error()))
	}
}

func (p *Processor) notify(kind, path string) {
	if p.cb != nil {
		p.cb(kind, path)
	}
}
