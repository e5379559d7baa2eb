package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/fpang/creatia/internal/imagegen"
	"github.com/fpang/creatia/internal/metrics"
)

// DefaultPoolSize bounds the number of remote calls in flight across all
// batches handled by one Service.
const DefaultPoolSize = MaxCount

// Service runs batches against one Generator. It is safe for concurrent use;
// every batch shares the same bounded pool of remote call slots.
type Service struct {
	gen         imagegen.Generator
	pool        *semaphore.Weighted
	poolSize    int
	jpegQuality int
	mirror      Mirror
	sinkFor     func(Request) ImageSink
	metricsNS   string
}

// Option configures a Service.
type Option func(*Service)

// WithPoolSize sets the number of concurrent remote calls (default 10).
func WithPoolSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.poolSize = n
		}
	}
}

// WithJPEGQuality sets the encoder quality for jpeg output (default 95).
func WithJPEGQuality(q int) Option {
	return func(s *Service) {
		if q > 0 && q <= 100 {
			s.jpegQuality = q
		}
	}
}

// WithMirror uploads every persisted image to secondary storage.
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithSink replaces the disk sink built for requests with a save directory.
func WithSink(f func(Request) ImageSink) Option {
	return func(s *Service) { s.sinkFor = f }
}

// WithMetrics emits one EMF document per batch under the given namespace.
func WithMetrics(namespace string) Option {
	return func(s *Service) { s.metricsNS = namespace }
}

// NewService creates a Service around an injected Generator.
func NewService(gen imagegen.Generator, opts ...Option) *Service {
	s := &Service{
		gen:         gen,
		poolSize:    DefaultPoolSize,
		jpegQuality: DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pool = semaphore.NewWeighted(int64(s.poolSize))
	if s.sinkFor == nil {
		s.sinkFor = s.diskSink
	}
	return s
}

// Provider returns the name of the underlying generator.
func (s *Service) Provider() string {
	return s.gen.Name()
}

func (s *Service) diskSink(req Request) ImageSink {
	sink := NewDiskSink(req.SaveDirectory, req.FilenamePrefix, req.OutputFormat)
	sink.JPEGQuality = s.jpegQuality
	sink.Mirror = s.mirror
	return sink
}

// Generate validates the request, runs req.Count tasks concurrently, waits
// for all of them and returns the aggregated report. Only an
// *InvalidArgumentError is ever returned; per-task failures are reported in
// the Report. Once dispatched, tasks are not cancelled by ctx.
func (s *Service) Generate(ctx context.Context, req Request) (*Report, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if fc, ok := s.gen.(imagegen.FormatChecker); ok && req.SaveDirectory != "" && !fc.SupportsFormat(req.OutputFormat) {
		return nil, invalidf("provider %s cannot save %s images", s.gen.Name(), req.OutputFormat)
	}

	var refs []imagegen.Reference
	if len(req.ReferenceImages) > 0 {
		loaded, err := imagegen.LoadReferences(req.ReferenceImages)
		if err != nil {
			return nil, &InvalidArgumentError{Reason: err.Error()}
		}
		refs = loaded
	}

	ctx = context.WithoutCancel(ctx)

	log.Info().
		Str("provider", s.gen.Name()).
		Str("mode", req.Mode()).
		Int("count", req.Count).
		Str("quality", req.Quality).
		Str("size", req.Size).
		Str("format", req.OutputFormat).
		Bool("save", req.SaveDirectory != "").
		Msg("Batch dispatched")

	start := time.Now()
	outcomes := s.dispatch(ctx, req, refs)

	var sink ImageSink
	if req.SaveDirectory != "" {
		sink = s.sinkFor(req)
	}
	report := Aggregate(ctx, outcomes, sink)
	elapsed := time.Since(start)

	log.Info().
		Str("provider", s.gen.Name()).
		Int("requested", report.TotalRequested).
		Int("successful", report.TotalSuccessful).
		Int("failed", report.TotalFailed).
		Dur("duration", elapsed).
		Msg("Batch complete")

	if s.metricsNS != "" {
		metrics.New(s.metricsNS).
			Dimension("Provider", s.gen.Name()).
			Dimension("Operation", req.Mode()).
			Metric("BatchRequested", float64(report.TotalRequested), metrics.UnitCount).
			Metric("BatchSuccessful", float64(report.TotalSuccessful), metrics.UnitCount).
			Metric("BatchFailed", float64(report.TotalFailed), metrics.UnitCount).
			Metric("BatchLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
			Property("format", req.OutputFormat).
			Flush()
	}

	return report, nil
}

// dispatch launches one goroutine per task and blocks until every task has
// settled. Each task writes only its own slot of the outcome slice.
func (s *Service) dispatch(ctx context.Context, req Request, refs []imagegen.Reference) []Outcome {
	params := imagegen.Params{
		Prompt:       req.Prompt,
		Quality:      req.Quality,
		Size:         req.Size,
		OutputFormat: req.OutputFormat,
	}

	outcomes := make([]Outcome, req.Count)
	var wg sync.WaitGroup
	for i := 0; i < req.Count; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			outcomes[index] = s.runTask(ctx, index, params, refs)
		}(i)
	}
	wg.Wait()
	return outcomes
}

func (s *Service) runTask(ctx context.Context, index int, p imagegen.Params, refs []imagegen.Reference) (out Outcome) {
	if err := s.pool.Acquire(ctx, 1); err != nil {
		return Failed(index, fmt.Errorf("worker pool: %w", err))
	}
	defer s.pool.Release(1)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("index", index).Interface("panic", r).Msg("Remote call panicked")
			out = Failed(index, fmt.Errorf("remote call panicked: %v", r))
		}
	}()

	start := time.Now()
	img, err := s.callRemote(imagegen.WithTaskIndex(ctx, index), p, refs)
	if err != nil {
		log.Warn().Err(err).Int("index", index).Dur("duration", time.Since(start)).Msg("Task failed")
		return Failed(index, err)
	}
	if img == nil || img.B64JSON == "" {
		return Failed(index, imagegen.ErrEmptyResponse)
	}

	log.Debug().Int("index", index).Dur("duration", time.Since(start)).Msg("Task succeeded")
	return Succeeded(index, img)
}

// callRemote issues exactly one remote call: an edit when reference images
// are present, a plain generation otherwise.
func (s *Service) callRemote(ctx context.Context, p imagegen.Params, refs []imagegen.Reference) (*imagegen.Image, error) {
	if len(refs) == 0 {
		return s.gen.Generate(ctx, p)
	}
	return s.gen.Edit(ctx, p, refs)
}
