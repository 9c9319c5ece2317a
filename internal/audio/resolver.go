// Package audio locates playable sound resources among ordered candidate
// paths, falling back to the next candidate when one fails to load.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vowel-quiz/internal/logger"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by Handle.Load when the resource does not exist.
	// It is distinct from a playback start failure.
	ErrNotFound = errors.New("audio: resource not found")

	// ErrExhausted means no candidate could be loaded.
	ErrExhausted = errors.New("audio: no playable candidate")

	// ErrSuperseded means a newer Play call took over the handle.
	ErrSuperseded = errors.New("audio: attempt superseded")
)

// Handle is a reusable playback handle.
type Handle interface {
	// Load points the handle at src and waits until it is playable.
	// A missing resource yields ErrNotFound.
	Load(ctx context.Context, src string) error
	// Start begins playback of the loaded resource.
	Start(ctx context.Context) error
}

// HandleFactory creates the resolver's handle on first use.
type HandleFactory func() Handle

// Resolver plays the first loadable candidate through a single lazily
// created handle. Each Play supersedes the previous one: the earlier attempt
// is cancelled and anything it observes afterwards is ignored.
type Resolver struct {
	newHandle HandleFactory

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool

	// handleMu serializes use of the shared handle between attempts.
	handleMu sync.Mutex
	handle   Handle

	wg sync.WaitGroup
}

// NewResolver creates a resolver. The handle is not created until the first Play.
func NewResolver(factory HandleFactory) *Resolver {
	return &Resolver{newHandle: factory}
}

// Play starts a fire-and-forget attempt over candidates. Failures are
// logged and never surfaced.
func (r *Resolver) Play(candidates []string) {
	ctx, gen, ok := r.begin()
	if !ok {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		src, err := r.attempt(ctx, gen, candidates)
		switch {
		case err == nil:
			logger.Get().Debug("audio playback started", zap.String("src", src))
		case errors.Is(err, ErrSuperseded):
			logger.Get().Debug("audio attempt superseded", zap.Strings("candidates", candidates))
		default:
			logger.Get().Debug("audio fallback exhausted", zap.Strings("candidates", candidates), zap.Error(err))
		}
	}()
}

// Wait blocks until every in-flight attempt has finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels any in-flight attempt and waits for it. Later Play calls are ignored.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	r.mu.Unlock()
	r.wg.Wait()
}

// Stop cancels the in-flight attempt, if any. Unlike Close, later Play calls
// still run.
func (r *Resolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
}

func (r *Resolver) begin() (context.Context, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, 0, false
	}
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.gen++
	return ctx, r.gen, true
}

func (r *Resolver) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen == gen
}

func (r *Resolver) attempt(ctx context.Context, gen uint64, candidates []string) (string, error) {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()

	if r.handle == nil {
		r.handle = r.newHandle()
	}
	h := r.handle

	var lastErr error
	for _, src := range candidates {
		if ctx.Err() != nil || !r.current(gen) {
			return "", ErrSuperseded
		}
		err := h.Load(ctx, src)
		if err != nil {
			if ctx.Err() != nil || !r.current(gen) {
				return "", ErrSuperseded
			}
			logger.Get().Debug("audio candidate failed to load", zap.String("src", src), zap.Error(err))
			lastErr = err
			continue
		}
		if !r.current(gen) {
			return "", ErrSuperseded
		}
		if err := h.Start(ctx); err != nil {
			logger.Get().Debug("audio playback start rejected", zap.String("src", src), zap.Error(err))
		}
		return src, nil
	}
	if lastErr == nil {
		return "", ErrExhausted
	}
	return "", fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}
