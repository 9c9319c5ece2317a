// Package speech wraps a text-to-speech engine behind a memoized
// initialization and per-call voice options.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"vowel-quiz/internal/cache"
	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotLoaded is returned by engines asked to speak before initialization.
var ErrNotLoaded = errors.New("speech: engine not initialized")

// Options are the voice parameters of one Speak call.
type Options struct {
	Amplitude int
	Speed     int
	Pitch     int
	Variant   string
}

// DefaultOptions are used for any field a call does not override.
var DefaultOptions = Options{
	Amplitude: 100,
	Speed:     170,
	Pitch:     60,
	Variant:   "f1",
}

// Option overrides one voice parameter.
type Option func(*Options)

func WithAmplitude(v int) Option { return func(o *Options) { o.Amplitude = v } }
func WithSpeed(v int) Option     { return func(o *Options) { o.Speed = v } }
func WithPitch(v int) Option     { return func(o *Options) { o.Pitch = v } }
func WithVariant(v string) Option {
	return func(o *Options) { o.Variant = v }
}

// Engine is the speech library being wrapped.
type Engine interface {
	LoadConfig(ctx context.Context, path string) error
	LoadVoice(ctx context.Context, path string) error
	Synthesize(ctx context.Context, text string, opts Options) ([]byte, error)
}

// Config wires a Synthesizer.
type Config struct {
	ConfigPath string
	VoicePath  string
	Defaults   Options
	Cache      domain.Cache
	CacheTTL   time.Duration
	// Timeout bounds one shared synthesis run. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a synthesis run when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Synthesizer initializes its engine exactly once and caches synthesized audio.
type Synthesizer struct {
	engine Engine
	cfg    Config

	initOnce sync.Once
	initDone chan struct{}
	initErr  error

	group singleflight.Group
}

// NewSynthesizer creates a synthesizer. Zero-valued defaults fall back to DefaultOptions.
func NewSynthesizer(engine Engine, cfg Config) *Synthesizer {
	cfg.Defaults = merge(DefaultOptions, cfg.Defaults)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Synthesizer{
		engine:   engine,
		cfg:      cfg,
		initDone: make(chan struct{}),
	}
}

func merge(base, over Options) Options {
	if over.Amplitude != 0 {
		base.Amplitude = over.Amplitude
	}
	if over.Speed != 0 {
		base.Speed = over.Speed
	}
	if over.Pitch != 0 {
		base.Pitch = over.Pitch
	}
	if over.Variant != "" {
		base.Variant = over.Variant
	}
	return base
}

// Init loads the engine configuration and then the voice. The first call
// starts initialization; every call, concurrent or later, waits for that same
// outcome. A failure is remembered and returned to all callers.
func (s *Synthesizer) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		go func() {
			defer close(s.initDone)
			s.initErr = s.load()
		}()
	})
	select {
	case <-s.initDone:
		return s.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Synthesizer) load() error {
	ctx := context.Background()
	if err := s.engine.LoadConfig(ctx, s.cfg.ConfigPath); err != nil {
		logger.Get().Warn("speech config failed to load", zap.String("path", s.cfg.ConfigPath), zap.Error(err))
		return domain.NewSpeechUnavailableError(err)
	}
	if err := s.engine.LoadVoice(ctx, s.cfg.VoicePath); err != nil {
		logger.Get().Warn("speech voice failed to load", zap.String("path", s.cfg.VoicePath), zap.Error(err))
		return domain.NewSpeechUnavailableError(err)
	}
	logger.Get().Info("speech engine initialized", zap.String("voice", s.cfg.VoicePath))
	return nil
}

// Defaults returns the effective default options.
func (s *Synthesizer) Defaults() Options {
	return s.cfg.Defaults
}

// Speak synthesizes text with the defaults overridden by opts.
func (s *Synthesizer) Speak(ctx context.Context, text string, opts ...Option) ([]byte, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	o := s.cfg.Defaults
	for _, opt := range opts {
		opt(&o)
	}

	key := s.cacheKey(text, o)
	if s.cfg.Cache != nil {
		cached, err := s.cfg.Cache.Get(ctx, key)
		switch {
		case err == nil && cached != "":
			logger.Get().Debug("speech cache hit", zap.String("key", key))
			return []byte(cached), nil
		case err != nil && !errors.Is(err, domain.ErrCacheMiss):
			logger.Get().Warn("speech cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	// The run is shared by every caller with the same key, so it must not
	// inherit any single caller's cancellation.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()
		audio, err := s.engine.Synthesize(runCtx, text, o)
		if err != nil {
			return nil, domain.NewSpeechUnavailableError(err)
		}
		if s.cfg.Cache != nil {
			if err := s.cfg.Cache.Set(runCtx, key, string(audio), s.cfg.CacheTTL); err != nil {
				logger.Get().Warn("speech cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return audio, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Synthesizer) cacheKey(text string, o Options) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%d|%s|%s", o.Amplitude, o.Speed, o.Pitch, o.Variant, text)))
	return cache.GenerateCacheKey("speech", "audio", hex.EncodeToString(h[:16]))
}

// String renders options the way they appear in logs.
func (o Options) String() string {
	return "a=" + strconv.Itoa(o.Amplitude) + " s=" + strconv.Itoa(o.Speed) +
		" p=" + strconv.Itoa(o.Pitch) + " v=" + o.Variant
}
