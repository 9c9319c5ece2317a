package service

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"vowel-quiz/internal/audio"
	"vowel-quiz/internal/catalog"
	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/dto"
	"vowel-quiz/internal/logger"
	"vowel-quiz/internal/quiz"
	"vowel-quiz/internal/util"

	"go.uber.org/zap"
)

// SessionService manages quiz sessions, one state machine per session.
type SessionService interface {
	Create(ctx context.Context) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	Answer(ctx context.Context, sessionID, label string) (*dto.AnswerResponse, error)
	PlayVowel(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	PlayWord(ctx context.Context, sessionID, word string) (*dto.SessionResponse, error)
	CurrentQuestionKey(ctx context.Context, sessionID string) (string, error)
	Close(ctx context.Context, sessionID string) error
	Run(ctx context.Context) error
}

// SessionConfig tunes a session service. Zero values select defaults.
type SessionConfig struct {
	AdvanceDelay time.Duration
	InitialKey   string
	IdleTTL      time.Duration
	VowelDir     string
	Extension    string
	AudioURLBase string

	Scheduler quiz.Scheduler
	Seed      int64
	Now       func() time.Time
	NewID     func() string
}

type session struct {
	id      string
	machine *quiz.Machine
	player  *audio.Resolver
	stop    func()

	mu         sync.Mutex
	nowPlaying string
	lastKey    string
	lastSeen   time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) currentKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKey
}

func (s *session) playing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nowPlaying
}

func (s *session) close() {
	s.stop()
	s.machine.Close()
	s.player.Close()
}

type sessionService struct {
	cat    *catalog.Catalog
	assets *audio.AssetStore
	cfg    SessionConfig

	mu       sync.Mutex
	sessions map[string]*session
	rng      *rand.Rand
}

// NewSessionService creates a session service over the catalog and asset store.
func NewSessionService(cat *catalog.Catalog, assets *audio.AssetStore, cfg SessionConfig) SessionService {
	if cfg.AdvanceDelay <= 0 {
		cfg.AdvanceDelay = quiz.DefaultAdvanceDelay
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.VowelDir == "" {
		cfg.VowelDir = "vowels"
	}
	if cfg.Extension == "" {
		cfg.Extension = ".mp3"
	}
	if cfg.AudioURLBase == "" {
		cfg.AudioURLBase = "/audio"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = util.NewULID
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &sessionService{
		cat:      cat,
		assets:   assets,
		cfg:      cfg,
		sessions: make(map[string]*session),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Create implements SessionService
func (s *sessionService) Create(ctx context.Context) (*dto.SessionResponse, error) {
	s.mu.Lock()
	rng := rand.New(rand.NewSource(s.rng.Int63()))
	s.mu.Unlock()

	machine, err := quiz.NewMachine(s.cat, quiz.Options{
		Delay:      s.cfg.AdvanceDelay,
		InitialKey: s.cfg.InitialKey,
		Rand:       rng,
		Scheduler:  s.cfg.Scheduler,
	})
	if err != nil {
		return nil, err
	}

	sess := &session{
		id:       s.cfg.NewID(),
		machine:  machine,
		lastSeen: s.cfg.Now(),
		lastKey:  machine.Snapshot().Question.Key,
	}
	sess.player = audio.NewResolver(func() audio.Handle {
		return audio.NewStoreHandle(s.assets, func(ctx context.Context, src string) error {
			sess.mu.Lock()
			defer sess.mu.Unlock()
			// A question change stops the attempt before clearing nowPlaying.
			if err := ctx.Err(); err != nil {
				return err
			}
			sess.nowPlaying = s.cfg.AudioURLBase + "/" + strings.TrimPrefix(src, "/")
			return nil
		})
	})
	// A new question silences whatever was playing for the previous one.
	sess.stop = machine.Subscribe(func(snap quiz.Snapshot) {
		if snap.Question.Key != sess.currentKey() {
			sess.player.Stop()
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if snap.Question.Key != sess.lastKey {
			sess.lastKey = snap.Question.Key
			sess.nowPlaying = ""
		}
	})

	s.mu.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	logger.Get().Info("Quiz session created", zap.String("session_id", sess.id), zap.Int("active_sessions", count))
	view := BuildView(sess.id, machine.Snapshot(), "")
	return &view, nil
}

func (s *sessionService) lookup(sessionID string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}
	sess.touch(s.cfg.Now())
	return sess, nil
}

// Get implements SessionService
func (s *sessionService) Get(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	view := BuildView(sess.id, sess.machine.Snapshot(), sess.playing())
	return &view, nil
}

// Answer implements SessionService
func (s *sessionService) Answer(ctx context.Context, sessionID, label string) (*dto.AnswerResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if !s.cat.IsChoice(label) {
		logger.Get().Warn("Answer outside the choice set, recording as wrong",
			zap.String("session_id", sessionID), zap.String("label", label))
	}
	snap, result := sess.machine.Submit(label)
	return &dto.AnswerResponse{
		Result:  result.String(),
		Session: BuildView(sess.id, snap, sess.playing()),
	}, nil
}

// PlayVowel implements SessionService. Playback runs in the background; the
// view reports now_playing once a candidate has loaded.
func (s *sessionService) PlayVowel(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.machine.Snapshot()
	sess.player.Play(audio.VowelCandidates(s.cfg.VowelDir, snap.Question.Sound))
	view := BuildView(sess.id, snap, sess.playing())
	return &view, nil
}

// PlayWord implements SessionService
func (s *sessionService) PlayWord(ctx context.Context, sessionID, word string) (*dto.SessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	canonical, ok := s.cat.Word(word)
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "Unknown example word: "+word, nil)
	}
	sess.player.Play(audio.WordCandidates(canonical, s.cfg.Extension))
	view := BuildView(sess.id, sess.machine.Snapshot(), sess.playing())
	return &view, nil
}

// CurrentQuestionKey implements SessionService
func (s *sessionService) CurrentQuestionKey(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return "", err
	}
	return sess.machine.Snapshot().Question.Key, nil
}

// Close implements SessionService. It cancels the pending advance and any
// in-flight playback.
func (s *sessionService) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return domain.NewSessionNotFoundError(sessionID)
	}
	sess.close()
	logger.Get().Info("Quiz session closed", zap.String("session_id", sessionID))
	return nil
}

// reapIdle closes sessions not touched within IdleTTL and returns how many.
func (s *sessionService) reapIdle(now time.Time) int {
	var idle []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := now.Sub(sess.lastSeen) > s.cfg.IdleTTL
		sess.mu.Unlock()
		if expired {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.close()
	}
	if len(idle) > 0 {
		logger.Get().Info("Reaped idle quiz sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

func (s *sessionService) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	for _, sess := range all {
		sess.close()
	}
}

// Run reaps idle sessions until ctx is done, then closes every session.
func (s *sessionService) Run(ctx context.Context) error {
	interval := s.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case <-ticker.C:
			s.reapIdle(s.cfg.Now())
		}
	}
}
