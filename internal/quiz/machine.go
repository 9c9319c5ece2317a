// Package quiz implements the question/answer state machine: scoring,
// per-choice feedback, the lock after a correct answer and the delayed
// advance to a different question.
package quiz

import (
	"math/rand"
	"sync"
	"time"

	"vowel-quiz/internal/catalog"
	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/logger"

	"go.uber.org/zap"
)

// DefaultAdvanceDelay is the pause between a correct answer and the next question.
const DefaultAdvanceDelay = 800 * time.Millisecond

// State of the current question.
type State int

const (
	Unanswered State = iota
	Locked
)

func (s State) String() string {
	switch s {
	case Unanswered:
		return "unanswered"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// Result of a submission.
type Result int

const (
	Ignored Result = iota
	Wrong
	Correct
)

func (r Result) String() string {
	switch r {
	case Wrong:
		return "wrong"
	case Correct:
		return "correct"
	default:
		return "ignored"
	}
}

// Options configures a Machine. Zero values select the defaults.
type Options struct {
	Delay      time.Duration
	InitialKey string
	Rand       *rand.Rand
	Scheduler  Scheduler
}

// Machine is one quiz session's state. All methods are safe for concurrent use;
// transitions are serialized.
type Machine struct {
	cat   *catalog.Catalog
	delay time.Duration
	rng   *rand.Rand
	sched Scheduler

	mu          sync.Mutex
	current     int
	score       Score
	state       State
	wrongPicks  []string
	correctPick string
	timer       Timer
	questionGen uint64
	version     uint64
	closed      bool

	subs      map[int]func(Snapshot)
	nextSubID int
}

// NewMachine creates a machine positioned on opts.InitialKey, or on the
// catalog's first question when no key is given.
func NewMachine(cat *catalog.Catalog, opts Options) (*Machine, error) {
	m := &Machine{
		cat:   cat,
		delay: opts.Delay,
		rng:   opts.Rand,
		sched: opts.Scheduler,
		subs:  make(map[int]func(Snapshot)),
	}
	if m.delay <= 0 {
		m.delay = DefaultAdvanceDelay
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.sched == nil {
		m.sched = RealScheduler
	}
	if opts.InitialKey != "" {
		idx := -1
		for i := 0; i < cat.Len(); i++ {
			if cat.At(i).Key == opts.InitialKey {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, domain.NewQuestionNotFoundError(opts.InitialKey)
		}
		m.current = idx
	}
	return m, nil
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Submit evaluates label against the current question. It is a no-op while
// Locked or after Close. A correct answer locks the question and schedules
// the advance; a wrong one is remembered once per question. Labels outside
// the choice set count as wrong.
func (m *Machine) Submit(label string) (Snapshot, Result) {
	m.mu.Lock()
	if m.closed || m.state == Locked {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, Ignored
	}

	m.score.Total++
	result := Wrong
	if label == m.cat.At(m.current).Label {
		result = Correct
		m.score.Correct++
		m.correctPick = label
		m.state = Locked
		gen := m.questionGen
		m.timer = m.sched.AfterFunc(m.delay, func() { m.advanceFromTimer(gen) })
	} else if !contains(m.wrongPicks, label) {
		m.wrongPicks = append(m.wrongPicks, label)
	}
	m.version++
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	logger.Get().Debug("quiz answer submitted",
		zap.String("question", snap.Question.Key),
		zap.String("label", label),
		zap.Stringer("result", result),
		zap.Int("correct", snap.Score.Correct),
		zap.Int("total", snap.Score.Total),
	)
	notify(subs, snap)
	return snap, result
}

// Advance moves to a question chosen uniformly among all others and clears
// the per-question feedback. With a single configured question it stays put.
func (m *Machine) Advance() Snapshot {
	m.mu.Lock()
	if m.closed {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.advanceLocked()
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	notify(subs, snap)
	return snap
}

func (m *Machine) advanceFromTimer(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.questionGen {
		m.mu.Unlock()
		return
	}
	m.advanceLocked()
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	logger.Get().Debug("quiz advanced", zap.String("question", snap.Question.Key))
	notify(subs, snap)
}

func (m *Machine) advanceLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if n := m.cat.Len(); n > 1 {
		next := m.rng.Intn(n - 1)
		if next >= m.current {
			next++
		}
		m.current = next
	}
	m.wrongPicks = nil
	m.correctPick = ""
	m.state = Unanswered
	m.questionGen++
	m.version++
}

// Subscribe registers fn to receive a snapshot after every transition.
// The returned func removes the subscription.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close cancels a pending advance and makes every later transition a no-op.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.subs = make(map[int]func(Snapshot))
}

// Closed reports whether Close was called.
func (m *Machine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Machine) snapshotLocked() Snapshot {
	q := m.cat.At(m.current)
	return Snapshot{
		Question:    q,
		State:       m.state,
		Score:       m.score,
		WrongPicks:  append([]string(nil), m.wrongPicks...),
		CorrectPick: m.correctPick,
		Choices:     domain.ChoicesFor(m.cat.Choices(), q),
		Version:     m.version,
	}
}

func (m *Machine) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
