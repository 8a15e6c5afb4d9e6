// Package session holds the topology a user is editing. It is the only
// stateful layer above the pure command dispatcher: it owns the current
// snapshot, serialises writers and tells subscribers about every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/gpss"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/observability"
	"github.com/signalsfoundry/satnet-designer/model"
)

// ErrInvalidDocument is returned by Replace for a document whose topology
// fails validation.
var ErrInvalidDocument = errors.New("invalid document")

// EventType indicates what kind of change happened to the session.
type EventType int

const (
	// EventApplied follows a successful Apply.
	EventApplied EventType = iota
	// EventReplaced follows Replace.
	EventReplaced
	// EventGPSSUpdated follows SetGPSS.
	EventGPSSUpdated
)

// Event is emitted to subscribers after every change. Topology is a copy
// that subscribers may keep.
type Event struct {
	Type     EventType
	Version  uint64
	Commands []string
	Topology model.Topology
}

// MetricsRecorder receives per-command results and snapshot sizes.
type MetricsRecorder interface {
	ObserveCommand(command, result string, d time.Duration)
	SetTopologyCounts(nodes, edges, ports int)
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.RWMutex

	current model.Topology
	gpss    *gpss.Config
	version uint64

	dispatcher *core.Dispatcher
	log        logging.Logger
	metrics    MetricsRecorder
	now        func() time.Time

	subs    map[int]func(Event)
	nextSub int
}

// Option customises Session construction.
type Option func(*Session)

// WithDispatcher replaces the default dispatcher.
func WithDispatcher(d *core.Dispatcher) Option {
	return func(s *Session) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithLogger attaches a structured logger for session events.
func WithLogger(log logging.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// New starts a session on doc. The document is copied and its derived
// fields are recomputed.
func New(doc core.Document, opts ...Option) *Session {
	s := &Session{
		dispatcher: core.NewDispatcher(),
		log:        logging.Noop(),
		now:        time.Now,
		subs:       make(map[int]func(Event)),
	}
	if doc.GPSS != nil {
		cfg := doc.GPSS.Clone()
		s.gpss = &cfg
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.dispatcher.Refresh(doc.Topology())
	s.recordCounts(&s.current)
	return s
}

// NewEmpty starts a session on an empty topology with the default model
// configuration.
func NewEmpty(modelID string, opts ...Option) *Session {
	return New(core.NewDocument(model.Topology{Model: core.DefaultModelConfig(modelID)}, nil), opts...)
}

// Apply runs cmds as one transaction: either every command succeeds and
// the result becomes the current snapshot, or the snapshot is left as it
// was. The returned topology is a copy of the snapshot after the call.
func (s *Session) Apply(ctx context.Context, cmds ...core.Command) (model.Topology, error) {
	s.mu.Lock()
	work := s.current
	names := make([]string, 0, len(cmds))
	for i, cmd := range cmds {
		start := s.now()
		next, err := s.dispatcher.Apply(work, cmd)
		name := "nil"
		if cmd != nil {
			name = cmd.Name()
		}
		s.observe(name, err, s.now().Sub(start))
		if err != nil {
			snapshot := s.current.Clone()
			s.mu.Unlock()
			s.log.Warn(ctx, "command rejected",
				logging.String("command", name),
				logging.Int("index", i),
				logging.Err(err),
			)
			return snapshot, fmt.Errorf("command %d: %w", i, err)
		}
		work = next
		names = append(names, name)
	}
	s.current = work
	s.version++
	event := Event{Type: EventApplied, Version: s.version, Commands: names, Topology: work.Clone()}
	s.recordCounts(&work)
	subs := s.subscribers()
	s.mu.Unlock()

	s.log.Debug(ctx, "commands applied",
		logging.Int("commands", len(names)),
		logging.Any("version", event.Version),
	)
	notify(subs, event)
	return work.Clone(), nil
}

// Snapshot returns a copy of the current topology.
func (s *Session) Snapshot() model.Topology {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Document returns the current topology together with the GPSS settings.
func (s *Session) Document() core.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.NewDocument(s.current, s.gpss)
}

// Version counts the changes made to the session.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace loads doc in place of the current document, typically after an
// import. Documents whose topology does not validate are rejected.
func (s *Session) Replace(ctx context.Context, doc core.Document) error {
	t := s.dispatcher.Refresh(doc.Topology())
	if fe := core.ValidateTopology(t); fe != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, fe)
	}
	var cfg *gpss.Config
	if doc.GPSS != nil {
		c := doc.GPSS.Clone()
		cfg = &c
	}

	s.mu.Lock()
	s.current = t
	s.gpss = cfg
	s.version++
	event := Event{Type: EventReplaced, Version: s.version, Topology: t.Clone()}
	s.recordCounts(&t)
	subs := s.subscribers()
	s.mu.Unlock()

	s.log.Info(ctx, "document loaded",
		logging.String("model_id", t.Model.Model.ID),
		logging.Int("nodes", len(t.Nodes)),
		logging.Int("edges", len(t.Edges)),
	)
	notify(subs, event)
	return nil
}

// GPSS returns a copy of the GPSS settings, or nil when none are set.
func (s *Session) GPSS() *gpss.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gpss == nil {
		return nil
	}
	cfg := s.gpss.Clone()
	return &cfg
}

// SetGPSS replaces the GPSS settings. They are stored as given; use
// core.ValidateDocument to check them.
func (s *Session) SetGPSS(ctx context.Context, cfg gpss.Config) {
	c := cfg.Clone()
	s.mu.Lock()
	s.gpss = &c
	s.version++
	event := Event{Type: EventGPSSUpdated, Version: s.version, Topology: s.current.Clone()}
	subs := s.subscribers()
	s.mu.Unlock()

	s.log.Debug(ctx, "gpss settings updated")
	notify(subs, event)
}

// Subscribe registers a callback for session events. It returns an
// unsubscribe function that is safe to call more than once.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

// subscribers copies the callbacks in registration order. Callers must
// hold mu.
func (s *Session) subscribers() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// notify runs outside the lock so that subscribers may call back into the
// session.
func notify(subs []func(Event), e Event) {
	for _, fn := range subs {
		fn(e)
	}
}

func (s *Session) observe(command string, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCommand(command, resultLabel(err), d)
}

func (s *Session) recordCounts(t *model.Topology) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetTopologyCounts(len(t.Nodes), len(t.Edges), t.PortCount())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return observability.ResultOK
	case core.IsLookupError(err):
		return observability.ResultLookup
	case core.IsPolicyViolation(err):
		return observability.ResultPolicy
	default:
		return observability.ResultInvalid
	}
}
