package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/signalsfoundry/satnet-designer/model"
)

// Lookup errors.
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrPortNotFound = errors.New("port not found")
	ErrEdgeNotFound = errors.New("edge not found")
)

// Policy violations.
var (
	ErrSelfLoop             = errors.New("self-loop not allowed")
	ErrDuplicateEdge        = errors.New("duplicate edge")
	ErrConnectionNotAllowed = errors.New("connection not allowed")
	ErrPortDirection        = errors.New("port direction mismatch")
)

// Bad input.
var (
	ErrNodeExists     = errors.New("node already exists")
	ErrInvalidCommand = errors.New("invalid command")
)

// IsLookupError reports whether err stems from a reference to a node,
// port or edge that does not exist.
func IsLookupError(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrPortNotFound) || errors.Is(err, ErrEdgeNotFound)
}

// IsPolicyViolation reports whether err is a rejected graph mutation.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrSelfLoop) || errors.Is(err, ErrDuplicateEdge) ||
		errors.Is(err, ErrConnectionNotAllowed) || errors.Is(err, ErrPortDirection)
}

// Dispatcher applies commands to topology snapshots. It holds no topology
// state of its own; the zero value is not usable, use NewDispatcher.
type Dispatcher struct {
	newID            func() string
	distance         DistanceFunc
	persistOnConnect bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithIDGenerator replaces the UUID generator used for new nodes, ports
// and edges.
func WithIDGenerator(f func() string) Option {
	return func(d *Dispatcher) {
		if f != nil {
			d.newID = f
		}
	}
}

// WithDistanceFunc replaces the distance model used for edge labels.
func WithDistanceFunc(f DistanceFunc) Option {
	return func(d *Dispatcher) {
		if f != nil {
			d.distance = f
		}
	}
}

// WithPersistOnConnect controls whether Connect marks both endpoint ports
// persistent. It defaults to true. When false, ports created by a
// connection are reclaimed as soon as their last edge is removed.
func WithPersistOnConnect(v bool) Option {
	return func(d *Dispatcher) {
		d.persistOnConnect = v
	}
}

// NewDispatcher returns a Dispatcher with the given options applied.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		newID:            uuid.NewString,
		distance:         ChordDistanceKm,
		persistOnConnect: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDispatcher = NewDispatcher()

// Apply runs cmd against t with the default dispatcher.
func Apply(t model.Topology, cmd Command) (model.Topology, error) {
	return defaultDispatcher.Apply(t, cmd)
}

// Apply runs cmd against a deep copy of t and returns the resulting
// snapshot. On error t is returned unchanged together with the error, so
// a rejected command never leaks a partial port allocation.
func (d *Dispatcher) Apply(t model.Topology, cmd Command) (model.Topology, error) {
	if cmd == nil {
		return t, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	next := t.Clone()
	var err error
	switch c := cmd.(type) {
	case AddNode:
		err = d.addNode(&next, c)
	case UpdateNode:
		err = d.updateNode(&next, c)
	case MoveNode:
		err = d.moveNode(&next, c)
	case RemoveNode:
		err = d.removeNode(&next, c)
	case Connect:
		err = d.connect(&next, c)
	case ConnectTerminal:
		err = d.connectTerminal(&next, c)
	case RemoveEdge:
		err = d.removeEdge(&next, c)
	case UpdateEdge:
		err = d.updateEdge(&next, c)
	case UpdatePort:
		err = d.updatePort(&next, c)
	case SetProcessing:
		err = d.setProcessing(&next, c)
	case SetGenerator:
		err = d.setGenerator(&next, c)
	case SetModelConfig:
		err = d.setModelConfig(&next, c)
	default:
		err = fmt.Errorf("%w: unsupported command %T", ErrInvalidCommand, cmd)
	}
	if err != nil {
		return t, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	RecomputeDerived(&next, d.distance)
	return next, nil
}

// ApplyAll applies cmds in order and stops at the first error, returning
// the snapshot as it was before the failing command.
func (d *Dispatcher) ApplyAll(t model.Topology, cmds ...Command) (model.Topology, error) {
	for i, cmd := range cmds {
		next, err := d.Apply(t, cmd)
		if err != nil {
			return t, fmt.Errorf("command %d: %w", i, err)
		}
		t = next
	}
	return t, nil
}

// Refresh returns a deep copy of t with every derived field recomputed.
// Use it on snapshots that did not come out of Apply, such as loaded
// documents.
func (d *Dispatcher) Refresh(t model.Topology) model.Topology {
	next := t.Clone()
	RecomputeDerived(&next, d.distance)
	return next
}

// nodeByID returns the node or an ErrNodeNotFound error.
func nodeByID(t *model.Topology, id string) (*model.Node, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty node id", ErrNodeNotFound)
	}
	n := t.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	return n, nil
}
