// Package codegen renders a topology as a GPSS simulation program.
//
// Every node becomes a titled section. Processing nodes (SC, HAPS, ES)
// get one queue and service stage per connected interface, a shared
// processing stage and a routing table keyed on the transaction's
// type_data parameter. Generator nodes (AS, SSOP) get a GENERATE block
// that splits each request into MTU-sized packets.
package codegen

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/satnet-designer/gpss"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/model"
)

const tracerName = "github.com/signalsfoundry/satnet-designer/codegen"

var (
	// ErrEmptyTopology is returned for a topology without nodes.
	ErrEmptyTopology = errors.New("topology has no nodes")
	// ErrUnroutedPort is returned when a routing rule names an out-port
	// that does not exist or carries no channel.
	ErrUnroutedPort = errors.New("routing rule points at an unconnected out-port")
	// ErrUnconnectedPort is returned when a generator has nowhere to send
	// traffic or an edge points at a missing node or port.
	ErrUnconnectedPort = errors.New("unconnected port")
	// ErrMissingConfig is returned when a node lacks its processing or
	// generator block.
	ErrMissingConfig   = errors.New("missing node configuration")
	ErrUnknownNodeType = errors.New("unknown node type")
)

// Result is a generated program.
type Result struct {
	Code    string    `json:"code"`
	GenTime float64   `json:"genTime"` // seconds
	GenDate time.Time `json:"genDate"`
}

// Options tunes a single Generate call.
type Options struct {
	// IncludeGenerationInfo prepends a comment section with the
	// generation date and duration.
	IncludeGenerationInfo bool
}

// Generator renders programs. The zero value is not usable; use New.
type Generator struct {
	now     func() time.Time
	observe func(time.Duration)
	log     logging.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithDurationObserver registers f to receive the duration of every
// successful generation.
func WithDurationObserver(f func(time.Duration)) Option {
	return func(g *Generator) { g.observe = f }
}

// WithLogger sets the logger used for generation events.
func WithLogger(log logging.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now, log: logging.Noop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders t. The topology is expected to have passed
// core.ValidateTopology; structural problems that would produce a broken
// program are still reported as errors.
func (g *Generator) Generate(ctx context.Context, t model.Topology, opts Options) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "codegen.Generate", trace.WithAttributes(
		attribute.String("model_id", t.Model.Model.ID),
		attribute.Int("nodes", len(t.Nodes)),
		attribute.Int("edges", len(t.Edges)),
	))
	defer span.End()

	start := g.now()
	code, l, err := render(&t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.Warn(ctx, "gpss generation failed",
			logging.String("model_id", t.Model.Model.ID),
			logging.Err(err),
		)
		return Result{}, err
	}
	end := g.now()
	elapsed := end.Sub(start)
	if g.observe != nil {
		g.observe(elapsed)
	}

	res := Result{Code: code, GenTime: elapsed.Seconds(), GenDate: end}
	if opts.IncludeGenerationInfo {
		info := "* Generated at: " + end.Format(time.RFC3339) + "\n" +
			"* Generation time: " + strconv.FormatFloat(res.GenTime, 'f', 6, 64) + " s"
		res.Code = l.section("[Generation info]", info) + "\n" + res.Code
	}
	span.SetAttributes(attribute.Int("code_bytes", len(res.Code)))
	g.log.Debug(ctx, "gpss program generated",
		logging.String("model_id", t.Model.Model.ID),
		logging.Int("nodes", len(t.Nodes)),
		logging.Int("bytes", len(res.Code)),
		logging.Duration("elapsed", elapsed),
	)
	return res, nil
}

func render(t *model.Topology) (string, layout, error) {
	if len(t.Nodes) == 0 {
		return "", layout{}, ErrEmptyTopology
	}
	p := newProgram(t)

	capacity := t.Model.Traffic.Capacity
	params := make(map[string]string, len(capacity.Params))
	for k, v := range capacity.Params {
		params[k] = num(v)
	}
	dist := capacity.Dist
	if dist == "" {
		dist = gpss.DefaultTrafficDistribution
	}

	var b strings.Builder
	b.WriteString(p.l.section("[Model settings 1]", p.l.row("capacity", "VARIABLE", "("+gpss.Expression(dist, params)+")")))
	b.WriteString("\n")

	nodes := make([]string, 0, len(t.Nodes))
	for i := range t.Nodes {
		s, err := p.node(&t.Nodes[i])
		if err != nil {
			return "", layout{}, err
		}
		nodes = append(nodes, s)
	}
	b.WriteString(strings.Join(nodes, "\n"))
	b.WriteString("\n")

	if len(p.terminals) > 0 {
		b.WriteString(p.terminalsBlock())
		b.WriteString("\n")
	}

	settings := strings.Join([]string{
		p.l.row("", "GENERATE", num(t.Model.Sim.Duration)),
		p.l.row("", "TERMINATE", "1"),
		p.l.row("", "START", "1"),
	}, "\n")
	b.WriteString(p.l.section("[Model settings 2]", settings))
	b.WriteString("\n")
	return b.String(), p.l, nil
}
