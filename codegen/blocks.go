package codegen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/model"
)

var nodeKinds = map[model.NodeType]string{
	model.NodeTypeAS:   "Cluster subscriber traffic generator",
	model.NodeTypeSC:   "Spacecraft with onboard processing",
	model.NodeTypeHAPS: "HAPS with onboard processing",
	model.NodeTypeES:   "Earth station",
	model.NodeTypeSSOP: "SSOP gateway",
}

// program holds the lookups shared by every node block of one rendering.
type program struct {
	t         *model.Topology
	l         layout
	edges     map[string]*model.Edge // keyed by either endpoint port id; first edge wins
	terminals []string
}

func newProgram(t *model.Topology) *program {
	p := &program{
		t:     t,
		l:     newLayout(t),
		edges: make(map[string]*model.Edge, len(t.Edges)*2),
	}
	for i := range t.Edges {
		e := &t.Edges[i]
		if p.edges[e.From.PortID] == nil {
			p.edges[e.From.PortID] = e
		}
		if e.IsTerminal() {
			if term := ident(e.To.Terminal); !slices.Contains(p.terminals, term) {
				p.terminals = append(p.terminals, term)
			}
			continue
		}
		p.edges[e.To.PortID] = e
	}
	return p
}

// connected returns the ports of n in dir that carry an edge.
func (p *program) connected(n *model.Node, dir model.Direction) []model.Port {
	var ports []model.Port
	if dir == model.DirIn {
		ports = n.InPorts()
	} else {
		ports = n.OutPorts()
	}
	out := ports[:0]
	for _, port := range ports {
		if p.edges[port.ID] != nil {
			out = append(out, port)
		}
	}
	return out
}

// next resolves the block an out-port transfers to: the base label of
// the in-port at the far end, or the terminal name.
func (p *program) next(n *model.Node, port model.Port) (string, error) {
	e := p.edges[port.ID]
	if e == nil {
		return "", fmt.Errorf("%w: %s out-port %d", ErrUnconnectedPort, n.ID, port.Idx)
	}
	if e.IsTerminal() {
		return ident(e.To.Terminal), nil
	}
	target := p.t.Node(e.To.NodeID)
	if target == nil {
		return "", fmt.Errorf("%w: edge %s targets missing node %s", ErrUnconnectedPort, e.ID, e.To.NodeID)
	}
	in := target.Port(e.To.PortID)
	if in == nil {
		return "", fmt.Errorf("%w: edge %s targets missing port %s", ErrUnconnectedPort, e.ID, e.To.PortID)
	}
	return baseLabel(target.ID, in.Direction, in.Idx), nil
}

// rate is the service rate of port. Out-ports take the rate of their
// channel when it has one.
func (p *program) rate(port model.Port) float64 {
	if e := p.edges[port.ID]; e != nil && port.Direction == model.DirOut {
		if mu, ok := core.EffectiveMu(e); ok {
			return mu
		}
	}
	if port.Mu > 0 {
		return port.Mu
	}
	return 1
}

func title(n *model.Node) string {
	s := "[" + nodeKinds[n.Type] + " | " + n.ID
	if n.Data.Label != "" {
		s += " | " + n.Data.Label
	}
	return s + "]"
}

func (p *program) node(n *model.Node) (string, error) {
	var (
		body string
		err  error
	)
	switch n.Type {
	case model.NodeTypeSC, model.NodeTypeHAPS, model.NodeTypeES:
		body, err = p.processingNode(n)
	case model.NodeTypeAS, model.NodeTypeSSOP:
		body, err = p.generatorNode(n)
	default:
		return "", fmt.Errorf("%w: %q on node %s", ErrUnknownNodeType, n.Type, n.ID)
	}
	if err != nil {
		return "", err
	}
	return p.l.section(title(n), body), nil
}

func (p *program) lossBlock(loss string) string {
	return p.l.row(loss, "SAVEVALUE", loss+"+,1") + "\n" + p.l.row("", "TERMINATE", "")
}

func (p *program) processingNode(n *model.Node) (string, error) {
	proc := n.Data.Processing
	if proc == nil {
		return "", fmt.Errorf("%w: node %s has no processing block", ErrMissingConfig, n.ID)
	}
	id := ident(n.ID)
	ins := p.connected(n, model.DirIn)
	outs := p.connected(n, model.DirOut)

	data := []string{p.l.row("service_"+id, "STORAGE", fmt.Sprint(max(1, proc.ServiceLines)))}
	if proc.Queue > 0 {
		data = append(data, p.l.row("q_"+id, "EQU", fmt.Sprint(proc.Queue)))
	}
	mu := proc.Mu
	if mu <= 0 {
		mu = 1
	}
	data = append(data, p.l.row("mu_"+id, "EQU", num(mu)))
	for _, port := range slices.Concat(ins, outs) {
		base := baseLabel(n.ID, port.Direction, port.Idx)
		if port.QueueCapacity > 0 {
			data = append(data, p.l.row("q_"+base, "EQU", fmt.Sprint(port.QueueCapacity)))
		}
		data = append(data, p.l.row("mu_"+base, "EQU", num(p.rate(port))))
		if port.ResourceType == model.ResourceStorage {
			data = append(data, p.l.row("service_"+base, "STORAGE", fmt.Sprint(max(1, port.ResourceAmount))))
		}
	}

	paragraphs := []string{strings.Join(data, "\n")}
	for _, port := range ins {
		paragraphs = append(paragraphs, p.interfaceBlock(n, port, "processing_"+id))
	}

	processing, err := p.processingBlock(n, proc)
	if err != nil {
		return "", err
	}
	paragraphs = append(paragraphs, processing)

	for _, port := range outs {
		next, err := p.next(n, port)
		if err != nil {
			return "", err
		}
		paragraphs = append(paragraphs, p.interfaceBlock(n, port, next))
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// interfaceBlock renders the queue and service stage of one port and
// hands the transaction on to next.
func (p *program) interfaceBlock(n *model.Node, port model.Port, next string) string {
	base := baseLabel(n.ID, port.Direction, port.Idx)
	queue := "queue_" + base
	service := "service_" + base
	loss := "loss_" + base

	var lines []string
	if port.Name != "" {
		lines = append(lines, "* "+port.Name)
	}
	lines = append(lines, p.l.row(base, "ASSIGN", fmt.Sprintf("number_%s_int_%s,%d", port.Direction, n.Type, port.Idx)))
	if port.QueueCapacity > 0 {
		lines = append(lines, p.l.row("", "TEST L", fmt.Sprintf("Q$%s,q_%s,%s", queue, base, loss)))
	}
	lines = append(lines, p.l.row("", "QUEUE", queue))
	if port.ResourceType == model.ResourceStorage {
		lines = append(lines, p.l.row("", "ENTER", service+",1"))
	} else {
		lines = append(lines, p.l.row("", "SEIZE", service))
	}
	lines = append(lines,
		p.l.row("", "DEPART", queue),
		p.l.row("", "ADVANCE", advance(distFunc(port.Dist, core.DefaultPortDist), "mu_"+base)),
	)
	if port.ResourceType == model.ResourceStorage {
		lines = append(lines, p.l.row("", "LEAVE", service+",1"))
	} else {
		lines = append(lines, p.l.row("", "RELEASE", service))
	}
	lines = append(lines, p.l.row("", "TRANSFER", ","+next))

	block := strings.Join(lines, "\n")
	if port.QueueCapacity > 0 {
		block += "\n\n" + p.lossBlock(loss)
	}
	return block
}

// processingBlock renders the shared service stage of a node followed by
// its routing table. A transaction whose type matches no rule is counted
// in unrouted_<id> and destroyed.
func (p *program) processingBlock(n *model.Node, proc *model.NodeProcessing) (string, error) {
	id := ident(n.ID)
	queue := "queue_" + id
	service := "service_" + id
	loss := "loss_" + id

	label := "processing_" + id
	nextLabel := func() string {
		l := label
		label = ""
		return l
	}

	lines := []string{"* Processing"}
	if proc.Queue > 0 {
		lines = append(lines, p.l.row(nextLabel(), "TEST L", fmt.Sprintf("Q$%s,q_%s,%s", queue, id, loss)))
	}
	lines = append(lines,
		p.l.row(nextLabel(), "QUEUE", queue),
		p.l.row("", "ENTER", service+",1"),
		p.l.row("", "DEPART", queue),
		p.l.row("", "ADVANCE", advance(distFunc(proc.Dist, core.DefaultProcessingDist), "mu_"+id)),
		p.l.row("", "LEAVE", service+",1"),
	)

	var routes []string
	targets := make(map[int]string)
	for _, rule := range proc.RoutingTable {
		out := n.PortByIdx(model.DirOut, rule.OutPort)
		if out == nil || p.edges[out.ID] == nil {
			return "", fmt.Errorf("%w: node %s routes type %d to out-port %d", ErrUnroutedPort, n.ID, rule.Type, rule.OutPort)
		}
		route := fmt.Sprintf("route_%s_%d", id, rule.OutPort)
		lines = append(lines, p.l.row("", "TEST NE", fmt.Sprintf("P$type_data,%d,%s", rule.Type, route)))
		if _, ok := targets[rule.OutPort]; !ok {
			targets[rule.OutPort] = baseLabel(n.ID, model.DirOut, out.Idx)
			routes = append(routes, p.l.row(route, "TRANSFER", ","+targets[rule.OutPort]))
		}
	}
	unrouted := "unrouted_" + id
	lines = append(lines,
		p.l.row("", "SAVEVALUE", unrouted+"+,1"),
		p.l.row("", "TERMINATE", ""),
	)

	block := strings.Join(lines, "\n") + "\n\n" + strings.Join(routes, "\n")
	if proc.Queue > 0 {
		block += "\n\n" + p.lossBlock(loss)
	}
	return block, nil
}

// generatorOut picks the out-port generated traffic leaves through: the
// one leading to the generator target when set, else the lowest-indexed
// connected out-port.
func (p *program) generatorOut(n *model.Node, g *model.GeneratorConfig) (model.Port, error) {
	outs := p.connected(n, model.DirOut)
	if g.Target.NodeID != "" {
		for _, port := range outs {
			e := p.edges[port.ID]
			if e.IsTerminal() || e.To.NodeID != g.Target.NodeID {
				continue
			}
			if g.Target.InPortID != "" && e.To.PortID != g.Target.InPortID {
				continue
			}
			if g.Target.InPortIdx != nil && e.To.InPortIdx != *g.Target.InPortIdx {
				continue
			}
			return port, nil
		}
		return model.Port{}, fmt.Errorf("%w: generator of %s has no channel to %s", ErrUnconnectedPort, n.ID, g.Target.NodeID)
	}
	if len(outs) == 0 {
		return model.Port{}, fmt.Errorf("%w: generator of %s has no connected out-port", ErrUnconnectedPort, n.ID)
	}
	return outs[0], nil
}

func (p *program) generatorNode(n *model.Node) (string, error) {
	g := n.Data.Generator
	if g == nil {
		return "", fmt.Errorf("%w: node %s has no generator", ErrMissingConfig, n.ID)
	}
	id := ident(n.ID)
	out, err := p.generatorOut(n, g)
	if err != nil {
		return "", err
	}
	next, err := p.next(n, out)
	if err != nil {
		return "", err
	}

	la := "la_gen_" + id
	data := []string{p.l.row(la, "EQU", num(g.Lambda))}
	capacity := "capacity"
	if g.CapacitySource == model.CapacityCustom && g.CustomCapacity != nil {
		capacity = "capacity_" + id
		data = append(data, p.l.row(capacity, "VARIABLE", num(*g.CustomCapacity)))
	}

	gen := []string{
		p.l.row("", "GENERATE", advance(distFunc(out.Dist, core.DefaultPortDist), la)),
		p.l.row("", "ASSIGN", "cap_data,(V$"+capacity+")"),
		p.l.row("", "ASSIGN", fmt.Sprintf("type_data,%d", max(1, g.TypeData))),
		p.l.row("", "SPLIT", fmt.Sprintf("(P$cap_data/%d),%s", max(1, p.t.Model.Packet.MTU), next)),
		p.l.row("", "TRANSFER", ","+next),
	}
	paragraphs := []string{strings.Join(data, "\n"), strings.Join(gen, "\n")}

	var sinks []string
	for _, port := range p.connected(n, model.DirIn) {
		sinks = append(sinks, p.l.row(baseLabel(n.ID, port.Direction, port.Idx), "TERMINATE", ""))
	}
	if len(sinks) > 0 {
		paragraphs = append(paragraphs, strings.Join(sinks, "\n"))
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

func (p *program) terminalsBlock() string {
	rows := make([]string, len(p.terminals))
	for i, term := range p.terminals {
		rows[i] = p.l.row(term, "TERMINATE", "")
	}
	return p.l.section("[Terminals]", strings.Join(rows, "\n"))
}
