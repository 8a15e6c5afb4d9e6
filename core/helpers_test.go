package core

import (
	"fmt"
	"testing"

	"github.com/signalsfoundry/satnet-designer/model"
)

// sequentialIDs returns an ID generator yielding prefix1, prefix2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestDispatcher(opts ...Option) *Dispatcher {
	base := []Option{WithIDGenerator(sequentialIDs("id-"))}
	return NewDispatcher(append(base, opts...)...)
}

func emptyTopology() model.Topology {
	return model.Topology{Model: DefaultModelConfig("test")}
}

func mustApply(t *testing.T, d *Dispatcher, topo model.Topology, cmd Command) model.Topology {
	t.Helper()
	next, err := d.Apply(topo, cmd)
	if err != nil {
		t.Fatalf("%s error: %v", cmd.Name(), err)
	}
	return next
}

// withNodes adds one node per (id, type) pair.
func withNodes(t *testing.T, d *Dispatcher, topo model.Topology, nodes ...any) model.Topology {
	t.Helper()
	if len(nodes)%2 != 0 {
		t.Fatalf("withNodes: odd argument count %d", len(nodes))
	}
	for i := 0; i < len(nodes); i += 2 {
		topo = mustApply(t, d, topo, AddNode{
			ID:   nodes[i].(string),
			Type: nodes[i+1].(model.NodeType),
		})
	}
	return topo
}

func portIdxs(ports []model.Port) []int {
	out := make([]int, len(ports))
	for i, p := range ports {
		out[i] = p.Idx
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
