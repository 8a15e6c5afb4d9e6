package codegen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/signalsfoundry/satnet-designer/model"
)

// opWidth is the width of the GPSS operation column.
const opWidth = 9

// layout fixes the column geometry of one program. Every label column is
// margin runes wide and section rules are width runes wide.
type layout struct {
	margin int
	width  int
}

// newLayout sizes the label column after the longest interface base label
// so that every derived label (service_, queue_, loss_) still fits.
func newLayout(t *model.Topology) layout {
	longest := len("capacity")
	for i := range t.Nodes {
		n := &t.Nodes[i]
		for _, p := range n.Data.Interfaces {
			longest = max(longest, len(baseLabel(n.ID, p.Direction, p.Idx))+len("service_"))
		}
		longest = max(longest, len("processing_"+ident(n.ID)), len("capacity_"+ident(n.ID)))
	}
	for _, e := range t.Edges {
		if e.IsTerminal() {
			longest = max(longest, len(ident(e.To.Terminal)))
		}
	}
	margin := longest + 1
	return layout{margin: margin, width: margin*4 + 16}
}

// header centres text between '=' fillers, with any odd filler going to
// the right.
func (l layout) header(text string) string {
	pad := l.width - utf8.RuneCountInString(text)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	return "*" + strings.Repeat("=", left) + text + strings.Repeat("=", pad-left) + "*"
}

func (l layout) rule() string {
	return "*" + strings.Repeat("=", l.width) + "*"
}

// row renders one GPSS statement. An empty label leaves the label column
// blank.
func (l layout) row(label, op, operand string) string {
	line := fmt.Sprintf("%-*s %-*s %s", l.margin, label, opWidth, op, operand)
	return strings.TrimRight(line, " ")
}

// section wraps body between a titled header and a closing rule.
func (l layout) section(title, body string) string {
	return l.header(title) + "\n\n" + strings.Trim(body, "\n") + "\n\n" + l.rule()
}

// ident maps s onto the characters GPSS accepts in names.
func ident(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// baseLabel is the block label of an interface, e.g. in_int1_sat.
func baseLabel(nodeID string, dir model.Direction, idx int) string {
	return fmt.Sprintf("%s_int%d_%s", dir, idx, ident(nodeID))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// distFunc turns a distribution name into its GPSS library function name,
// e.g. exponential becomes Exponential.
func distFunc(dist, fallback string) string {
	dist = strings.TrimSpace(dist)
	if dist == "" {
		dist = fallback
	}
	// Casers are stateful and cannot be shared between goroutines.
	return cases.Title(language.Und).String(dist)
}

// advance renders the ADVANCE operand for a rate held in the named EQU.
func advance(dist, muName string) string {
	return fmt.Sprintf("(%s(1,0,1/%s))", dist, muName)
}
