package wv

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNilWriter indicates that a nil writer was provided to an exporter.
var ErrNilWriter = errors.New("wv: nil writer")

// DOTOption configures the behaviour of ExportDOT.
type DOTOption func(*dotConfig)

type dotConfig struct {
	graphName string
	rankDir   string
}

func defaultDOTConfig(w *Weave) dotConfig {
	return dotConfig{
		graphName: "weave-" + w.id.String(),
		rankDir:   "LR",
	}
}

// DOTWithGraphName overrides the DOT graph identifier.
func DOTWithGraphName(name string) DOTOption {
	return func(cfg *dotConfig) {
		if name != "" {
			cfg.graphName = name
		}
	}
}

// DOTWithRankDir sets the rank direction (e.g. "LR", "TB") for the exported DOT graph.
func DOTWithRankDir(rankDir string) DOTOption {
	return func(cfg *dotConfig) {
		if rankDir != "" {
			cfg.rankDir = rankDir
		}
	}
}

// ExportDOT renders the weave in Graphviz DOT format. Knots, marks and tethers are
// nodes; arrows are edges labelled with their id. Marks hang off their target with
// a dashed edge and tethers off their source with a dotted one.
func (w *Weave) ExportDOT(out io.Writer, opts ...DOTOption) error {
	if out == nil {
		return ErrNilWriter
	}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrClosed
	}
	records := append([]record(nil), w.records...)
	cfg := defaultDOTConfig(w)
	w.mu.RUnlock()

	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := fmt.Fprintf(out, "digraph %s {\n", dotQuoteIdentifier(cfg.graphName)); err != nil {
		return err
	}
	if cfg.rankDir != "" {
		if _, err := fmt.Fprintf(out, "    rankdir=%s;\n", cfg.rankDir); err != nil {
			return err
		}
	}

	for i, rec := range records {
		id := EntityID(i + 1)
		var shape string
		switch rec.kind {
		case KindKnot:
			shape = "circle"
		case KindMark:
			shape = "note"
		case KindTether:
			shape = "point"
		default:
			continue
		}
		if _, err := fmt.Fprintf(out, "    %s [shape=%s];\n", dotID(id), shape); err != nil {
			return err
		}
	}

	for i, rec := range records {
		id := EntityID(i + 1)
		var err error
		switch rec.kind {
		case KindArrow:
			_, err = fmt.Fprintf(out, "    %s -> %s [label=%s];\n", dotID(rec.src), dotID(rec.tgt), dotID(id))
		case KindMark:
			_, err = fmt.Fprintf(out, "    %s -> %s [style=dashed];\n", dotID(id), dotID(rec.tgt))
		case KindTether:
			_, err = fmt.Fprintf(out, "    %s -> %s [style=dotted];\n", dotID(rec.src), dotID(id))
		}
		if err != nil {
			return err
		}
	}

	_, err := io.WriteString(out, "}\n")
	return err
}

func dotID(id EntityID) string {
	return dotQuoteIdentifier(strconv.FormatUint(uint64(id), 10))
}

func dotQuoteIdentifier(name string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range name {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
