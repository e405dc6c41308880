// Package rewrite plans and applies the minimal edits that turn relaxed
// decorator expressions into restricted-grammar references: one hoisted
// binding per relaxed decorator, inserted immediately before the decorated
// definition, plus a replacement of the expression with the binding name.
package rewrite

import (
	"fmt"
	"strings"

	"decoport/internal/dialect"
	"decoport/internal/source"
)

// Options controls plan rendering.
type Options struct {
	NamePrefix string // base for hoisted binding names
	PEP8       bool   // separate bindings from the definition with blank lines
}

// DefaultNamePrefix is the base used for hoisted binding names when no
// override is configured.
const DefaultNamePrefix = "_decorator"

// Build assembles the edit plan for a unit from its classified decorator
// sites. Conforming sites contribute nothing; a unit with only conforming
// sites yields an empty plan.
func Build(unit *source.Unit, sites []dialect.Site, idents map[string]struct{}, opts Options) (*Plan, error) {
	prefix := opts.NamePrefix
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	names := newNamer(prefix, idents)
	plan := &Plan{Path: unit.Path}

	// Sites arrive in source order; group the relaxed ones by their
	// enclosing definition so each definition gets a single insertion
	// holding its bindings top-to-bottom. Decorator expressions evaluate
	// in authored order, so the binding order must match.
	type group struct {
		insertAt uint32
		indent   string
		bindings []Binding
	}
	var groups []*group
	byDef := make(map[uint32]*group)

	for _, site := range sites {
		if site.Verdict != dialect.VerdictRelaxed {
			continue
		}
		g := byDef[site.DefSpan.Start]
		if g == nil {
			insertAt := unit.LineStart(site.DefSpan.Start)
			indent := string(unit.Text[insertAt:site.DefSpan.Start])
			if strings.TrimLeft(indent, " \t") != "" {
				return nil, &EmitError{Path: unit.Path,
					Detail: fmt.Sprintf("decorated definition at offset %d does not start a line", site.DefSpan.Start)}
			}
			g = &group{insertAt: insertAt, indent: indent}
			byDef[site.DefSpan.Start] = g
			groups = append(groups, g)
		}
		name := names.fresh()
		line, _ := unit.LineCol(site.Expr.Start)
		g.bindings = append(g.bindings, Binding{
			Name:    name,
			Expr:    site.ExprText,
			DefName: site.DefName,
			Line:    line,
		})
		plan.Edits = append(plan.Edits, TextEdit{
			Span:    site.Expr,
			NewText: name,
			OldText: site.ExprText,
		})
	}

	for _, g := range groups {
		var b strings.Builder
		for _, binding := range g.bindings {
			b.WriteString(g.indent)
			b.WriteString(binding.Name)
			b.WriteString(" = ")
			b.WriteString(binding.Expr)
			b.WriteString(unit.Linesep)
		}
		if opts.PEP8 {
			// PEP 8 separation between the binding block and the
			// definition: two blank lines at top level, one when nested.
			blank := 1
			if g.indent == "" {
				blank = 2
			}
			b.WriteString(strings.Repeat(unit.Linesep, blank))
		}
		plan.Edits = append(plan.Edits, TextEdit{
			Span:    source.Span{Start: g.insertAt, End: g.insertAt},
			NewText: b.String(),
		})
		plan.Bindings = append(plan.Bindings, g.bindings...)
	}

	if err := plan.normalize(); err != nil {
		return nil, err
	}
	return plan, nil
}

// namer allocates deterministic, collision-checked fresh identifiers.
type namer struct {
	prefix string
	used   map[string]struct{}
	next   int
}

func newNamer(prefix string, idents map[string]struct{}) *namer {
	used := make(map[string]struct{}, len(idents))
	for ident := range idents {
		used[ident] = struct{}{}
	}
	return &namer{prefix: prefix, used: used}
}

func (m *namer) fresh() string {
	for {
		name := fmt.Sprintf("%s_%d", m.prefix, m.next)
		m.next++
		if _, taken := m.used[name]; !taken {
			m.used[name] = struct{}{}
			return name
		}
	}
}
