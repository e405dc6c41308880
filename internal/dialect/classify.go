package dialect

import (
	sitter "github.com/smacker/go-tree-sitter"

	"decoport/internal/source"
)

// Verdict classifies a decorator expression against the restricted
// grammar.
type Verdict uint8

const (
	// VerdictConforming marks a dotted name with at most one trailing
	// call; valid under the pre-3.9 grammar as-is.
	VerdictConforming Verdict = iota
	// VerdictRelaxed marks any other expression shape; it must be hoisted
	// into a binding before the definition.
	VerdictRelaxed
)

func (v Verdict) String() string {
	if v == VerdictConforming {
		return "conforming"
	}
	return "relaxed"
}

// Site is one decorator occurrence on a decorated definition.
type Site struct {
	DefName  string      // name of the decorated function or class
	DefSpan  source.Span // whole decorated definition, decorators included
	Expr     source.Span // decorator expression, '@' excluded
	ExprText string
	Verdict  Verdict
}

// Classify finds every decorator site in the tree, in source order.
// Sites on nested definitions are included. A decorator node without an
// expression child reports an UnsupportedConstructError.
func Classify(t *Tree) ([]Site, error) {
	var sites []Site
	if err := walkDefinitions(t, t.root, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

func walkDefinitions(t *Tree, n *sitter.Node, sites *[]Site) error {
	if n.Type() == "decorated_definition" {
		if err := collectSites(t, n, sites); err != nil {
			return err
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if err := walkDefinitions(t, n.NamedChild(i), sites); err != nil {
			return err
		}
	}
	return nil
}

func collectSites(t *Tree, decorated *sitter.Node, sites *[]Site) error {
	defName := ""
	if def := decorated.ChildByFieldName("definition"); def != nil {
		if name := def.ChildByFieldName("name"); name != nil {
			defName = t.Text(name)
		}
	}

	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		expr := decoratorExpr(child)
		if expr == nil {
			line, _ := t.Unit.LineCol(child.StartByte())
			return &UnsupportedConstructError{
				Path:   t.Unit.Path,
				Line:   line,
				Detail: "decorator has no expression",
			}
		}
		verdict := VerdictRelaxed
		if conformingExpr(expr) {
			verdict = VerdictConforming
		}
		*sites = append(*sites, Site{
			DefName:  defName,
			DefSpan:  NodeSpan(decorated),
			Expr:     NodeSpan(expr),
			ExprText: t.Text(expr),
			Verdict:  verdict,
		})
	}
	return nil
}

// decoratorExpr returns the expression node of a decorator ('@' expr),
// skipping any interleaved comment nodes.
func decoratorExpr(decorator *sitter.Node) *sitter.Node {
	for i := 0; i < int(decorator.NamedChildCount()); i++ {
		child := decorator.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// conformingExpr reports whether an expression matches the restricted
// decorator grammar: NAME ('.' NAME)* with at most one trailing call.
func conformingExpr(n *sitter.Node) bool {
	if n.Type() == "call" {
		fn := n.ChildByFieldName("function")
		return fn != nil && dottedName(fn)
	}
	return dottedName(n)
}

func dottedName(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier":
		return true
	case "attribute":
		obj := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		return obj != nil && attr != nil && attr.Type() == "identifier" && dottedName(obj)
	default:
		return false
	}
}
