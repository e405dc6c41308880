package dialect

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"decoport/internal/source"
)

// Tree holds a parsed unit together with its syntax tree. Callers must
// Close it when done.
type Tree struct {
	Unit *source.Unit

	tree *sitter.Tree
	root *sitter.Node
}

// Parse builds the syntax tree for a unit. A tree containing error or
// missing nodes yields a ParseError; parsing never mutates the unit.
func Parse(ctx context.Context, unit *source.Unit) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, unit.Text)
	if err != nil {
		return nil, &ParseError{Path: unit.Path, Version: unit.SourceVersion, Detail: err.Error()}
	}

	root := tree.RootNode()
	if root.HasError() {
		perr := &ParseError{Path: unit.Path, Version: unit.SourceVersion, Detail: "syntax error"}
		if bad := firstErrorNode(root); bad != nil {
			perr.Line, perr.Col = unit.LineCol(bad.StartByte())
			if bad.IsMissing() {
				perr.Detail = "missing " + bad.Type()
			}
		}
		tree.Close()
		return nil, perr
	}

	return &Tree{Unit: unit, tree: tree, root: root}, nil
}

// Close releases the underlying tree-sitter resources.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Text returns the unit text covered by a node.
func (t *Tree) Text(n *sitter.Node) string {
	return string(t.Unit.Text[n.StartByte():n.EndByte()])
}

// NodeSpan converts a node's byte range into a source span.
func NodeSpan(n *sitter.Node) source.Span {
	return source.Span{Start: n.StartByte(), End: n.EndByte()}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// Identifiers collects every identifier spelled anywhere in the unit. The
// planner consults this set for collision-free fresh-name allocation.
func (t *Tree) Identifiers() map[string]struct{} {
	idents := make(map[string]struct{})
	collectIdentifiers(t, t.root, idents)
	return idents
}

func collectIdentifiers(t *Tree, n *sitter.Node, idents map[string]struct{}) {
	if n.Type() == "identifier" {
		idents[t.Text(n)] = struct{}{}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectIdentifiers(t, n.NamedChild(i), idents)
	}
}
