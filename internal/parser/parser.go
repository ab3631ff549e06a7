// Package parser wraps tree-sitter grammars behind one adapter that turns
// heterogeneous per-language ASTs into a single normalized tree. The grammar
// table is built at process start and shared read-only by every pipeline.
package parser

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"refactory/internal/ingest"
)

var (
	// ErrUnsupportedLanguage means no grammar is registered for the unit's
	// language identifier.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParse means the grammar parser failed outright and no usable tree
	// exists. Partially erroneous trees are returned with HadErrors set
	// instead of this error.
	ErrParse = errors.New("parse failed")
)

// Adapter parses SourceUnits into normalized syntax trees.
type Adapter struct {
	log *zap.Logger
}

// NewAdapter creates a parser adapter. A nil logger disables logging.
func NewAdapter(log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{log: log}
}

// Parse produces the normalized syntax tree for a unit. The returned tree is
// immutable and safe for concurrent reads. A tree with recoverable syntax
// errors is returned with HadErrors=true rather than failing; rules must
// treat the error regions as opaque.
func (a *Adapter) Parse(ctx context.Context, unit *ingest.SourceUnit) (*SyntaxTree, error) {
	spec, ok := grammars[unit.Language]
	if !ok {
		return nil, fmt.Errorf("%q: %w", unit.Language, ErrUnsupportedLanguage)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := []byte(unit.Text)
	p := sitter.NewParser()
	p.SetLanguage(spec.language)
	defer p.Close()

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %v", unit.Path, ErrParse, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.IsError() {
		return nil, fmt.Errorf("%s: %w: no recoverable tree", unit.Path, ErrParse)
	}

	norm := &normalizer{spec: spec, src: src, defSites: make(map[uint64]bool)}
	result := &SyntaxTree{
		Unit:      unit,
		Language:  unit.Language,
		Root:      norm.convert(root, false),
		HadErrors: root.HasError(),
	}
	if result.HadErrors {
		a.log.Debug("parsed with recoverable errors",
			zap.String("path", unit.Path),
			zap.String("language", unit.Language))
	}
	return result, nil
}

// normalizer carries per-parse state while mapping a raw tree into the
// normalized taxonomy.
type normalizer struct {
	spec *langSpec
	src  []byte

	// defSites marks identifier nodes that appear in declaration-name
	// position, keyed by byte range.
	defSites map[uint64]bool
}

func nodeKey(n *sitter.Node) uint64 {
	return uint64(n.StartByte())<<32 | uint64(n.EndByte())
}

func spanOf(n *sitter.Node) Span {
	return Span{
		StartLine: int(n.StartPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		EndCol:    int(n.EndPoint().Column) + 1,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
}

func (z *normalizer) convert(n *sitter.Node, inParams bool) *Node {
	rawType := n.Type()
	kind, mapped := z.spec.kinds[rawType]
	if !mapped {
		kind = KindOther
	}
	if n.IsError() || n.IsMissing() {
		kind = KindErrorNode
	}
	if z.spec.boolBinary[rawType] {
		kind = KindOther
		if op := n.ChildByFieldName("operator"); op != nil && boolOperators[op.Content(z.src)] {
			kind = KindBoolOp
		}
	}

	node := &Node{Kind: kind, Type: rawType, Span: spanOf(n)}

	switch kind {
	case KindFunction:
		node.Name = z.funcName(n)
		node.Params = z.countParams(n)
	case KindCall:
		if callee := n.ChildByFieldName(z.spec.calleeField); callee != nil {
			node.Name = callee.Content(z.src)
		}
	case KindDeclaration:
		if field := z.spec.declFields[rawType]; field != "" {
			z.markDeclared(n.ChildByFieldName(field))
		}
	case KindImport:
		node.Names = z.spec.importNames(n, z.src)
	case KindIdentifier:
		node.Text = n.Content(z.src)
		node.Name = node.Text
		// Type and package references are always uses; only plain
		// identifiers can sit in binding position.
		if rawType == "identifier" {
			node.DefSite = inParams || z.defSites[nodeKey(n)]
			node.ParamSite = inParams
		}
	}

	childInParams := inParams || z.spec.paramLists[rawType]
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := z.convert(n.Child(i), childInParams)
		node.Children = append(node.Children, child)
		if child.Err {
			node.Err = true
		}
	}
	if kind == KindErrorNode {
		node.Err = true
	}
	return node
}

// markDeclared records the identifiers a declaration binds. Destructuring
// lists are unpacked one level; C-style declarator chains are followed down
// to the underlying identifier.
func (z *normalizer) markDeclared(target *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		z.defSites[nodeKey(target)] = true
	case "expression_list", "pattern_list", "tuple_pattern", "tuple", "left_assignment_list":
		for i := 0; i < int(target.NamedChildCount()); i++ {
			if c := target.NamedChild(i); c.Type() == "identifier" {
				z.defSites[nodeKey(c)] = true
			}
		}
	case "pointer_declarator", "array_declarator", "parenthesized_declarator", "reference_declarator":
		z.markDeclared(target.ChildByFieldName("declarator"))
	}
}

func (z *normalizer) funcName(n *sitter.Node) string {
	if z.spec.funcNameField != "" {
		if f := n.ChildByFieldName(z.spec.funcNameField); f != nil {
			return f.Content(z.src)
		}
		return ""
	}
	// C-family: the name hides inside a declarator chain.
	decl := n.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Type() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return decl.Content(z.src)
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			// function_declarator without a declarator field child.
			for i := 0; i < int(decl.NamedChildCount()); i++ {
				c := decl.NamedChild(i)
				if c.Type() == "identifier" || c.Type() == "field_identifier" {
					return c.Content(z.src)
				}
			}
			return ""
		}
		decl = next
	}
	return ""
}

// countParams finds the function's parameter list and counts its named
// children, the same shape every supported grammar exposes.
func (z *normalizer) countParams(n *sitter.Node) int {
	var list *sitter.Node
	if p := n.ChildByFieldName("parameters"); p != nil && z.spec.paramLists[p.Type()] {
		list = p
	}
	var find func(c *sitter.Node, depth int)
	find = func(c *sitter.Node, depth int) {
		if list != nil || depth > 3 {
			return
		}
		if z.spec.paramLists[c.Type()] {
			list = c
			return
		}
		for i := 0; i < int(c.NamedChildCount()); i++ {
			find(c.NamedChild(i), depth+1)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		find(n.NamedChild(i), 1)
	}
	if list == nil {
		// Single-parameter arrow functions carry a bare identifier.
		if p := n.ChildByFieldName("parameter"); p != nil {
			return 1
		}
		return 0
	}
	count := 0
	for i := 0; i < int(list.NamedChildCount()); i++ {
		if list.NamedChild(i).Type() != "comment" {
			count++
		}
	}
	return count
}
