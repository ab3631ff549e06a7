package parser

import (
	"refactory/internal/ingest"
)

// Kind is the normalized node taxonomy shared by every grammar. Rules and
// the complexity analyzer operate on Kind values only, never on raw grammar
// node types, which keeps them language-agnostic.
type Kind int

const (
	KindOther Kind = iota
	KindFunction
	KindClass
	KindConditional
	KindLoop
	KindSwitch
	KindCaseArm
	KindTry
	KindCatch
	KindBoolOp
	KindCall
	KindDeclaration
	KindImport
	KindIdentifier
	KindBlock
	KindErrorNode
)

var kindNames = map[Kind]string{
	KindOther:       "other",
	KindFunction:    "function",
	KindClass:       "class",
	KindConditional: "conditional",
	KindLoop:        "loop",
	KindSwitch:      "switch",
	KindCaseArm:     "case_arm",
	KindTry:         "try",
	KindCatch:       "catch",
	KindBoolOp:      "bool_op",
	KindCall:        "call",
	KindDeclaration: "declaration",
	KindImport:      "import",
	KindIdentifier:  "identifier",
	KindBlock:       "block",
	KindErrorNode:   "error",
}

func (k Kind) String() string { return kindNames[k] }

// Span locates a node in the source text. Lines and columns are 1-based.
type Span struct {
	StartLine, StartCol int
	EndLine, EndCol     int
	StartByte, EndByte  uint32
}

// Contains reports whether other lies fully within s.
func (s Span) Contains(other Span) bool {
	return s.StartByte <= other.StartByte && other.EndByte <= s.EndByte
}

// Node is one normalized syntax node. The tree is immutable after parsing.
type Node struct {
	Kind Kind
	Type string // raw grammar node type, kept for diagnostics
	Span Span

	// Text is populated for identifiers only; other nodes read their text
	// from the SourceUnit via the span when needed.
	Text string

	// Name is the function name, declared name, or call target.
	Name string

	// Names holds the bindings an import introduces.
	Names []string

	// Params is the parameter count of a function node.
	Params int

	// DefSite marks an identifier consumed as a declaration or parameter
	// name rather than a reference.
	DefSite bool

	// ParamSite narrows DefSite to parameter-list positions. Parameter
	// names are not references but also not local bindings.
	ParamSite bool

	// Err is true when this subtree contains a grammar error node. Rules
	// must treat such regions as opaque.
	Err bool

	Children []*Node
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// SyntaxTree is the parse result for one SourceUnit. It is owned by the
// caller of Parse and safe for concurrent reads.
type SyntaxTree struct {
	Unit      *ingest.SourceUnit
	Language  string
	Root      *Node
	HadErrors bool
}

// Functions returns every function node in document order, outermost first.
func (t *SyntaxTree) Functions() []*Node {
	var fns []*Node
	t.Root.Walk(func(n *Node) bool {
		if n.Kind == KindFunction {
			fns = append(fns, n)
		}
		return true
	})
	return fns
}

// Imports returns every import node in document order.
func (t *SyntaxTree) Imports() []*Node {
	var imps []*Node
	t.Root.Walk(func(n *Node) bool {
		if n.Kind == KindImport {
			imps = append(imps, n)
		}
		return true
	})
	return imps
}
