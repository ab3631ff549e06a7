package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// langSpec maps one grammar's raw node types into the normalized taxonomy
// and tells the normalizer where names, parameters, and import bindings live.
type langSpec struct {
	language *sitter.Language

	kinds map[string]Kind

	// boolBinary lists binary-expression node types whose operator must be
	// inspected before counting them as short-circuit decision points.
	boolBinary map[string]bool

	// paramLists are the node types holding a function's parameters.
	paramLists map[string]bool

	funcNameField string
	calleeField   string

	// declFields maps declaration node types to the field holding the
	// declared name(s).
	declFields map[string]string

	importNames func(n *sitter.Node, src []byte) []string
}

var boolOperators = map[string]bool{
	"&&": true, "||": true, "and": true, "or": true, "??": true,
}

// grammars is the process-wide grammar table. Built once, read-only after.
var grammars = map[string]*langSpec{
	"go":         goSpec(),
	"python":     pythonSpec(),
	"javascript": jsSpec(javascript.GetLanguage()),
	"typescript": jsSpec(typescript.GetLanguage()),
	"java":       javaSpec(),
	"c":          cSpec(c.GetLanguage(), false),
	"cpp":        cSpec(cpp.GetLanguage(), true),
	"ruby":       rubySpec(),
	"rust":       rustSpec(),
}

// Languages lists every language with a registered grammar.
func Languages() []string {
	langs := make([]string, 0, len(grammars))
	for l := range grammars {
		langs = append(langs, l)
	}
	return langs
}

func goSpec() *langSpec {
	return &langSpec{
		language: golang.GetLanguage(),
		kinds: map[string]Kind{
			"function_declaration":        KindFunction,
			"method_declaration":          KindFunction,
			"func_literal":                KindFunction,
			"if_statement":                KindConditional,
			"for_statement":               KindLoop,
			"expression_switch_statement": KindSwitch,
			"type_switch_statement":       KindSwitch,
			"select_statement":            KindSwitch,
			"expression_case":             KindCaseArm,
			"type_case":                   KindCaseArm,
			"default_case":                KindCaseArm,
			"communication_case":          KindCaseArm,
			"call_expression":             KindCall,
			"short_var_declaration":       KindDeclaration,
			"var_spec":                    KindDeclaration,
			"const_spec":                  KindDeclaration,
			"import_spec":                 KindImport,
			"identifier":                  KindIdentifier,
			"package_identifier":          KindIdentifier,
			"type_identifier":             KindIdentifier,
			"block":                       KindBlock,
		},
		boolBinary:    map[string]bool{"binary_expression": true},
		paramLists:    map[string]bool{"parameter_list": true},
		funcNameField: "name",
		calleeField:   "function",
		declFields: map[string]string{
			"short_var_declaration": "left",
			"var_spec":              "name",
			"const_spec":            "name",
		},
		importNames: func(n *sitter.Node, src []byte) []string {
			// Aliased imports bind the alias; plain ones bind the last
			// path segment.
			if alias := n.ChildByFieldName("name"); alias != nil {
				return []string{alias.Content(src)}
			}
			path := n.ChildByFieldName("path")
			if path == nil {
				return nil
			}
			p := strings.Trim(path.Content(src), `"`)
			if i := strings.LastIndex(p, "/"); i >= 0 {
				p = p[i+1:]
			}
			return []string{p}
		},
	}
}

func pythonSpec() *langSpec {
	return &langSpec{
		language: python.GetLanguage(),
		kinds: map[string]Kind{
			"function_definition":    KindFunction,
			"class_definition":       KindClass,
			"if_statement":           KindConditional,
			"elif_clause":            KindConditional,
			"conditional_expression": KindConditional,
			"for_statement":          KindLoop,
			"while_statement":        KindLoop,
			"match_statement":        KindSwitch,
			"case_clause":            KindCaseArm,
			"try_statement":          KindTry,
			"except_clause":          KindCatch,
			"boolean_operator":       KindBoolOp,
			"call":                   KindCall,
			"assignment":             KindDeclaration,
			"import_statement":       KindImport,
			"import_from_statement":  KindImport,
			"identifier":             KindIdentifier,
			"block":                  KindBlock,
		},
		paramLists:    map[string]bool{"parameters": true},
		funcNameField: "name",
		calleeField:   "function",
		declFields:    map[string]string{"assignment": "left"},
		importNames:   pythonImportNames,
	}
}

func pythonImportNames(n *sitter.Node, src []byte) []string {
	var names []string
	bind := func(c *sitter.Node) {
		switch c.Type() {
		case "dotted_name":
			name := c.Content(src)
			if i := strings.Index(name, "."); i >= 0 {
				name = name[:i]
			}
			names = append(names, name)
		case "aliased_import":
			if alias := c.ChildByFieldName("alias"); alias != nil {
				names = append(names, alias.Content(src))
			}
		}
	}
	if n.Type() == "import_from_statement" {
		// "from M import a, b as c" binds a and c, not M.
		module := n.ChildByFieldName("module_name")
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if module != nil && c.StartByte() == module.StartByte() {
				continue
			}
			bind(c)
		}
		return names
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		bind(n.NamedChild(i))
	}
	return names
}

func jsSpec(lang *sitter.Language) *langSpec {
	return &langSpec{
		language: lang,
		kinds: map[string]Kind{
			"function_declaration":           KindFunction,
			"function_expression":            KindFunction,
			"function":                       KindFunction,
			"arrow_function":                 KindFunction,
			"method_definition":              KindFunction,
			"generator_function":             KindFunction,
			"generator_function_declaration": KindFunction,
			"class_declaration":              KindClass,
			"if_statement":                   KindConditional,
			"ternary_expression":             KindConditional,
			"for_statement":                  KindLoop,
			"for_in_statement":               KindLoop,
			"while_statement":                KindLoop,
			"do_statement":                   KindLoop,
			"switch_statement":               KindSwitch,
			"switch_case":                    KindCaseArm,
			"switch_default":                 KindCaseArm,
			"try_statement":                  KindTry,
			"catch_clause":                   KindCatch,
			"call_expression":                KindCall,
			"variable_declarator":            KindDeclaration,
			"import_statement":               KindImport,
			"identifier":                     KindIdentifier,
			"type_identifier":                KindIdentifier,
			"statement_block":                KindBlock,
		},
		boolBinary:    map[string]bool{"binary_expression": true},
		paramLists:    map[string]bool{"formal_parameters": true},
		funcNameField: "name",
		calleeField:   "function",
		declFields:    map[string]string{"variable_declarator": "name"},
		importNames:   jsImportNames,
	}
}

func jsImportNames(n *sitter.Node, src []byte) []string {
	var names []string
	var walk func(c *sitter.Node)
	walk = func(c *sitter.Node) {
		switch c.Type() {
		case "import_specifier":
			if alias := c.ChildByFieldName("alias"); alias != nil {
				names = append(names, alias.Content(src))
			} else if name := c.ChildByFieldName("name"); name != nil {
				names = append(names, name.Content(src))
			}
			return
		case "namespace_import":
			for i := 0; i < int(c.NamedChildCount()); i++ {
				names = append(names, c.NamedChild(i).Content(src))
			}
			return
		case "identifier":
			// Default import binding.
			names = append(names, c.Content(src))
			return
		case "string":
			return
		}
		for i := 0; i < int(c.NamedChildCount()); i++ {
			walk(c.NamedChild(i))
		}
	}
	walk(n)
	return names
}

func javaSpec() *langSpec {
	return &langSpec{
		language: java.GetLanguage(),
		kinds: map[string]Kind{
			"method_declaration":           KindFunction,
			"constructor_declaration":      KindFunction,
			"lambda_expression":            KindFunction,
			"class_declaration":            KindClass,
			"interface_declaration":        KindClass,
			"enum_declaration":             KindClass,
			"if_statement":                 KindConditional,
			"ternary_expression":           KindConditional,
			"for_statement":                KindLoop,
			"enhanced_for_statement":       KindLoop,
			"while_statement":              KindLoop,
			"do_statement":                 KindLoop,
			"switch_expression":            KindSwitch,
			"switch_block_statement_group": KindCaseArm,
			"switch_rule":                  KindCaseArm,
			"try_statement":                KindTry,
			"try_with_resources_statement": KindTry,
			"catch_clause":                 KindCatch,
			"method_invocation":            KindCall,
			"variable_declarator":          KindDeclaration,
			"import_declaration":           KindImport,
			"identifier":                   KindIdentifier,
			"type_identifier":              KindIdentifier,
			"block":                        KindBlock,
		},
		boolBinary:    map[string]bool{"binary_expression": true},
		paramLists:    map[string]bool{"formal_parameters": true},
		funcNameField: "name",
		calleeField:   "name",
		declFields:    map[string]string{"variable_declarator": "name"},
		importNames: func(n *sitter.Node, src []byte) []string {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
					name := c.Content(src)
					if i := strings.LastIndex(name, "."); i >= 0 {
						name = name[i+1:]
					}
					if name == "*" {
						return nil
					}
					return []string{name}
				}
			}
			return nil
		},
	}
}

func cSpec(lang *sitter.Language, isCpp bool) *langSpec {
	kinds := map[string]Kind{
		"function_definition":    KindFunction,
		"if_statement":           KindConditional,
		"conditional_expression": KindConditional,
		"for_statement":          KindLoop,
		"while_statement":        KindLoop,
		"do_statement":           KindLoop,
		"switch_statement":       KindSwitch,
		"case_statement":         KindCaseArm,
		"call_expression":        KindCall,
		"init_declarator":        KindDeclaration,
		"identifier":             KindIdentifier,
		"type_identifier":        KindIdentifier,
		"compound_statement":     KindBlock,
	}
	if isCpp {
		kinds["try_statement"] = KindTry
		kinds["catch_clause"] = KindCatch
		kinds["lambda_expression"] = KindFunction
		kinds["class_specifier"] = KindClass
		kinds["for_range_loop"] = KindLoop
	}
	return &langSpec{
		language:    lang,
		kinds:       kinds,
		boolBinary:  map[string]bool{"binary_expression": true},
		paramLists:  map[string]bool{"parameter_list": true},
		calleeField: "function",
		declFields:  map[string]string{"init_declarator": "declarator"},
		// Headers introduce no trackable bindings.
		importNames: func(n *sitter.Node, src []byte) []string { return nil },
	}
}

func rubySpec() *langSpec {
	return &langSpec{
		language: ruby.GetLanguage(),
		kinds: map[string]Kind{
			"method":           KindFunction,
			"singleton_method": KindFunction,
			"lambda":           KindFunction,
			"class":            KindClass,
			"module":           KindClass,
			"if":               KindConditional,
			"unless":           KindConditional,
			"elsif":            KindConditional,
			"conditional":      KindConditional,
			"if_modifier":      KindConditional,
			"unless_modifier":  KindConditional,
			"while":            KindLoop,
			"until":            KindLoop,
			"for":              KindLoop,
			"while_modifier":   KindLoop,
			"until_modifier":   KindLoop,
			"case":             KindSwitch,
			"when":             KindCaseArm,
			"begin":            KindTry,
			"rescue":           KindCatch,
			"call":             KindCall,
			"assignment":       KindDeclaration,
			"identifier":       KindIdentifier,
			"do_block":         KindBlock,
			"block":            KindBlock,
		},
		boolBinary: map[string]bool{"binary": true},
		paramLists: map[string]bool{
			"method_parameters": true,
			"block_parameters":  true,
			"lambda_parameters": true,
		},
		funcNameField: "name",
		calleeField:   "method",
		declFields:    map[string]string{"assignment": "left"},
		importNames:   func(n *sitter.Node, src []byte) []string { return nil },
	}
}

func rustSpec() *langSpec {
	return &langSpec{
		language: rust.GetLanguage(),
		kinds: map[string]Kind{
			"function_item":        KindFunction,
			"closure_expression":   KindFunction,
			"if_expression":        KindConditional,
			"if_let_expression":    KindConditional,
			"loop_expression":      KindLoop,
			"while_expression":     KindLoop,
			"while_let_expression": KindLoop,
			"for_expression":       KindLoop,
			"match_expression":     KindSwitch,
			"match_arm":            KindCaseArm,
			"call_expression":      KindCall,
			"let_declaration":      KindDeclaration,
			"use_declaration":      KindImport,
			"identifier":           KindIdentifier,
			"type_identifier":      KindIdentifier,
			"block":                KindBlock,
		},
		boolBinary:    map[string]bool{"binary_expression": true},
		paramLists:    map[string]bool{"parameters": true, "closure_parameters": true},
		funcNameField: "name",
		calleeField:   "function",
		declFields:    map[string]string{"let_declaration": "pattern"},
		importNames: func(n *sitter.Node, src []byte) []string {
			arg := n.ChildByFieldName("argument")
			if arg == nil {
				return nil
			}
			path := arg.Content(src)
			if strings.ContainsAny(path, "{*") {
				return nil
			}
			if i := strings.LastIndex(path, "::"); i >= 0 {
				path = path[i+2:]
			}
			return []string{path}
		},
	}
}
