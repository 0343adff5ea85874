// Package vcdcfg is the textual sugar over component.VcdConfig
// described in SPEC_FULL.md §2.2: a small braces-and-colons grammar
// parsed with github.com/alecthomas/participle/v2 (the only pack
// example reaching for a parser-combinator library), compiled straight
// down to the existing Enable/Disable/Module constructors. It never
// introduces a fourth shape — anything parseable here is buildable by
// hand with component.Module(map[string]component.VcdConfig).
package vcdcfg

import (
	"github.com/alecthomas/participle/v2"

	"boardsim/component"
)

// grammar:
//
//	node  = ( "enable" | "disable" | "module" ) [ "{" [ field ("," field)* ] "}" ] .
//	field = ident ":" node .
//
// Fields after "enable" or "disable" parse but are ignored.
type grammarNode struct {
	Kind   string          `parser:"@(\"enable\"|\"disable\"|\"module\")"`
	Fields []*grammarField `parser:"(\"{\" (@@ (\",\" @@)*)? \"}\")?"`
}

type grammarField struct {
	Name string       `parser:"@Ident \":\""`
	Node *grammarNode `parser:"@@"`
}

type grammarRoot struct {
	Root *grammarNode `parser:"@@"`
}

var parser = participle.MustBuild[grammarRoot]()

// Parse compiles src into a component.VcdConfig tree.
func Parse(src string) (component.VcdConfig, error) {
	g, err := parser.ParseString("", src)
	if err != nil {
		return component.VcdConfig{}, err
	}
	return toConfig(g.Root), nil
}

func toConfig(n *grammarNode) component.VcdConfig {
	switch n.Kind {
	case "disable":
		return component.Disable()
	case "module":
		children := make(map[string]component.VcdConfig, len(n.Fields))
		for _, f := range n.Fields {
			children[f.Name] = toConfig(f.Node)
		}
		return component.Module(children)
	default:
		return component.Enable()
	}
}
