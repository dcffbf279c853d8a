package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"bril/interpreter-go/pkg/blocks"
	"bril/interpreter-go/pkg/cfg"
	"bril/interpreter-go/pkg/driver"
	"gopkg.in/yaml.v3"
)

type graphFunction struct {
	Function string       `yaml:"function"`
	Blocks   []graphBlock `yaml:"blocks"`
}

type graphBlock struct {
	Name         string   `yaml:"name"`
	Instructions int      `yaml:"instructions"`
	Successors   []string `yaml:"successors,omitempty"`
	Predecessors []string `yaml:"predecessors,omitempty"`
	Idom         string   `yaml:"idom,omitempty"`
	Reachable    bool     `yaml:"reachable"`
}

func runGraph(args []string) int {
	var (
		format     = "yaml"
		only       string
		positional []string
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !looksLikeFlag(arg) {
			positional = append(positional, arg)
			continue
		}
		if value, skip, ok, err := flagValue(args, i, "--format"); ok {
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return exitUsage
			}
			format = strings.ToLower(value)
			i += skip
			continue
		}
		if value, skip, ok, err := flagValue(args, i, "--func"); ok {
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return exitUsage
			}
			only = strings.TrimPrefix(value, "@")
			i += skip
			continue
		}
		fmt.Fprintf(os.Stderr, "unknown flag %s\n", arg)
		return exitUsage
	}
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "brili graph expects exactly one program file")
		return exitUsage
	}
	if format != "yaml" && format != "dot" {
		fmt.Fprintf(os.Stderr, "unknown --format value '%s' (expected yaml or dot)\n", format)
		return exitUsage
	}

	prog, err := driver.LoadProgram(positional[0], os.Stdin)
	if err != nil {
		return reportError(err, "")
	}
	built, err := blocks.Build(prog)
	if err != nil {
		return reportError(err, "")
	}
	var fns []*blocks.Function
	if only != "" {
		fn, ok := built.Lookup(only)
		if !ok {
			fmt.Fprintf(os.Stderr, "no function @%s in %s\n", only, positional[0])
			return exitUsage
		}
		fns = append(fns, fn)
	} else {
		fns = built.Functions
	}

	graphs := make([]*cfg.Graph, 0, len(fns))
	for _, fn := range fns {
		graphs = append(graphs, cfg.Build(fn))
	}
	if format == "dot" {
		err = writeDot(os.Stdout, graphs)
	} else {
		err = writeGraphYAML(os.Stdout, fns, graphs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write graph: %v\n", err)
		return exitUsage
	}
	return 0
}

func describeGraph(fn *blocks.Function, g *cfg.Graph) graphFunction {
	out := graphFunction{Function: g.Function, Blocks: make([]graphBlock, len(g.Nodes))}
	names := func(idx []int) []string {
		if len(idx) == 0 {
			return nil
		}
		s := make([]string, len(idx))
		for i, b := range idx {
			s[i] = g.Nodes[b].Name
		}
		return s
	}
	for i, node := range g.Nodes {
		block := graphBlock{
			Name:         node.Name,
			Instructions: len(fn.Blocks[node.Block].Instrs),
			Successors:   names(node.Successors),
			Predecessors: names(node.Predecessors),
			Reachable:    node.Reachable,
		}
		if idom := g.ImmediateDominator(i); idom >= 0 {
			block.Idom = g.Nodes[idom].Name
		}
		out.Blocks[i] = block
	}
	return out
}

func writeGraphYAML(w io.Writer, fns []*blocks.Function, graphs []*cfg.Graph) error {
	docs := make([]graphFunction, len(graphs))
	for i, g := range graphs {
		docs[i] = describeGraph(fns[i], g)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}

func writeDot(w io.Writer, graphs []*cfg.Graph) error {
	var b strings.Builder
	for _, g := range graphs {
		fmt.Fprintf(&b, "digraph %q {\n", g.Function)
		for _, node := range g.Nodes {
			if node.Reachable {
				fmt.Fprintf(&b, "  %q;\n", node.Name)
			} else {
				fmt.Fprintf(&b, "  %q [style=dashed];\n", node.Name)
			}
		}
		for _, node := range g.Nodes {
			for _, succ := range node.Successors {
				fmt.Fprintf(&b, "  %q -> %q;\n", node.Name, g.Nodes[succ].Name)
			}
		}
		b.WriteString("}\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
