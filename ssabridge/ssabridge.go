// Package ssabridge builds a cfg.Graph from a golang.org/x/tools/go/ssa
// function, so restruct.Structure can run against real compiled Go
// control flow instead of only JVM bytecode (SPEC_FULL.md "Domain
// stack").
//
// go/ssa has no native multi-way switch terminator (Go's own switch
// statements are lowered to a chain of *ssa.If blocks) and no CFG-level
// exception edges (panics are ordinary calls, recover is a builtin, not
// a control edge), so Build only ever emits cfg.TermGoto, cfg.TermIf,
// and cfg.TermReturn nodes. restruct.Structure still handles such a
// graph correctly — its TagSwitch and TagTry passes simply never fire
// for ssabridge-sourced input. This is documented in DESIGN.md as a
// known, deliberate limitation of bridging Go control flow into a
// JVM-flavored restructurer, not a bug.
package ssabridge

import (
	"fmt"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/go-krakatau/krak/cfg"
)

// Build converts fn's basic blocks into a cfg.Graph and returns the
// node id standing in for its entry block. fn must have a body (Blocks
// non-empty); external/intrinsic functions are rejected.
func Build(fn *ssa.Function) (*cfg.Graph, cfg.NodeID, error) {
	if len(fn.Blocks) == 0 {
		return nil, 0, fmt.Errorf("ssabridge: %s has no body", fn)
	}

	g := cfg.New()
	ids := make([]cfg.NodeID, len(fn.Blocks))
	for _, b := range fn.Blocks {
		ids[b.Index] = g.AddNode(termOf(b)).ID
	}
	for _, b := range fn.Blocks {
		from := ids[b.Index]
		for _, s := range b.Succs {
			g.AddEdge(from, ids[s.Index])
		}
	}
	return g, ids[fn.Blocks[0].Index], nil
}

func termOf(b *ssa.BasicBlock) cfg.Terminator {
	if len(b.Instrs) == 0 {
		return cfg.TermGoto
	}
	switch b.Instrs[len(b.Instrs)-1].(type) {
	case *ssa.If:
		return cfg.TermIf
	case *ssa.Return, *ssa.Panic:
		return cfg.TermReturn
	default:
		return cfg.TermGoto
	}
}

// LoadFunction loads the package at pkgPath with golang.org/x/tools/go/
// packages, builds its SSA form, and returns the named top-level
// function (method names are not resolved by this helper).
func LoadFunction(pkgPath, funcName string) (*ssa.Function, error) {
	cfgLoad := &packages.Config{Mode: packages.LoadAllSyntax}
	pkgs, err := packages.Load(cfgLoad, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("ssabridge: loading %s: %w", pkgPath, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("ssabridge: %s failed to type-check", pkgPath)
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()

	for _, p := range ssaPkgs {
		if p == nil {
			continue
		}
		if member, ok := p.Members[funcName]; ok {
			if fn, ok := member.(*ssa.Function); ok {
				return fn, nil
			}
		}
	}
	return nil, fmt.Errorf("ssabridge: function %s not found in %s", funcName, pkgPath)
}
