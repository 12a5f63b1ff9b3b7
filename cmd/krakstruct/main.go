// Command krakstruct restructures a CFG — either a JSON description or a
// real Go function loaded via ssabridge — into a structured tree and
// dumps it as indented debug text, in obj/objbrowse/main.go's
// flag/log-driven shape.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-krakatau/krak/cfg"
	"github.com/go-krakatau/krak/restruct"
	"github.com/go-krakatau/krak/setree"
	"github.com/go-krakatau/krak/ssabridge"
)

func main() {
	var pkgPath, funcName string
	flag.StringVar(&pkgPath, "pkg", "", "load a real Go `package` via go/packages instead of a JSON CFG")
	flag.StringVar(&funcName, "func", "", "top-level `function` name within -pkg")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: krakstruct [-pkg path -func name | cfg.json]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var g *cfg.Graph
	var entry cfg.NodeID

	switch {
	case pkgPath != "":
		if funcName == "" {
			log.Fatal("krakstruct: -func is required with -pkg")
		}
		fn, err := ssabridge.LoadFunction(pkgPath, funcName)
		if err != nil {
			log.Fatalf("krakstruct: %v", err)
		}
		g, entry, err = ssabridge.Build(fn)
		if err != nil {
			log.Fatalf("krakstruct: %v", err)
		}
	case flag.NArg() == 1:
		in, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Fatalf("krakstruct: %v", err)
		}
		g, entry, err = decodeGraph(in)
		if err != nil {
			log.Fatalf("krakstruct: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	tree, err := restruct.Structure(g, entry)
	if err != nil {
		log.Fatalf("krakstruct: %v", err)
	}
	dump(os.Stdout, tree, 0)
}

// flatHierarchy answers cfg.Hierarchy from an explicit sub->direct-super
// map, for the JSON CFG front end; ssabridge callers never populate
// exception edges, so no hierarchy is needed on that path.
type flatHierarchy struct {
	parent map[string]string
}

func (h flatHierarchy) IsSubtype(sub, sup string) bool {
	for sub != "" {
		if sub == sup {
			return true
		}
		sub = h.parent[sub]
	}
	return false
}

type wireHandler struct {
	Types []string `json:"types"`
}

type wireNode struct {
	ID       int                    `json:"id"`
	Term     string                 `json:"term"`
	Succs    []int                  `json:"succs"`
	Handlers map[string]wireHandler `json:"handlers,omitempty"`
}

type wireGraph struct {
	Entry     int               `json:"entry"`
	Types     []string          `json:"types"`
	Hierarchy map[string]string `json:"hierarchy,omitempty"`
	Nodes     []wireNode        `json:"nodes"`
}

func decodeGraph(in []byte) (*cfg.Graph, cfg.NodeID, error) {
	var w wireGraph
	if err := json.Unmarshal(in, &w); err != nil {
		return nil, 0, fmt.Errorf("decoding CFG: %w", err)
	}

	universe := cfg.NewUniverse(flatHierarchy{parent: w.Hierarchy}, w.Types)

	g := cfg.New()
	idMap := make(map[int]cfg.NodeID, len(w.Nodes))
	for _, wn := range w.Nodes {
		term, err := termFromString(wn.Term)
		if err != nil {
			return nil, 0, err
		}
		idMap[wn.ID] = g.AddNode(term).ID
	}

	for _, wn := range w.Nodes {
		from := idMap[wn.ID]
		for _, s := range wn.Succs {
			g.AddEdge(from, idMap[s])
		}
		if len(wn.Handlers) == 0 {
			continue
		}
		node := g.Node(from)
		for succStr, h := range wn.Handlers {
			succID, err := strconv.Atoi(succStr)
			if err != nil {
				return nil, 0, fmt.Errorf("decoding CFG: bad handler successor %q: %w", succStr, err)
			}
			node.Handlers[idMap[succID]] = universe.FromTypes(h.Types...)
		}
	}

	entry, ok := idMap[w.Entry]
	if !ok {
		return nil, 0, fmt.Errorf("decoding CFG: entry node %d not present", w.Entry)
	}
	return g, entry, nil
}

func termFromString(s string) (cfg.Terminator, error) {
	switch s {
	case "goto":
		return cfg.TermGoto, nil
	case "if":
		return cfg.TermIf, nil
	case "switch":
		return cfg.TermSwitch, nil
	case "exception":
		return cfg.TermOnException, nil
	case "return":
		return cfg.TermReturn, nil
	default:
		return 0, fmt.Errorf("decoding CFG: unknown terminator %q", s)
	}
}

func dump(w io.Writer, it *setree.Item, depth int) {
	pad := strings.Repeat("  ", depth)
	if it == nil {
		fmt.Fprintf(w, "%s<nil>\n", pad)
		return
	}
	switch it.Kind {
	case setree.KindBlock:
		fmt.Fprintf(w, "%sblock %d\n", pad, it.Node)
	case setree.KindScope:
		fmt.Fprintf(w, "%sscope\n", pad)
		for _, c := range it.Items {
			dump(w, c, depth+1)
		}
	case setree.KindIf:
		fmt.Fprintf(w, "%sif %d\n", pad, it.Head)
		dump(w, it.Scopes[0], depth+1)
		fmt.Fprintf(w, "%selse\n", pad)
		dump(w, it.Scopes[1], depth+1)
	case setree.KindSwitch:
		fmt.Fprintf(w, "%sswitch %d\n", pad, it.Head)
		for i, c := range it.Scopes {
			fmt.Fprintf(w, "%scase %d\n", pad, i)
			dump(w, c, depth+1)
		}
	case setree.KindWhile:
		fmt.Fprintf(w, "%swhile\n", pad)
		dump(w, it.Body, depth+1)
	case setree.KindTry:
		fmt.Fprintf(w, "%stry\n", pad)
		dump(w, it.Try, depth+1)
		fmt.Fprintf(w, "%scatch\n", pad)
		dump(w, it.Catch, depth+1)
	case setree.KindBreak:
		fmt.Fprintf(w, "%sbreak -> %d\n", pad, it.BreakTo)
	}
}
