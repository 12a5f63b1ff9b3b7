// Command krakasm reads a JSON-encoded assembly tree and writes the
// class file it assembles to (spec.md §6), in the shape
// obj/objbrowse/main.go's flag/log-driven entry point takes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-krakatau/krak/assembler"
	"github.com/go-krakatau/krak/asmtree"
	"github.com/go-krakatau/krak/constpool"
	"github.com/go-krakatau/krak/poolref"
)

func main() {
	var (
		outPath  string
		lineNums bool
		major    int
	)
	flag.StringVar(&outPath, "o", "", "output .class `path` (default: stdout)")
	flag.BoolVar(&lineNums, "g", false, "emit a LineNumberTable per method")
	flag.IntVar(&major, "major", 49, "class file major `version`")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: krakasm [flags] tree.json\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	in, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("krakasm: %v", err)
	}

	tree, err := decodeTree(in)
	if err != nil {
		log.Fatalf("krakasm: %v", err)
	}

	out, err := assembler.Assemble(tree, assembler.Options{
		MajorVersion: uint16(major),
		LineNumbers:  lineNums,
	})
	if err != nil {
		log.Fatalf("krakasm: %v", err)
	}

	if outPath == "" {
		if _, err := os.Stdout.Write(out); err != nil {
			log.Fatalf("krakasm: %v", err)
		}
		return
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		log.Fatalf("krakasm: %v", err)
	}
}

// The wire* types below are a deliberately constrained JSON embedding of
// asmtree.Tree: named-thing references (class/field/method names,
// descriptors) are plain string shorthands rather than full nested ref
// objects, since that is the overwhelming common case for a hand- or
// tool-authored assembly tree. Advanced cases (deferred/labelled
// constants, direct-index aliasing) still go through poolref's full
// generality via ref kind "label"/"direct". Documented in DESIGN.md.

type wireTree struct {
	Class   wireClass    `json:"class"`
	Consts  []wireConst  `json:"consts"`
	Fields  []wireField  `json:"fields"`
	Methods []wireMethod `json:"methods"`
}

type wireClass struct {
	Flags      []string          `json:"flags"`
	This       json.RawMessage   `json:"this"`
	Super      json.RawMessage   `json:"super"`
	Interfaces []json.RawMessage `json:"interfaces"`
}

type wireConst struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
}

type wireField struct {
	Flags []string        `json:"flags"`
	Name  json.RawMessage `json:"name"`
	Desc  json.RawMessage `json:"desc"`
	Const json.RawMessage `json:"const,omitempty"`
}

type wireMethod struct {
	Flags []string        `json:"flags"`
	Name  json.RawMessage `json:"name"`
	Desc  json.RawMessage `json:"desc"`
	Body  []wireStatement `json:"body"`
}

type wireStatement struct {
	Label       string           `json:"label,omitempty"`
	Directive   *wireDirective   `json:"directive,omitempty"`
	Instruction *wireInstruction `json:"instruction,omitempty"`
}

type wireDirective struct {
	Kind      string          `json:"kind"`
	CatchType json.RawMessage `json:"catchType,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Target    string          `json:"target,omitempty"`
	Limit     int             `json:"limit,omitempty"`
}

type wireInstruction struct {
	Op   string            `json:"op"`
	Args []json.RawMessage `json:"args,omitempty"`
}

type wireRef struct {
	Kind  string `json:"kind"`
	Index int    `json:"index,omitempty"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text,omitempty"`
	Int   int32  `json:"int,omitempty"`
	Name  string `json:"name,omitempty"`
	Desc  string `json:"desc,omitempty"`
	Class string `json:"class,omitempty"`
}

type wireSwitch struct {
	Low     int32    `json:"low"`
	Targets []string `json:"targets"`
	Keys    []int32  `json:"keys,omitempty"`
	Default string   `json:"default"`
}

type wireWide struct {
	SubOp string `json:"subop"`
	Args  []int  `json:"args"`
}

func decodeTree(in []byte) (*asmtree.Tree, error) {
	var w wireTree
	if err := json.Unmarshal(in, &w); err != nil {
		return nil, fmt.Errorf("decoding assembly tree: %w", err)
	}

	this, err := decodeRef(w.Class.This)
	if err != nil {
		return nil, err
	}
	super, err := decodeRef(w.Class.Super)
	if err != nil {
		return nil, err
	}
	var interfaces []*poolref.Ref
	for _, raw := range w.Class.Interfaces {
		r, err := decodeRef(raw)
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, r)
	}

	tree := &asmtree.Tree{
		Class: asmtree.ClassDecl{
			Flags:      w.Class.Flags,
			This:       this,
			Super:      super,
			Interfaces: interfaces,
		},
	}

	for _, wc := range w.Consts {
		v, err := decodeRef(wc.Value)
		if err != nil {
			return nil, err
		}
		tree.Consts = append(tree.Consts, asmtree.ConstBinding{Label: wc.Label, Value: v})
	}

	for _, wf := range w.Fields {
		name, err := decodeRef(wf.Name)
		if err != nil {
			return nil, err
		}
		desc, err := decodeRef(wf.Desc)
		if err != nil {
			return nil, err
		}
		var constRef *poolref.Ref
		if len(wf.Const) > 0 {
			constRef, err = decodeRef(wf.Const)
			if err != nil {
				return nil, err
			}
		}
		tree.Fields = append(tree.Fields, asmtree.FieldDecl{
			Flags: wf.Flags, Name: name, Desc: desc, Const: constRef,
		})
	}

	for _, wm := range w.Methods {
		name, err := decodeRef(wm.Name)
		if err != nil {
			return nil, err
		}
		desc, err := decodeRef(wm.Desc)
		if err != nil {
			return nil, err
		}
		var body []asmtree.Statement
		for _, ws := range wm.Body {
			st, err := decodeStatement(ws)
			if err != nil {
				return nil, err
			}
			body = append(body, st)
		}
		tree.Methods = append(tree.Methods, asmtree.MethodDecl{
			Flags: wm.Flags, Name: name, Desc: desc, Body: body,
		})
	}

	return tree, nil
}

func decodeStatement(ws wireStatement) (asmtree.Statement, error) {
	st := asmtree.Statement{Label: ws.Label}
	if ws.Directive != nil {
		d := ws.Directive
		var catch *poolref.Ref
		if len(d.CatchType) > 0 {
			var err error
			catch, err = decodeRef(d.CatchType)
			if err != nil {
				return st, err
			}
		}
		st.Directive = &asmtree.Directive{
			Kind: d.Kind, CatchType: catch, From: d.From, To: d.To, Target: d.Target, Limit: d.Limit,
		}
	}
	if ws.Instruction != nil {
		var args []any
		for _, raw := range ws.Instruction.Args {
			a, err := decodeArg(raw)
			if err != nil {
				return st, err
			}
			args = append(args, a)
		}
		st.Instruction = &asmtree.Instruction{Op: ws.Instruction.Op, Args: args}
	}
	return st, nil
}

func decodeArg(raw json.RawMessage) (any, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	switch v := probe.(type) {
	case float64:
		return int64(v), nil
	case string:
		return v, nil
	case map[string]any:
		if _, ok := v["low"]; ok {
			var w wireSwitch
			if err := json.Unmarshal(raw, &w); err != nil {
				return nil, err
			}
			return asmtree.SwitchOperand{Low: w.Low, Targets: w.Targets, Keys: w.Keys, Default: w.Default}, nil
		}
		if _, ok := v["subop"]; ok {
			var w wireWide
			if err := json.Unmarshal(raw, &w); err != nil {
				return nil, err
			}
			return asmtree.WideOperand{SubOp: w.SubOp, Args: w.Args}, nil
		}
		return decodeRef(raw)
	default:
		return nil, fmt.Errorf("unrecognized instruction argument %s", raw)
	}
}

func decodeRef(raw json.RawMessage) (*poolref.Ref, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var w wireRef
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case "direct":
		return poolref.NewDirect(w.Index), nil
	case "label":
		return poolref.NewLabelled(w.Label), nil
	case "utf8":
		return poolref.NewStructural(constpool.TagUtf8, w.Text), nil
	case "int":
		return poolref.NewStructural(constpool.TagInteger, w.Int), nil
	case "class":
		return poolref.NewStructural(constpool.TagClass, poolref.NewStructural(constpool.TagUtf8, w.Text)), nil
	case "nameandtype":
		return poolref.NewStructural(constpool.TagNameAndType,
			poolref.NewStructural(constpool.TagUtf8, w.Name),
			poolref.NewStructural(constpool.TagUtf8, w.Desc)), nil
	case "fieldref", "methodref", "interfacemethodref":
		var tag constpool.Tag
		switch w.Kind {
		case "fieldref":
			tag = constpool.TagFieldref
		case "methodref":
			tag = constpool.TagMethodref
		default:
			tag = constpool.TagInterfaceMethodref
		}
		classRef := poolref.NewStructural(constpool.TagClass, poolref.NewStructural(constpool.TagUtf8, w.Class))
		ntRef := poolref.NewStructural(constpool.TagNameAndType,
			poolref.NewStructural(constpool.TagUtf8, w.Name),
			poolref.NewStructural(constpool.TagUtf8, w.Desc))
		return poolref.NewStructural(tag, classRef, ntRef), nil
	case "string":
		return poolref.NewStructural(constpool.TagString, poolref.NewStructural(constpool.TagUtf8, w.Text)), nil
	default:
		return nil, fmt.Errorf("unknown ref kind %q", w.Kind)
	}
}
