package main

import (
	"testing"

	"github.com/go-krakatau/krak/assembler"
	"github.com/go-krakatau/krak/asmtree"
)

func TestDecodeRefVariants(t *testing.T) {
	cases := []string{
		`{"kind":"direct","index":5}`,
		`{"kind":"label","label":"L"}`,
		`{"kind":"utf8","text":"hello"}`,
		`{"kind":"int","int":42}`,
		`{"kind":"class","text":"java/lang/Object"}`,
		`{"kind":"string","text":"hi"}`,
	}
	for _, j := range cases {
		ref, err := decodeRef([]byte(j))
		if err != nil {
			t.Errorf("decodeRef(%s): %v", j, err)
			continue
		}
		if ref == nil {
			t.Errorf("decodeRef(%s) = nil", j)
		}
	}
}

func TestDecodeRefEmptyIsNil(t *testing.T) {
	ref, err := decodeRef(nil)
	if err != nil || ref != nil {
		t.Fatalf("decodeRef(nil) = %v, %v, want nil, nil", ref, err)
	}
}

func TestDecodeRefUnknownKindErrors(t *testing.T) {
	if _, err := decodeRef([]byte(`{"kind":"bogus"}`)); err == nil {
		t.Fatalf("decodeRef: want an error for an unknown kind, got nil")
	}
}

func TestDecodeArgDistinguishesLiteralsAndOperands(t *testing.T) {
	if v, err := decodeArg([]byte(`123`)); err != nil || v.(int64) != 123 {
		t.Fatalf("decodeArg(123) = %v, %v, want int64(123), nil", v, err)
	}
	if v, err := decodeArg([]byte(`"L1"`)); err != nil || v.(string) != "L1" {
		t.Fatalf(`decodeArg("L1") = %v, %v, want "L1", nil`, v, err)
	}
	sw, err := decodeArg([]byte(`{"low":0,"targets":["a","b"],"default":"d"}`))
	if err != nil {
		t.Fatalf("decodeArg(switch): %v", err)
	}
	op, ok := sw.(asmtree.SwitchOperand)
	if !ok || op.Default != "d" || len(op.Targets) != 2 {
		t.Fatalf("decodeArg(switch) = %#v, want a SwitchOperand", sw)
	}

	wide, err := decodeArg([]byte(`{"subop":"iinc","args":[1,2]}`))
	if err != nil {
		t.Fatalf("decodeArg(wide): %v", err)
	}
	w, ok := wide.(asmtree.WideOperand)
	if !ok || w.SubOp != "iinc" {
		t.Fatalf("decodeArg(wide) = %#v, want a WideOperand", wide)
	}
}

func TestDecodeTreeRoundTripsAMinimalClass(t *testing.T) {
	src := `{
		"class": {
			"flags": ["public"],
			"this": {"kind":"class","text":"Foo"}
		},
		"methods": [
			{
				"flags": ["public"],
				"name": {"kind":"utf8","text":"m"},
				"desc": {"kind":"utf8","text":"()V"},
				"body": [
					{"instruction": {"op":"return"}}
				]
			}
		]
	}`
	tree, err := decodeTree([]byte(src))
	if err != nil {
		t.Fatalf("decodeTree: %v", err)
	}
	if len(tree.Methods) != 1 {
		t.Fatalf("methods = %d, want 1", len(tree.Methods))
	}

	out, err := assembler.Assemble(tree, assembler.Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if string(out[0:4]) != "\xCA\xFE\xBA\xBE" {
		t.Fatalf("magic = % x, want CAFEBABE", out[0:4])
	}
}

func TestDecodeTreeRejectsMalformedJSON(t *testing.T) {
	if _, err := decodeTree([]byte(`not json`)); err == nil {
		t.Fatalf("decodeTree: want an error for malformed JSON, got nil")
	}
}
