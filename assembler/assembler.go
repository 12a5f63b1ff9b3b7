// Package assembler turns a parsed assembly tree (package asmtree) into a
// serialised class file (spec.md §6): it wires the constant pool, pool
// reference resolution, and the code-attribute assembler together and
// lays out the remaining class-file structure around them.
package assembler

import (
	"bytes"
	"encoding/binary"

	"github.com/go-krakatau/krak/asmtree"
	"github.com/go-krakatau/krak/codeattr"
	"github.com/go-krakatau/krak/constpool"
	"github.com/go-krakatau/krak/krakerr"
)

var classMagic = [4]byte{0xCA, 0xFE, 0xBA, 0xBE}

// Options controls the parts of assembly spec.md leaves as defaults.
type Options struct {
	// MajorVersion/MinorVersion default to 49/0 when zero.
	MajorVersion uint16
	MinorVersion uint16
	// LineNumbers, if true, asks codeattr to emit a LineNumberTable for
	// every method body.
	LineNumbers bool
}

func (o Options) major() uint16 {
	if o.MajorVersion == 0 {
		return 49
	}
	return o.MajorVersion
}

// Assemble serialises tree into a class file.
func Assemble(tree *asmtree.Tree, opts Options) ([]byte, error) {
	pool := constpool.NewBasicPool()
	h := constpool.NewHandle(pool)

	for _, c := range tree.Consts {
		h.BindLabel(c.Label, c.Value)
	}

	thisIdx, err := tree.Class.This.ToIndex(h, nil)
	if err != nil {
		return nil, err
	}

	var superIdx int
	if tree.Class.Super != nil {
		superIdx, err = tree.Class.Super.ToIndex(h, nil)
		if err != nil {
			return nil, err
		}
	}

	interfaceIdxs := make([]int, len(tree.Class.Interfaces))
	for i, ifc := range tree.Class.Interfaces {
		interfaceIdxs[i], err = ifc.ToIndex(h, nil)
		if err != nil {
			return nil, err
		}
	}

	fieldBlobs := make([][]byte, len(tree.Fields))
	for i, f := range tree.Fields {
		fieldBlobs[i], err = fieldBytes(h, f)
		if err != nil {
			return nil, err
		}
	}

	methodBlobs := make([][]byte, len(tree.Methods))
	for i, m := range tree.Methods {
		methodBlobs[i], err = methodBytes(h, m, opts)
		if err != nil {
			return nil, err
		}
	}

	// Every Intern/BindLabel call has now happened; the pool's byte
	// representation is final. Layout follows JVM spec §4.1 exactly:
	// magic, version, constant pool, access flags, this/super,
	// interfaces, fields, methods, attributes.
	var buf bytes.Buffer
	buf.Write(classMagic[:])
	binary.Write(&buf, binary.BigEndian, opts.MinorVersion)
	binary.Write(&buf, binary.BigEndian, opts.major())
	buf.Write(h.RawBytes())

	flags, err := classFlags(tree.Class.Flags)
	if err != nil {
		return nil, err
	}
	binary.Write(&buf, binary.BigEndian, flags)
	binary.Write(&buf, binary.BigEndian, uint16(thisIdx))
	binary.Write(&buf, binary.BigEndian, uint16(superIdx))

	binary.Write(&buf, binary.BigEndian, uint16(len(interfaceIdxs)))
	for _, idx := range interfaceIdxs {
		binary.Write(&buf, binary.BigEndian, uint16(idx))
	}

	binary.Write(&buf, binary.BigEndian, uint16(len(fieldBlobs)))
	for _, fb := range fieldBlobs {
		buf.Write(fb)
	}

	binary.Write(&buf, binary.BigEndian, uint16(len(methodBlobs)))
	for _, mb := range methodBlobs {
		buf.Write(mb)
	}

	// No class-level attributes (SourceFile, etc.) are in scope.
	binary.Write(&buf, binary.BigEndian, uint16(0))

	return buf.Bytes(), nil
}

func fieldBytes(h *constpool.Handle, f asmtree.FieldDecl) ([]byte, error) {
	nameIdx, err := f.Name.ToIndex(h, nil)
	if err != nil {
		return nil, err
	}
	descIdx, err := f.Desc.ToIndex(h, nil)
	if err != nil {
		return nil, err
	}

	var attrs [][]byte
	if f.Const != nil {
		constIdx, err := f.Const.ToIndex(h, nil)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, constantValueAttr(h, constIdx))
	}

	flagBits, err := fieldFlags(f.Flags)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, flagBits)
	binary.Write(&buf, binary.BigEndian, uint16(nameIdx))
	binary.Write(&buf, binary.BigEndian, uint16(descIdx))
	binary.Write(&buf, binary.BigEndian, uint16(len(attrs)))
	for _, a := range attrs {
		buf.Write(a)
	}
	return buf.Bytes(), nil
}

func constantValueAttr(h *constpool.Handle, constIdx int) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(h.Utf8("ConstantValue")))
	binary.Write(&buf, binary.BigEndian, uint32(2))
	binary.Write(&buf, binary.BigEndian, uint16(constIdx))
	return buf.Bytes()
}

func methodBytes(h *constpool.Handle, m asmtree.MethodDecl, opts Options) ([]byte, error) {
	nameIdx, err := m.Name.ToIndex(h, nil)
	if err != nil {
		return nil, err
	}
	descIdx, err := m.Desc.ToIndex(h, nil)
	if err != nil {
		return nil, err
	}

	codeBody, err := codeattr.Assemble(h, m.Body, codeattr.Options{EmitLineNumbers: opts.LineNumbers})
	if err != nil {
		return nil, err
	}

	var attrs [][]byte
	if codeBody != nil {
		var c bytes.Buffer
		binary.Write(&c, binary.BigEndian, uint16(h.Utf8("Code")))
		binary.Write(&c, binary.BigEndian, uint32(len(codeBody)))
		c.Write(codeBody)
		attrs = append(attrs, c.Bytes())
	}

	flagBits, err := methodFlags(m.Flags)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, flagBits)
	binary.Write(&buf, binary.BigEndian, uint16(nameIdx))
	binary.Write(&buf, binary.BigEndian, uint16(descIdx))
	binary.Write(&buf, binary.BigEndian, uint16(len(attrs)))
	for _, a := range attrs {
		buf.Write(a)
	}
	return buf.Bytes(), nil
}

// Access flag bit tables (JVM spec §4.1/§4.5/§4.6). Each table only lists
// the flags meaningful for that member kind; an unrecognised flag word is
// a parser-level concern, not this assembler's, but one reaching here is
// still rejected rather than silently dropped, since a silently-ignored
// flag would produce a class file the caller did not ask for.
var classFlagBits = map[string]uint16{
	"public": 0x0001, "final": 0x0010, "super": 0x0020,
	"interface": 0x0200, "abstract": 0x0400,
	"synthetic": 0x1000, "annotation": 0x2000, "enum": 0x4000,
}

var fieldFlagBits = map[string]uint16{
	"public": 0x0001, "private": 0x0002, "protected": 0x0004,
	"static": 0x0008, "final": 0x0010, "volatile": 0x0040,
	"transient": 0x0080, "synthetic": 0x1000, "enum": 0x4000,
}

var methodFlagBits = map[string]uint16{
	"public": 0x0001, "private": 0x0002, "protected": 0x0004,
	"static": 0x0008, "final": 0x0010, "synchronized": 0x0020,
	"bridge": 0x0040, "varargs": 0x0080, "native": 0x0100,
	"abstract": 0x0400, "strict": 0x0800, "synthetic": 0x1000,
}

func classFlags(flags []string) (uint16, error)  { return sumFlags(classFlagBits, flags) }
func fieldFlags(flags []string) (uint16, error)  { return sumFlags(fieldFlagBits, flags) }
func methodFlags(flags []string) (uint16, error) { return sumFlags(methodFlagBits, flags) }

func sumFlags(table map[string]uint16, flags []string) (uint16, error) {
	var v uint16
	for _, f := range flags {
		bit, ok := table[f]
		if !ok {
			return 0, krakerr.New(krakerr.UnknownFlag, "unrecognised access flag %q", f)
		}
		v |= bit
	}
	return v, nil
}
