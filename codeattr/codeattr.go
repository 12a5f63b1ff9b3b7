// Package codeattr assembles a method body — a sequence of labelled
// instructions and directives — into a serialised JVM Code attribute
// (spec.md §4.4): a two-pass label/offset resolver, an exception table
// builder, and an optional line-number table.
package codeattr

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/go-krakatau/krak/asmtree"
	"github.com/go-krakatau/krak/constpool"
	"github.com/go-krakatau/krak/instr"
	"github.com/go-krakatau/krak/krakerr"
)

// Options controls the optional parts of Code-attribute assembly.
type Options struct {
	// EmitLineNumbers, if true, adds a LineNumberTable attribute mapping
	// each instruction's start offset to itself (spec.md §4.4 step 3).
	EmitLineNumbers bool
}

const defaultLimit = 65535

// Assemble lays out and emits the Code attribute body for a method whose
// statements are body — everything after the attribute_name_index and
// attribute_length fields: max_stack, max_locals, the code array, the
// exception table, and the attributes list. It returns (nil, nil) when
// body has no instructions (spec.md §4.4: "or empty when there are no
// statements"), signalling the caller should omit the Code attribute
// entirely.
func Assemble(h *constpool.Handle, body []asmtree.Statement, opts Options) ([]byte, error) {
	hasInstr := false
	for _, s := range body {
		if s.Instruction != nil {
			hasInstr = true
			break
		}
	}
	if !hasInstr {
		return nil, nil
	}

	labelPos, lengths, codeLen, err := layout(body)
	if err != nil {
		return nil, err
	}

	code, lineStarts, err := emit(h, body, labelPos, lengths)
	if err != nil {
		return nil, err
	}
	if len(code) != codeLen {
		panic("codeattr: layout/emit length mismatch")
	}

	excs, err := buildExceptions(h, body, labelPos)
	if err != nil {
		return nil, err
	}

	maxStack, maxLocals := limits(body)

	var attrs [][]byte
	if opts.EmitLineNumbers {
		attrs = append(attrs, lineNumberTable(h, lineStarts))
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(maxStack))
	binary.Write(&buf, binary.BigEndian, uint16(maxLocals))
	binary.Write(&buf, binary.BigEndian, uint32(len(code)))
	buf.Write(code)

	binary.Write(&buf, binary.BigEndian, uint16(len(excs)))
	for _, e := range excs {
		binary.Write(&buf, binary.BigEndian, e)
	}

	binary.Write(&buf, binary.BigEndian, uint16(len(attrs)))
	for _, a := range attrs {
		buf.Write(a)
	}
	return buf.Bytes(), nil
}

// layout is the first pass (spec.md §4.4 step 1): it walks body computing
// each label's byte offset and each instruction's encoded length, without
// resolving any pool reference or label target — only instr.Info.Length,
// which depends solely on the running offset and (for switches) the
// static case count, is needed.
func layout(body []asmtree.Statement) (labelPos map[string]int, lengths []int, total int, err error) {
	labelPos = make(map[string]int)
	lengths = make([]int, len(body))
	pos := 0
	for i, s := range body {
		if s.Label != "" {
			labelPos[s.Label] = pos
		}
		if s.Instruction == nil {
			continue
		}
		info := instr.Lookup(s.Instruction.Op)
		if info == nil {
			return nil, nil, 0, krakerr.New(krakerr.UndefinedLabel, "unknown mnemonic: %s", s.Instruction.Op)
		}
		n := caseCount(info, s.Instruction.Args)
		length := info.Length(pos, n)
		lengths[i] = length
		pos += length
	}
	return labelPos, lengths, pos, nil
}

// caseCount returns the value instr.Info.Length's second argument needs:
// meaningless for fixed-form instructions, the sub-opcode's operand count
// for wide, and the number of switch targets otherwise.
func caseCount(info *instr.Info, args []any) int {
	switch info.Form {
	case instr.FormWide:
		w := args[0].(asmtree.WideOperand)
		sub := instr.Lookup(w.SubOp)
		return sub.OperandCount()
	case instr.FormTableswitch, instr.FormLookupswitch:
		sw := args[0].(asmtree.SwitchOperand)
		return len(sw.Targets)
	default:
		return 0
	}
}

// emit is the second pass (spec.md §4.4 step 2): it re-walks body at the
// offsets layout already computed, producing the final bytes. lineStarts
// collects each instruction's start offset in emission order, for the
// optional line-number table.
func emit(h *constpool.Handle, body []asmtree.Statement, labelPos map[string]int, lengths []int) ([]byte, []int, error) {
	var buf bytes.Buffer
	var lineStarts []int
	pos := 0
	for i, s := range body {
		if s.Instruction == nil {
			continue
		}
		start := pos
		lineStarts = append(lineStarts, start)
		info := instr.Lookup(s.Instruction.Op)
		buf.WriteByte(info.Opcode)

		switch info.Form {
		case instr.FormFixed:
			if err := emitFixed(&buf, h, info, s.Instruction.Args, start, labelPos); err != nil {
				return nil, nil, err
			}
		case instr.FormWide:
			if err := emitWide(&buf, s.Instruction.Args[0].(asmtree.WideOperand)); err != nil {
				return nil, nil, err
			}
		case instr.FormTableswitch:
			if err := emitTableswitch(&buf, s.Instruction.Args[0].(asmtree.SwitchOperand), start, labelPos); err != nil {
				return nil, nil, err
			}
		case instr.FormLookupswitch:
			if err := emitLookupswitch(&buf, s.Instruction.Args[0].(asmtree.SwitchOperand), start, labelPos); err != nil {
				return nil, nil, err
			}
		}
		pos += lengths[i]
	}
	return buf.Bytes(), lineStarts, nil
}

func emitFixed(buf *bytes.Buffer, h *constpool.Handle, info *instr.Info, args []any, start int, labelPos map[string]int) error {
	switch info.Layout {
	case instr.LayoutNone:
		return nil

	case instr.LayoutU8I8:
		// iinc: an unsigned varnum followed by a signed increment.
		buf.WriteByte(byte(toInt64(args[0])))
		return writeSigned(buf, instr.LayoutI8, toInt64(args[1]))

	case instr.LayoutU16U8:
		// invokeinterface/multianewarray: a pool reference followed by a
		// literal count byte (argument count, or array dimensions).
		idx, err := args[0].(poolRefLike).ToIndex(h, nil)
		if err != nil {
			return err
		}
		binary.Write(buf, binary.BigEndian, uint16(idx))
		buf.WriteByte(byte(toInt64(args[1])))
		return nil
	}

	switch {
	case info.IsLabel:
		label := args[0].(string)
		target, ok := labelPos[label]
		if !ok {
			return undefinedLabel(label, labelPos)
		}
		return writeSigned(buf, info.Layout, int64(target-start))

	case info.IsPoolRef:
		idx, err := args[0].(poolRefLike).ToIndex(h, nil)
		if err != nil {
			return err
		}
		return writeUnsigned(buf, info.Layout, int64(idx))

	default:
		return writeSigned(buf, info.Layout, toInt64(args[0]))
	}
}

// poolRefLike is the part of poolref.Ref's method set that emitFixed
// needs. asmtree stores *poolref.Ref directly as an Instruction.Args
// element; the type assertion in emitFixed goes through this local alias
// so codeattr need not import poolref merely to spell the assertion.
type poolRefLike = interface {
	ToIndex(h *constpool.Handle, forbidden []string) (int, error)
}

func toInt64(arg any) int64 {
	switch v := arg.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	panic("codeattr: non-integer literal operand")
}

func writeSigned(buf *bytes.Buffer, layout instr.Layout, v int64) error {
	switch layout {
	case instr.LayoutI8:
		buf.WriteByte(byte(int8(v)))
	case instr.LayoutI16:
		binary.Write(buf, binary.BigEndian, int16(v))
	case instr.LayoutI32:
		binary.Write(buf, binary.BigEndian, int32(v))
	case instr.LayoutU8:
		buf.WriteByte(byte(v))
	default:
		panic("codeattr: unexpected layout for signed literal")
	}
	return nil
}

func writeUnsigned(buf *bytes.Buffer, layout instr.Layout, v int64) error {
	switch layout {
	case instr.LayoutU8:
		buf.WriteByte(byte(v))
	case instr.LayoutU16:
		binary.Write(buf, binary.BigEndian, uint16(v))
	default:
		panic("codeattr: unexpected layout for pool-ref operand")
	}
	return nil
}

func emitWide(buf *bytes.Buffer, w asmtree.WideOperand) error {
	sub := instr.Lookup(w.SubOp)
	if sub == nil {
		return krakerr.New(krakerr.UndefinedLabel, "unknown wide sub-opcode: %s", w.SubOp)
	}
	buf.WriteByte(sub.Opcode)
	for _, a := range w.Args {
		binary.Write(buf, binary.BigEndian, uint16(a))
	}
	return nil
}

func emitTableswitch(buf *bytes.Buffer, sw asmtree.SwitchOperand, start int, labelPos map[string]int) error {
	for i := 0; i < instr.Padding(start); i++ {
		buf.WriteByte(0)
	}
	def, ok := labelPos[sw.Default]
	if !ok {
		return undefinedLabel(sw.Default, labelPos)
	}
	binary.Write(buf, binary.BigEndian, int32(def-start))
	binary.Write(buf, binary.BigEndian, sw.Low)
	binary.Write(buf, binary.BigEndian, sw.Low+int32(len(sw.Targets))-1)
	for _, t := range sw.Targets {
		pos, ok := labelPos[t]
		if !ok {
			return undefinedLabel(t, labelPos)
		}
		binary.Write(buf, binary.BigEndian, int32(pos-start))
	}
	return nil
}

func emitLookupswitch(buf *bytes.Buffer, sw asmtree.SwitchOperand, start int, labelPos map[string]int) error {
	for i := 0; i < instr.Padding(start); i++ {
		buf.WriteByte(0)
	}
	def, ok := labelPos[sw.Default]
	if !ok {
		return undefinedLabel(sw.Default, labelPos)
	}
	binary.Write(buf, binary.BigEndian, int32(def-start))
	binary.Write(buf, binary.BigEndian, int32(len(sw.Keys)))

	type kv struct {
		key    int32
		target string
	}
	pairs := make([]kv, len(sw.Keys))
	for i, k := range sw.Keys {
		pairs[i] = kv{k, sw.Targets[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	for _, p := range pairs {
		pos, ok := labelPos[p.target]
		if !ok {
			return undefinedLabel(p.target, labelPos)
		}
		binary.Write(buf, binary.BigEndian, p.key)
		binary.Write(buf, binary.BigEndian, int32(pos-start))
	}
	return nil
}

func undefinedLabel(label string, labelPos map[string]int) error {
	known := make([]string, 0, len(labelPos))
	for l := range labelPos {
		known = append(known, l)
	}
	sort.Strings(known)
	return krakerr.New(krakerr.UndefinedLabel, "undefined code label: %s", label).WithData(known)
}

// buildExceptions collects "catch" directives into exception_table
// entries. A nil CatchType means "catch every type", encoded as
// catch_type index 0 (spec.md §4.4 step 3); a non-nil CatchType is always
// resolved through the pool, so a catch type spelled "all" gets no
// special treatment.
func buildExceptions(h *constpool.Handle, body []asmtree.Statement, labelPos map[string]int) ([][4]uint16, error) {
	var out [][4]uint16
	for _, s := range body {
		d := s.Directive
		if d == nil || d.Kind != "catch" {
			continue
		}
		from, ok := labelPos[d.From]
		if !ok {
			return nil, undefinedLabel(d.From, labelPos)
		}
		to, ok := labelPos[d.To]
		if !ok {
			return nil, undefinedLabel(d.To, labelPos)
		}
		target, ok := labelPos[d.Target]
		if !ok {
			return nil, undefinedLabel(d.Target, labelPos)
		}
		catchType := 0
		if d.CatchType != nil {
			idx, err := d.CatchType.ToIndex(h, nil)
			if err != nil {
				return nil, err
			}
			catchType = idx
		}
		out = append(out, [4]uint16{uint16(from), uint16(to), uint16(target), uint16(catchType)})
	}
	return out, nil
}

// limits computes max_stack/max_locals: the minimum across every "stack"
// or "locals" directive present, defaulting to 65535 when none appear
// (spec.md §4.4 step 3).
func limits(body []asmtree.Statement) (maxStack, maxLocals int) {
	maxStack, maxLocals = defaultLimit, defaultLimit
	stackSeen, localsSeen := false, false
	for _, s := range body {
		d := s.Directive
		if d == nil {
			continue
		}
		switch d.Kind {
		case "stack":
			if !stackSeen || d.Limit < maxStack {
				maxStack = d.Limit
			}
			stackSeen = true
		case "locals":
			if !localsSeen || d.Limit < maxLocals {
				maxLocals = d.Limit
			}
			localsSeen = true
		}
	}
	return maxStack, maxLocals
}

// lineNumberTable serialises a LineNumberTable attribute mapping each
// instruction's start offset to itself — there is no separate source
// line number in scope, so the byte offset stands in for it (spec.md
// §4.4 step 3).
func lineNumberTable(h *constpool.Handle, starts []int) []byte {
	var buf bytes.Buffer
	nameIdx := h.Utf8("LineNumberTable")
	binary.Write(&buf, binary.BigEndian, uint16(nameIdx))

	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, uint16(len(starts)))
	for _, s := range starts {
		binary.Write(&body, binary.BigEndian, uint16(s))
		binary.Write(&body, binary.BigEndian, uint16(s))
	}
	binary.Write(&buf, binary.BigEndian, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}
