// Package instr is the JVM instruction catalogue (spec.md §4.3): a static
// table mapping mnemonics to opcode bytes and operand layouts, with the
// length/padding arithmetic the code-attribute assembler needs.
package instr

import "fmt"

// Layout identifies the operand encoding of a fixed-layout instruction.
type Layout uint8

const (
	LayoutNone   Layout = iota // ""
	LayoutU8                   // u8
	LayoutI8                   // i8
	LayoutU16                  // u16
	LayoutI16                  // i16
	LayoutI32                  // i32
	LayoutU8I8                 // u8 i8
	LayoutU16U8                // u16 u8
)

// sizeof is the encoded operand length for each fixed Layout (spec.md
// §4.3: "the encoded length is 1 + sizeof(format)").
var sizeof = map[Layout]int{
	LayoutNone:  0,
	LayoutU8:    1,
	LayoutI8:    1,
	LayoutU16:   2,
	LayoutI16:   2,
	LayoutI32:   4,
	LayoutU8I8:  2,
	LayoutU16U8: 3,
}

// fieldCount is how many discrete operand fields a Layout has — used to
// compute a wide-prefixed sub-opcode's widened operand count (spec.md
// §4.3: "2 × operand-count-of-subop").
var fieldCount = map[Layout]int{
	LayoutNone:  0,
	LayoutU8:    1,
	LayoutI8:    1,
	LayoutU16:   1,
	LayoutI16:   1,
	LayoutI32:   1,
	LayoutU8I8:  2,
	LayoutU16U8: 2,
}

// OperandCount returns the number of discrete operand fields info's normal
// (non-widened) layout has, e.g. 1 for iload (a single varnum), 2 for iinc
// (varnum and a constant). Meaningful only for opcodes valid after "wide".
func (info *Info) OperandCount() int {
	return fieldCount[info.Layout]
}

// Form distinguishes the four instruction shapes spec.md §4.3 describes.
type Form uint8

const (
	FormFixed Form = iota
	FormWide
	FormTableswitch
	FormLookupswitch
)

// Info is one instruction catalogue entry.
type Info struct {
	Mnemonic string
	Opcode   byte
	Form     Form
	Layout   Layout // meaningful only when Form == FormFixed

	// IsLabel reports whether the sole immediate operand of a fixed
	// instruction is a code label to be resolved to a relative offset
	// (true for all branch instructions) rather than a literal value or
	// pool reference.
	IsLabel bool
	// IsPoolRef reports whether the sole immediate operand is a
	// constant-pool reference.
	IsPoolRef bool
}

var (
	byMnemonic = map[string]*Info{}
	byOpcode   [256]*Info
)

func def(mnemonic string, opcode byte, form Form, layout Layout, isLabel, isPoolRef bool) {
	info := &Info{Mnemonic: mnemonic, Opcode: opcode, Form: form, Layout: layout, IsLabel: isLabel, IsPoolRef: isPoolRef}
	byMnemonic[mnemonic] = info
	byOpcode[opcode] = info
}

func init() {
	// Opcode bytes are JVM spec §6.5 values; this table needs entries
	// for every opcode an assembler might see, not just the S1/S2
	// illustrative subset in spec.md §8. The JVM opcode space is not
	// contiguous once branch/pool/var-length ops are interleaved, so
	// each row states its opcode explicitly rather than incrementing.
	fixedOps := []struct {
		name      string
		op        byte
		layout    Layout
		isLabel   bool
		isPoolRef bool
	}{
		{"nop", 0x00, LayoutNone, false, false},
		{"aconst_null", 0x01, LayoutNone, false, false},
		{"iconst_m1", 0x02, LayoutNone, false, false},
		{"iconst_0", 0x03, LayoutNone, false, false},
		{"iconst_1", 0x04, LayoutNone, false, false},
		{"iconst_2", 0x05, LayoutNone, false, false},
		{"iconst_3", 0x06, LayoutNone, false, false},
		{"iconst_4", 0x07, LayoutNone, false, false},
		{"iconst_5", 0x08, LayoutNone, false, false},
		{"lconst_0", 0x09, LayoutNone, false, false},
		{"lconst_1", 0x0a, LayoutNone, false, false},
		{"fconst_0", 0x0b, LayoutNone, false, false},
		{"fconst_1", 0x0c, LayoutNone, false, false},
		{"fconst_2", 0x0d, LayoutNone, false, false},
		{"dconst_0", 0x0e, LayoutNone, false, false},
		{"dconst_1", 0x0f, LayoutNone, false, false},
		{"bipush", 0x10, LayoutI8, false, false},
		{"sipush", 0x11, LayoutI16, false, false},
		{"ldc", 0x12, LayoutU8, false, true},
		{"ldc_w", 0x13, LayoutU16, false, true},
		{"ldc2_w", 0x14, LayoutU16, false, true},
		{"iload", 0x15, LayoutU8, false, false},
		{"lload", 0x16, LayoutU8, false, false},
		{"fload", 0x17, LayoutU8, false, false},
		{"dload", 0x18, LayoutU8, false, false},
		{"aload", 0x19, LayoutU8, false, false},
		{"iload_0", 0x1a, LayoutNone, false, false},
		{"iload_1", 0x1b, LayoutNone, false, false},
		{"iload_2", 0x1c, LayoutNone, false, false},
		{"iload_3", 0x1d, LayoutNone, false, false},
		{"lload_0", 0x1e, LayoutNone, false, false},
		{"lload_1", 0x1f, LayoutNone, false, false},
		{"lload_2", 0x20, LayoutNone, false, false},
		{"lload_3", 0x21, LayoutNone, false, false},
		{"fload_0", 0x22, LayoutNone, false, false},
		{"fload_1", 0x23, LayoutNone, false, false},
		{"fload_2", 0x24, LayoutNone, false, false},
		{"fload_3", 0x25, LayoutNone, false, false},
		{"dload_0", 0x26, LayoutNone, false, false},
		{"dload_1", 0x27, LayoutNone, false, false},
		{"dload_2", 0x28, LayoutNone, false, false},
		{"dload_3", 0x29, LayoutNone, false, false},
		{"aload_0", 0x2a, LayoutNone, false, false},
		{"aload_1", 0x2b, LayoutNone, false, false},
		{"aload_2", 0x2c, LayoutNone, false, false},
		{"aload_3", 0x2d, LayoutNone, false, false},
		{"iaload", 0x2e, LayoutNone, false, false},
		{"laload", 0x2f, LayoutNone, false, false},
		{"faload", 0x30, LayoutNone, false, false},
		{"daload", 0x31, LayoutNone, false, false},
		{"aaload", 0x32, LayoutNone, false, false},
		{"baload", 0x33, LayoutNone, false, false},
		{"caload", 0x34, LayoutNone, false, false},
		{"saload", 0x35, LayoutNone, false, false},
		{"istore", 0x36, LayoutU8, false, false},
		{"lstore", 0x37, LayoutU8, false, false},
		{"fstore", 0x38, LayoutU8, false, false},
		{"dstore", 0x39, LayoutU8, false, false},
		{"astore", 0x3a, LayoutU8, false, false},
		{"istore_0", 0x3b, LayoutNone, false, false},
		{"istore_1", 0x3c, LayoutNone, false, false},
		{"istore_2", 0x3d, LayoutNone, false, false},
		{"istore_3", 0x3e, LayoutNone, false, false},
		{"lstore_0", 0x3f, LayoutNone, false, false},
		{"lstore_1", 0x40, LayoutNone, false, false},
		{"lstore_2", 0x41, LayoutNone, false, false},
		{"lstore_3", 0x42, LayoutNone, false, false},
		{"fstore_0", 0x43, LayoutNone, false, false},
		{"fstore_1", 0x44, LayoutNone, false, false},
		{"fstore_2", 0x45, LayoutNone, false, false},
		{"fstore_3", 0x46, LayoutNone, false, false},
		{"dstore_0", 0x47, LayoutNone, false, false},
		{"dstore_1", 0x48, LayoutNone, false, false},
		{"dstore_2", 0x49, LayoutNone, false, false},
		{"dstore_3", 0x4a, LayoutNone, false, false},
		{"astore_0", 0x4b, LayoutNone, false, false},
		{"astore_1", 0x4c, LayoutNone, false, false},
		{"astore_2", 0x4d, LayoutNone, false, false},
		{"astore_3", 0x4e, LayoutNone, false, false},
		{"iastore", 0x4f, LayoutNone, false, false},
		{"lastore", 0x50, LayoutNone, false, false},
		{"fastore", 0x51, LayoutNone, false, false},
		{"dastore", 0x52, LayoutNone, false, false},
		{"aastore", 0x53, LayoutNone, false, false},
		{"bastore", 0x54, LayoutNone, false, false},
		{"castore", 0x55, LayoutNone, false, false},
		{"sastore", 0x56, LayoutNone, false, false},
		{"pop", 0x57, LayoutNone, false, false},
		{"pop2", 0x58, LayoutNone, false, false},
		{"dup", 0x59, LayoutNone, false, false},
		{"dup_x1", 0x5a, LayoutNone, false, false},
		{"dup_x2", 0x5b, LayoutNone, false, false},
		{"dup2", 0x5c, LayoutNone, false, false},
		{"dup2_x1", 0x5d, LayoutNone, false, false},
		{"dup2_x2", 0x5e, LayoutNone, false, false},
		{"swap", 0x5f, LayoutNone, false, false},
		{"iadd", 0x60, LayoutNone, false, false},
		{"ladd", 0x61, LayoutNone, false, false},
		{"fadd", 0x62, LayoutNone, false, false},
		{"dadd", 0x63, LayoutNone, false, false},
		{"isub", 0x64, LayoutNone, false, false},
		{"lsub", 0x65, LayoutNone, false, false},
		{"fsub", 0x66, LayoutNone, false, false},
		{"dsub", 0x67, LayoutNone, false, false},
		{"imul", 0x68, LayoutNone, false, false},
		{"lmul", 0x69, LayoutNone, false, false},
		{"fmul", 0x6a, LayoutNone, false, false},
		{"dmul", 0x6b, LayoutNone, false, false},
		{"idiv", 0x6c, LayoutNone, false, false},
		{"ldiv", 0x6d, LayoutNone, false, false},
		{"fdiv", 0x6e, LayoutNone, false, false},
		{"ddiv", 0x6f, LayoutNone, false, false},
		{"irem", 0x70, LayoutNone, false, false},
		{"lrem", 0x71, LayoutNone, false, false},
		{"frem", 0x72, LayoutNone, false, false},
		{"drem", 0x73, LayoutNone, false, false},
		{"ineg", 0x74, LayoutNone, false, false},
		{"lneg", 0x75, LayoutNone, false, false},
		{"fneg", 0x76, LayoutNone, false, false},
		{"dneg", 0x77, LayoutNone, false, false},
		{"ishl", 0x78, LayoutNone, false, false},
		{"lshl", 0x79, LayoutNone, false, false},
		{"ishr", 0x7a, LayoutNone, false, false},
		{"lshr", 0x7b, LayoutNone, false, false},
		{"iushr", 0x7c, LayoutNone, false, false},
		{"lushr", 0x7d, LayoutNone, false, false},
		{"iand", 0x7e, LayoutNone, false, false},
		{"land", 0x7f, LayoutNone, false, false},
		{"ior", 0x80, LayoutNone, false, false},
		{"lor", 0x81, LayoutNone, false, false},
		{"ixor", 0x82, LayoutNone, false, false},
		{"lxor", 0x83, LayoutNone, false, false},
		{"iinc", 0x84, LayoutU8I8, false, false},
		{"i2l", 0x85, LayoutNone, false, false},
		{"i2f", 0x86, LayoutNone, false, false},
		{"i2d", 0x87, LayoutNone, false, false},
		{"l2i", 0x88, LayoutNone, false, false},
		{"l2f", 0x89, LayoutNone, false, false},
		{"l2d", 0x8a, LayoutNone, false, false},
		{"f2i", 0x8b, LayoutNone, false, false},
		{"f2l", 0x8c, LayoutNone, false, false},
		{"f2d", 0x8d, LayoutNone, false, false},
		{"d2i", 0x8e, LayoutNone, false, false},
		{"d2l", 0x8f, LayoutNone, false, false},
		{"d2f", 0x90, LayoutNone, false, false},
		{"i2b", 0x91, LayoutNone, false, false},
		{"i2c", 0x92, LayoutNone, false, false},
		{"i2s", 0x93, LayoutNone, false, false},
		{"lcmp", 0x94, LayoutNone, false, false},
		{"fcmpl", 0x95, LayoutNone, false, false},
		{"fcmpg", 0x96, LayoutNone, false, false},
		{"dcmpl", 0x97, LayoutNone, false, false},
		{"dcmpg", 0x98, LayoutNone, false, false},
		{"ifeq", 0x99, LayoutI16, true, false},
		{"ifne", 0x9a, LayoutI16, true, false},
		{"iflt", 0x9b, LayoutI16, true, false},
		{"ifge", 0x9c, LayoutI16, true, false},
		{"ifgt", 0x9d, LayoutI16, true, false},
		{"ifle", 0x9e, LayoutI16, true, false},
		{"if_icmpeq", 0x9f, LayoutI16, true, false},
		{"if_icmpne", 0xa0, LayoutI16, true, false},
		{"if_icmplt", 0xa1, LayoutI16, true, false},
		{"if_icmpge", 0xa2, LayoutI16, true, false},
		{"if_icmpgt", 0xa3, LayoutI16, true, false},
		{"if_icmple", 0xa4, LayoutI16, true, false},
		{"if_acmpeq", 0xa5, LayoutI16, true, false},
		{"if_acmpne", 0xa6, LayoutI16, true, false},
		{"goto", 0xa7, LayoutI16, true, false},
		{"jsr", 0xa8, LayoutI16, true, false},
		{"ret", 0xa9, LayoutU8, false, false},
		// tableswitch 0xaa, lookupswitch 0xab handled as variable-length forms below.
		{"ireturn", 0xac, LayoutNone, false, false},
		{"lreturn", 0xad, LayoutNone, false, false},
		{"freturn", 0xae, LayoutNone, false, false},
		{"dreturn", 0xaf, LayoutNone, false, false},
		{"areturn", 0xb0, LayoutNone, false, false},
		{"return", 0xb1, LayoutNone, false, false},
		{"getstatic", 0xb2, LayoutU16, false, true},
		{"putstatic", 0xb3, LayoutU16, false, true},
		{"getfield", 0xb4, LayoutU16, false, true},
		{"putfield", 0xb5, LayoutU16, false, true},
		{"invokevirtual", 0xb6, LayoutU16, false, true},
		{"invokespecial", 0xb7, LayoutU16, false, true},
		{"invokestatic", 0xb8, LayoutU16, false, true},
		{"invokeinterface", 0xb9, LayoutU16U8, false, true}, // third operand byte is always 0; encoded within u16u8
		{"invokedynamic", 0xba, LayoutU16, false, true},
		{"new", 0xbb, LayoutU16, false, true},
		{"newarray", 0xbc, LayoutU8, false, false},
		{"anewarray", 0xbd, LayoutU16, false, true},
		{"arraylength", 0xbe, LayoutNone, false, false},
		{"athrow", 0xbf, LayoutNone, false, false},
		{"checkcast", 0xc0, LayoutU16, false, true},
		{"instanceof", 0xc1, LayoutU16, false, true},
		{"monitorenter", 0xc2, LayoutNone, false, false},
		{"monitorexit", 0xc3, LayoutNone, false, false},
		// wide 0xc4 handled as FormWide below.
		{"multianewarray", 0xc5, LayoutU16U8, false, true},
		{"ifnull", 0xc6, LayoutI16, true, false},
		{"ifnonnull", 0xc7, LayoutI16, true, false},
		{"goto_w", 0xc8, LayoutI32, true, false},
		{"jsr_w", 0xc9, LayoutI32, true, false},
		{"breakpoint", 0xca, LayoutNone, false, false},
		{"impdep1", 0xfe, LayoutNone, false, false},
		{"impdep2", 0xff, LayoutNone, false, false},
	}
	for _, op := range fixedOps {
		def(op.name, op.op, FormFixed, op.layout, op.isLabel, op.isPoolRef)
	}
	def("wide", 0xc4, FormWide, LayoutNone, false, false)
	def("tableswitch", 0xaa, FormTableswitch, LayoutNone, false, false)
	def("lookupswitch", 0xab, FormLookupswitch, LayoutNone, false, false)
}

// Lookup returns the catalogue entry for mnemonic, or nil if unknown.
func Lookup(mnemonic string) *Info {
	return byMnemonic[mnemonic]
}

// ByOpcode returns the catalogue entry for the given opcode byte.
func ByOpcode(op byte) *Info {
	return byOpcode[op]
}

// Padding returns the number of zero-padding bytes a switch instruction
// starting at pos needs before its default-offset field, so that field
// lands on a 4-byte boundary of the code array (spec.md §4.3).
func Padding(pos int) int {
	return (3 - pos%4 + 4) % 4 // pos is always non-negative; the +4 just keeps Go's % in range
}

// Length returns the on-the-wire byte length of instr, given the byte
// offset pos at which it starts (pos only matters for the variable-length
// switch forms, per spec.md §4.4 step 1).
func (info *Info) Length(pos int, caseCount int) int {
	switch info.Form {
	case FormFixed:
		return 1 + sizeof[info.Layout]
	case FormWide:
		// caseCount here is overloaded to carry the sub-opcode's
		// operand count; each is widened to u16, plus the wide prefix
		// byte and the sub-opcode byte itself (spec.md §4.3).
		return 2 + 2*caseCount
	case FormTableswitch:
		return 13 + Padding(pos) + 4*caseCount
	case FormLookupswitch:
		return 9 + Padding(pos) + 8*caseCount
	}
	panic(fmt.Sprintf("instr: unknown form %v", info.Form))
}
