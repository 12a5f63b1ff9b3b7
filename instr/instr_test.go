package instr

import "testing"

func TestLookupAndByOpcodeAgree(t *testing.T) {
	info := Lookup("iadd")
	if info == nil || info.Opcode != 0x60 {
		t.Fatalf("Lookup(iadd) = %+v, want opcode 0x60", info)
	}
	if ByOpcode(0x60) != info {
		t.Fatalf("ByOpcode(0x60) != Lookup(iadd)")
	}
}

func TestLookupUnknownMnemonicIsNil(t *testing.T) {
	if Lookup("frobnicate") != nil {
		t.Fatalf("Lookup(frobnicate) = non-nil, want nil")
	}
}

func TestLengthFixedFormsAddOneForOpcode(t *testing.T) {
	cases := []struct {
		mnemonic string
		want     int
	}{
		{"nop", 1},
		{"bipush", 2},
		{"sipush", 3},
		{"iinc", 3},
		{"invokeinterface", 4},
		{"goto_w", 5},
	}
	for _, c := range cases {
		info := Lookup(c.mnemonic)
		if info == nil {
			t.Fatalf("Lookup(%s) = nil", c.mnemonic)
		}
		if got := info.Length(0, 0); got != c.want {
			t.Errorf("Length(%s) = %d, want %d", c.mnemonic, got, c.want)
		}
	}
}

func TestLengthWideUsesSubOpOperandCount(t *testing.T) {
	wide := Lookup("wide")
	// wide iinc: sub-opcode has 2 operand fields, widened to u16 each,
	// plus the wide prefix byte and the sub-opcode byte.
	if got := wide.Length(0, 2); got != 6 {
		t.Fatalf("Length(wide, 2) = %d, want 6", got)
	}
}

func TestPaddingAlignsToFourByteBoundary(t *testing.T) {
	cases := map[int]int{0: 3, 1: 2, 2: 1, 3: 0, 4: 3, 5: 2}
	for pos, want := range cases {
		if got := Padding(pos); got != want {
			t.Errorf("Padding(%d) = %d, want %d", pos, got, want)
		}
	}
}

func TestLengthTableswitchIncludesPaddingAndCases(t *testing.T) {
	ts := Lookup("tableswitch")
	// pos=1 needs 2 padding bytes; 13 fixed + 2 padding + 4*3 cases.
	if got := ts.Length(1, 3); got != 27 {
		t.Fatalf("Length(tableswitch, pos=1, 3 cases) = %d, want 27", got)
	}
}

func TestLengthLookupswitchIncludesPaddingAndPairs(t *testing.T) {
	ls := Lookup("lookupswitch")
	// pos=0 needs 3 padding bytes; 9 fixed + 3 padding + 8*2 pairs.
	if got := ls.Length(0, 2); got != 28 {
		t.Fatalf("Length(lookupswitch, pos=0, 2 pairs) = %d, want 28", got)
	}
}

func TestOperandCountMatchesFieldShape(t *testing.T) {
	if got := Lookup("iload").OperandCount(); got != 1 {
		t.Fatalf("OperandCount(iload) = %d, want 1", got)
	}
	if got := Lookup("iinc").OperandCount(); got != 2 {
		t.Fatalf("OperandCount(iinc) = %d, want 2", got)
	}
	if got := Lookup("nop").OperandCount(); got != 0 {
		t.Fatalf("OperandCount(nop) = %d, want 0", got)
	}
}
