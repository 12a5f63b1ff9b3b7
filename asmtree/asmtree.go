// Package asmtree defines the assembly tree the parser (an out-of-scope
// external collaborator, per spec.md §1) is assumed to produce, and which
// the assembler package consumes (spec.md §3 "Assembly tree").
package asmtree

import "github.com/go-krakatau/krak/poolref"

// ClassDecl is the class declaration: access flags, this-name, super-name,
// and interface-name list.
type ClassDecl struct {
	Flags      []string
	This       *poolref.Ref
	Super      *poolref.Ref
	Interfaces []*poolref.Ref
}

// ConstBinding is a top-level "const LABEL = expr" item.
type ConstBinding struct {
	Label string
	Value *poolref.Ref
}

// FieldDecl is a top-level field item.
type FieldDecl struct {
	Flags []string
	Name  *poolref.Ref
	Desc  *poolref.Ref
	// Const, if non-nil, supplies a ConstantValue attribute.
	Const *poolref.Ref
}

// MethodDecl is a top-level method item: header plus body.
type MethodDecl struct {
	Flags []string
	Name  *poolref.Ref
	Desc  *poolref.Ref
	Body  []Statement
}

// Statement is either a directive or an instruction, optionally preceded
// by a label (spec.md §3).
type Statement struct {
	Label string // "" if none

	// Directive, if non-nil, is a directive whose Kind is one of
	// "catch", "stack", "locals".
	Directive *Directive

	// Instruction, if non-nil, is the statement's instruction.
	Instruction *Instruction
}

// Directive is a catch/limit-stack/limit-locals directive.
type Directive struct {
	Kind string // "catch", "stack", "locals"

	// catch
	CatchType        *poolref.Ref
	From, To, Target string // labels

	// stack / locals
	Limit int
}

// Instruction is a single assembly-level instruction: an opcode plus its
// operands. Most opcodes take zero or one operand; iinc takes two
// (varnum, constant) and invokeinterface/multianewarray take two (a pool
// reference and a count byte). Each element of Args is one of: int64,
// string (a code label), *poolref.Ref, SwitchOperand, or WideOperand.
type Instruction struct {
	Op   string
	Args []any
}

// SwitchOperand is the operand shape for tableswitch/lookupswitch.
type SwitchOperand struct {
	// Low is the tableswitch low value; unused for lookupswitch.
	Low int32
	// Targets is, for tableswitch, one label per case value
	// low..low+len(Targets)-1, in order; for lookupswitch, the label for
	// Keys[i] at index i (pairs are resorted by key during assembly).
	Targets []string
	Keys    []int32 // non-nil only for lookupswitch
	Default string
}

// WideOperand is the operand shape for the wide-prefixed form: a
// sub-opcode plus its (already present, to-be-widened) arguments.
type WideOperand struct {
	SubOp string
	Args  []int
}

// Tree is the whole parsed unit handed to the assembler.
type Tree struct {
	Class      ClassDecl
	Consts     []ConstBinding
	Fields     []FieldDecl
	Methods    []MethodDecl
}
