// Package krakerr defines the single error kind shared by the assembler
// and the restructurer (spec.md §7).
package krakerr

import "fmt"

// Kind distinguishes the handful of fatal error conditions either
// subsystem can raise. There is no recoverable path for any of them.
type Kind int

const (
	// RecursivePoolReference is raised when resolving a labelled pool
	// reference revisits a label already on the resolution stack.
	RecursivePoolReference Kind = iota + 1
	// UndefinedLabel is raised when an instruction or directive refers
	// to a code label with no corresponding statement.
	UndefinedLabel
	// UnsupportedAssignment is defined for a constant binding that
	// targets a direct-index pool slot. No code path in this module
	// raises it: asmtree.ConstBinding names its target by label only.
	UnsupportedAssignment
	// StructuringFailed is raised when the constraint orderer finds no
	// viable candidate in a connected component; this should not occur
	// for well-formed SSA input.
	StructuringFailed
	// UnknownFlag is raised when a class, field, or method access-flag
	// keyword doesn't match any bit in the assembler's flag table.
	UnknownFlag
)

func (k Kind) String() string {
	switch k {
	case RecursivePoolReference:
		return "recursive-pool-reference"
	case UndefinedLabel:
		return "undefined-label"
	case UnsupportedAssignment:
		return "unsupported-assignment"
	case StructuringFailed:
		return "structuring-failed"
	case UnknownFlag:
		return "unknown-flag"
	default:
		return "unknown-error"
	}
}

// Error is the fatal error type raised by this module. Data carries
// whatever context is useful to a caller inspecting a failure (e.g. the
// label cycle, or the list of known labels) without being part of the
// error string's stable format.
type Error struct {
	Kind Kind
	Msg  string
	Data any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New constructs an *Error. The assembler and restructurer packages
// produce their errors this way; ssabridge and the cmd/ front ends
// report their own loading and decoding errors with fmt.Errorf.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithData attaches Data to an *Error and returns it, for chaining at the
// call site: `return nil, krakerr.New(...).WithData(cycle)`.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}
