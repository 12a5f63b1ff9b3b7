// Package constpool implements the class-file constant pool: a small
// external-facing Pool interface (the interning table itself is out of
// scope per spec.md §1) and Handle, the in-scope wrapper that adds
// labelled forward references on top of it (spec.md §4.1).
package constpool

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-krakatau/krak/krakerr"
)

// Tag identifies the kind of a constant-pool entry.
type Tag uint8

const (
	TagUtf8 Tag = 1 + iota
	TagInteger
	TagFloat
	TagLong
	TagDouble
	TagClass
	TagString
	TagFieldref
	TagMethodref
	TagInterfaceMethodref
	TagNameAndType
	TagMethodHandle
	TagMethodType
	TagInvokeDynamic
)

// wireTag is the on-the-wire constant_pool_info tag byte (JVM spec §4.4),
// distinct from our dense internal Tag so BasicPool can still be
// reordered/extended without worrying about wire compatibility of the
// enum values themselves.
var wireTag = map[Tag]byte{
	TagUtf8:               1,
	TagInteger:            3,
	TagFloat:              4,
	TagLong:               5,
	TagDouble:             6,
	TagClass:              7,
	TagString:             8,
	TagFieldref:           9,
	TagMethodref:          10,
	TagInterfaceMethodref: 11,
	TagNameAndType:        12,
	TagMethodHandle:       15,
	TagMethodType:         16,
	TagInvokeDynamic:      18,
}

// Pool is the narrow interface Handle depends on. The interning table
// implementing it is a mechanical, out-of-scope collaborator; BasicPool
// below is this module's own default implementation of it, so the module
// is runnable standalone.
type Pool interface {
	// Intern returns the index of the (tag, args) entry, creating it if
	// this is the first time it has been seen. Interning is
	// deterministic: the same call sequence always yields the same
	// indices (spec.md §4.1).
	Intern(tag Tag, args ...any) int
	// Bytes returns the serialized constant_pool table: a u16 count
	// (count = highest index used + 1) followed by each entry in index
	// order, skipping the phantom second slot of long/double entries.
	Bytes() []byte
}

type key struct {
	tag  Tag
	args string // canonicalized representation of args, for map use
}

// BasicPool is the default, mechanical Pool implementation: a
// (tag, args)-keyed interning table with double-wide slots for long and
// double. Index 0 is reserved and never assigned.
type BasicPool struct {
	byKey   map[key]int
	entries []entry // entries[0] unused
}

type entry struct {
	tag  Tag
	args []any
}

// NewBasicPool returns an empty pool with index 0 reserved.
func NewBasicPool() *BasicPool {
	return &BasicPool{
		byKey:   make(map[key]int),
		entries: []entry{{}}, // index 0 placeholder
	}
}

func (p *BasicPool) Intern(tag Tag, args ...any) int {
	k := key{tag, canonicalize(args)}
	if idx, ok := p.byKey[k]; ok {
		return idx
	}
	idx := len(p.entries)
	p.entries = append(p.entries, entry{tag, args})
	p.byKey[k] = idx
	if tag == TagLong || tag == TagDouble {
		// Reserve the following index as a phantom slot (JVM spec
		// §4.4.5): nothing may ever intern into it.
		p.entries = append(p.entries, entry{})
	}
	return idx
}

func canonicalize(args []any) string {
	var b bytes.Buffer
	for _, a := range args {
		fmt.Fprintf(&b, "%T:%v|", a, a)
	}
	return b.String()
}

func (p *BasicPool) Bytes() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(p.entries)))
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.tag == 0 {
			// Phantom slot following a long/double.
			continue
		}
		writeEntry(&buf, e)
	}
	return buf.Bytes()
}

func writeEntry(buf *bytes.Buffer, e entry) {
	buf.WriteByte(wireTag[e.tag])
	switch e.tag {
	case TagUtf8:
		s := e.args[0].(string)
		binary.Write(buf, binary.BigEndian, uint16(len(s)))
		buf.WriteString(s)
	case TagInteger:
		binary.Write(buf, binary.BigEndian, int32(e.args[0].(int64)))
	case TagFloat:
		binary.Write(buf, binary.BigEndian, math.Float32bits(float32(e.args[0].(float64))))
	case TagLong:
		binary.Write(buf, binary.BigEndian, e.args[0].(int64))
	case TagDouble:
		binary.Write(buf, binary.BigEndian, math.Float64bits(e.args[0].(float64)))
	case TagClass, TagString:
		binary.Write(buf, binary.BigEndian, uint16(e.args[0].(int)))
	case TagNameAndType, TagFieldref, TagMethodref, TagInterfaceMethodref:
		binary.Write(buf, binary.BigEndian, uint16(e.args[0].(int)))
		binary.Write(buf, binary.BigEndian, uint16(e.args[1].(int)))
	case TagMethodHandle:
		buf.WriteByte(byte(e.args[0].(int)))
		binary.Write(buf, binary.BigEndian, uint16(e.args[1].(int)))
	case TagMethodType:
		binary.Write(buf, binary.BigEndian, uint16(e.args[0].(int)))
	case TagInvokeDynamic:
		binary.Write(buf, binary.BigEndian, uint16(e.args[0].(int)))
		binary.Write(buf, binary.BigEndian, uint16(e.args[1].(int)))
	}
}

// Handle wraps a Pool and adds label-based forward references, matching
// spec.md §4.1 exactly: intern, utf8, bind_label, resolve_label, raw_bytes.
type Handle struct {
	Pool   Pool
	labels map[string]Resolver
}

// Resolver is satisfied by poolref.Ref; declared here (rather than
// importing poolref, which would create a cycle) as the minimal surface
// Handle needs.
type Resolver interface {
	ToIndex(h *Handle, forbidden []string) (int, error)
}

// NewHandle wraps pool (typically a *BasicPool) in a Handle.
func NewHandle(pool Pool) *Handle {
	return &Handle{Pool: pool, labels: make(map[string]Resolver)}
}

// Intern is a thin pass-through to the underlying Pool.
func (h *Handle) Intern(tag Tag, args ...any) int {
	return h.Pool.Intern(tag, args...)
}

// Utf8 interns s as a CONSTANT_Utf8 entry and returns its index.
func (h *Handle) Utf8(s string) int {
	return h.Pool.Intern(TagUtf8, s)
}

// BindLabel associates lbl with the (not yet necessarily resolved)
// reference ref, for later lookup via ResolveLabel.
func (h *Handle) BindLabel(lbl string, ref Resolver) {
	h.labels[lbl] = ref
}

// ResolveLabel resolves the reference bound to lbl, appending lbl to
// forbidden for the recursive descent. If lbl is already in forbidden,
// this is a label cycle.
func (h *Handle) ResolveLabel(lbl string, forbidden []string) (int, error) {
	for _, f := range forbidden {
		if f == lbl {
			cycle := append(append([]string{}, forbidden...), lbl)
			return 0, krakerr.New(krakerr.RecursivePoolReference,
				"recursive constant pool reference: %v", cycle).WithData(cycle)
		}
	}
	ref, ok := h.labels[lbl]
	if !ok {
		return 0, krakerr.New(krakerr.UndefinedLabel, "undefined constant pool label: %s", lbl)
	}
	next := append(append([]string{}, forbidden...), lbl)
	return ref.ToIndex(h, next)
}

// RawBytes returns the serialized constant pool.
func (h *Handle) RawBytes() []byte {
	return h.Pool.Bytes()
}
