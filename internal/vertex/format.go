package vertex

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrDuplicateFormat is returned when a format name is registered twice.
var ErrDuplicateFormat = errors.New("vertex: format name already registered")

// Format is an immutable vertex layout: an ordered list of named elements
// with precomputed byte offsets.
type Format struct {
	elements []*Element
	names    []string
	offsets  [MaxElements]int
	mask     uint32
	size     int
}

// FormatBuilder assembles a Format. Elements are laid out in insertion order.
type FormatBuilder struct {
	elements []*Element
	names    []string
	offsets  [MaxElements]int
	mask     uint32
	offset   int
	err      error
}

// NewFormat starts a new format layout.
func NewFormat() *FormatBuilder {
	b := &FormatBuilder{}
	for i := range b.offsets {
		b.offsets[i] = -1
	}
	return b
}

// Add appends a named element.
func (b *FormatBuilder) Add(name string, e *Element) *FormatBuilder {
	if b.err != nil {
		return b
	}
	if e == nil {
		b.err = fmt.Errorf("vertex: nil element %q", name)
		return b
	}
	if b.mask&e.Mask() != 0 {
		b.err = fmt.Errorf("vertex: duplicate element %q in format", name)
		return b
	}
	b.elements = append(b.elements, e)
	b.names = append(b.names, name)
	b.offsets[e.id] = b.offset
	b.mask |= e.Mask()
	b.offset += e.ByteSize()
	return b
}

// Padding appends n unused bytes.
func (b *FormatBuilder) Padding(n int) *FormatBuilder {
	if b.err == nil && n < 0 {
		b.err = fmt.Errorf("vertex: negative padding %d", n)
	}
	b.offset += n
	return b
}

// Build returns the finished format.
func (b *FormatBuilder) Build() (*Format, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Format{
		elements: append([]*Element(nil), b.elements...),
		names:    append([]string(nil), b.names...),
		offsets:  b.offsets,
		mask:     b.mask,
		size:     b.offset,
	}, nil
}

func mustBuild(b *FormatBuilder) *Format {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// Elements returns the format's elements in layout order.
func (f *Format) Elements() []*Element { return f.elements }

// ElementNames returns the element names in layout order.
func (f *Format) ElementNames() []string { return f.names }

// VertexSize returns the byte stride of one vertex.
func (f *Format) VertexSize() int { return f.size }

// Mask returns the bit mask of present element ids.
func (f *Format) Mask() uint32 { return f.mask }

// Contains reports whether the format declares e.
func (f *Format) Contains(e *Element) bool {
	return f.mask&e.Mask() != 0
}

// Offset returns the byte offset of e within a vertex, or -1 when absent.
func (f *Format) Offset(e *Element) int {
	return f.offsets[e.id]
}

// ElementName returns the name e was added under, or "" when absent.
func (f *Format) ElementName(e *Element) string {
	for i, el := range f.elements {
		if el == e {
			return f.names[i]
		}
	}
	return ""
}

// Equal reports structural equality: same elements, names, offsets and stride.
func (f *Format) Equal(o *Format) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	if f.mask != o.mask || f.size != o.size || f.offsets != o.offsets || len(f.names) != len(o.names) {
		return false
	}
	for i := range f.names {
		if f.names[i] != o.names[i] {
			return false
		}
	}
	return true
}

func (f *Format) String() string {
	return "[" + strings.Join(f.names, ", ") + "]"
}

// FormatID identifies a registered format.
type FormatID int

var (
	formatsMu   sync.RWMutex
	formats     []*Format
	formatNames = map[string]FormatID{}
)

// RegisterFormat adds f to the process-wide registry under name.
func RegisterFormat(name string, f *Format) (FormatID, error) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	if _, ok := formatNames[name]; ok {
		return -1, fmt.Errorf("%w: %s", ErrDuplicateFormat, name)
	}
	id := FormatID(len(formats))
	formats = append(formats, f)
	formatNames[name] = id
	return id, nil
}

// LookupFormat returns the format registered under name.
func LookupFormat(name string) (*Format, FormatID, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	id, ok := formatNames[name]
	if !ok {
		return nil, -1, false
	}
	return formats[id], id, true
}

// FormatByID returns the format registered with id, or nil.
func FormatByID(id FormatID) *Format {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	if id < 0 || int(id) >= len(formats) {
		return nil
	}
	return formats[id]
}

func mustRegisterFormat(name string, b *FormatBuilder) *Format {
	f := mustBuild(b)
	if _, err := RegisterFormat(name, f); err != nil {
		panic(err)
	}
	return f
}

// Predefined formats.
var (
	// BlockFormat is the chunk geometry layout. 32 bytes per vertex.
	BlockFormat = mustRegisterFormat("block", NewFormat().
		Add("Position", Position).
		Add("Color", Color).
		Add("UV0", UV0).
		Add("UV2", UV2).
		Add("Normal", Normal).
		Padding(1))

	// EntityFormat adds an overlay element to the block layout. 36 bytes per vertex.
	EntityFormat = mustRegisterFormat("new_entity", NewFormat().
		Add("Position", Position).
		Add("Color", Color).
		Add("UV0", UV0).
		Add("UV1", UV1).
		Add("UV2", UV2).
		Add("Normal", Normal).
		Padding(1))

	PositionFormat = mustRegisterFormat("position", NewFormat().
		Add("Position", Position))

	PositionColorFormat = mustRegisterFormat("position_color", NewFormat().
		Add("Position", Position).
		Add("Color", Color))

	PositionColorNormalFormat = mustRegisterFormat("position_color_normal", NewFormat().
		Add("Position", Position).
		Add("Color", Color).
		Add("Normal", Normal).
		Padding(1))

	PositionTexFormat = mustRegisterFormat("position_tex", NewFormat().
		Add("Position", Position).
		Add("UV0", UV0))

	PositionColorTexLightmapFormat = mustRegisterFormat("position_color_tex_lightmap", NewFormat().
		Add("Position", Position).
		Add("Color", Color).
		Add("UV0", UV0).
		Add("UV2", UV2))
)
