package vertex

import (
	"errors"
	"fmt"
	"sync"
)

// MaxElements is the number of element slots. Element ids index a 32-bit mask.
const MaxElements = 32

// ErrDuplicateElement is returned when an element id is registered twice.
var ErrDuplicateElement = errors.New("vertex: element id already registered")

// ElementType is the scalar type of one element component.
type ElementType uint8

const (
	Float ElementType = iota
	UByte
	Byte
	UShort
	Short
	UInt
	Int
)

var elementTypeInfo = [...]struct {
	name   string
	size   int
	glType uint32
}{
	Float:  {"Float", 4, 0x1406},
	UByte:  {"Unsigned Byte", 1, 0x1401},
	Byte:   {"Byte", 1, 0x1400},
	UShort: {"Unsigned Short", 2, 0x1403},
	Short:  {"Short", 2, 0x1402},
	UInt:   {"Unsigned Int", 4, 0x1405},
	Int:    {"Int", 4, 0x1404},
}

// Size returns the component size in bytes.
func (t ElementType) Size() int { return elementTypeInfo[t].size }

// GLType returns the matching OpenGL component type enum.
func (t ElementType) GLType() uint32 { return elementTypeInfo[t].glType }

func (t ElementType) String() string { return elementTypeInfo[t].name }

// Usage describes how the GPU consumes an element.
type Usage uint8

const (
	UsagePosition Usage = iota
	UsageNormal
	UsageColor
	UsageUV
	UsageGeneric
)

func (u Usage) String() string {
	switch u {
	case UsagePosition:
		return "Position"
	case UsageNormal:
		return "Normal"
	case UsageColor:
		return "Vertex Color"
	case UsageUV:
		return "UV"
	default:
		return "Generic"
	}
}

// Element is one vertex attribute kind registered in a fixed id slot.
type Element struct {
	id    int
	index int
	typ   ElementType
	usage Usage
	count int
}

var (
	elementsMu sync.RWMutex
	elements   [MaxElements]*Element
)

// Predefined elements.
var (
	Position = mustRegister(0, 0, Float, UsagePosition, 3)
	Color    = mustRegister(1, 0, UByte, UsageColor, 4)
	UV0      = mustRegister(2, 0, Float, UsageUV, 2)
	UV1      = mustRegister(3, 1, Short, UsageUV, 2)
	UV2      = mustRegister(4, 2, Short, UsageUV, 2)
	Normal   = mustRegister(5, 0, Byte, UsageNormal, 3)
)

// Aliases used by the block and entity formats.
var (
	UV      = UV0
	Overlay = UV1
	Light   = UV2
)

// RegisterElement installs a new element in slot id. Only UV elements may use
// a non-zero index.
func RegisterElement(id, index int, typ ElementType, usage Usage, count int) (*Element, error) {
	if id < 0 || id >= MaxElements {
		return nil, fmt.Errorf("vertex: element id %d out of range", id)
	}
	if index != 0 && usage != UsageUV {
		return nil, fmt.Errorf("vertex: element %d: only UV elements may have an index", id)
	}
	if count <= 0 {
		return nil, fmt.Errorf("vertex: element %d: count must be positive", id)
	}

	elementsMu.Lock()
	defer elementsMu.Unlock()
	if elements[id] != nil {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateElement, id)
	}
	e := &Element{id: id, index: index, typ: typ, usage: usage, count: count}
	elements[id] = e
	return e, nil
}

func mustRegister(id, index int, typ ElementType, usage Usage, count int) *Element {
	e, err := RegisterElement(id, index, typ, usage, count)
	if err != nil {
		panic(err)
	}
	return e
}

// ElementByID returns the element registered in slot id, or nil.
func ElementByID(id int) *Element {
	if id < 0 || id >= MaxElements {
		return nil
	}
	elementsMu.RLock()
	defer elementsMu.RUnlock()
	return elements[id]
}

// elementsFromMask returns the registered elements named by mask in id order.
func elementsFromMask(mask uint32) []*Element {
	var out []*Element
	elementsMu.RLock()
	defer elementsMu.RUnlock()
	for id := 0; id < MaxElements; id++ {
		if mask&(1<<id) != 0 && elements[id] != nil {
			out = append(out, elements[id])
		}
	}
	return out
}

func (e *Element) ID() int { return e.id }
func (e *Element) Index() int { return e.index }
func (e *Element) Type() ElementType { return e.typ }
func (e *Element) Usage() Usage { return e.usage }
func (e *Element) Count() int { return e.count }
func (e *Element) Mask() uint32 { return 1 << e.id }
func (e *Element) ByteSize() int { return e.typ.Size() * e.count }
func (e *Element) String() string {
	return fmt.Sprintf("%d %s %s #%d", e.count, e.typ, e.usage, e.index)
}
