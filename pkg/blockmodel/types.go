package blockmodel

import (
	"encoding/json"
	"maps"
)

type Model struct {
	Parent           string            `json:"parent"`
	AmbientOcclusion *bool             `json:"ambientocclusion"`
	Textures         map[string]string `json:"textures"`
	Elements         []Element         `json:"elements"`

	// unresolved keeps the elements before texture resolution, for children.
	unresolved []Element
}

// Clone returns a deep copy of m, so resolving textures on the copy leaves
// m untouched.
func (m *Model) Clone() *Model {
	out := *m
	out.Textures = maps.Clone(m.Textures)
	out.Elements = cloneElements(m.Elements)
	return &out
}

func cloneElements(elems []Element) []Element {
	if elems == nil {
		return nil
	}
	out := make([]Element, len(elems))
	for i, e := range elems {
		out[i] = e
		out[i].Faces = maps.Clone(e.Faces)
		if e.Rotation != nil {
			r := *e.Rotation
			out[i].Rotation = &r
		}
	}
	return out
}

// Element is an axis-aligned box in 1/16 block units.
type Element struct {
	From     [3]float32      `json:"from"`
	To       [3]float32      `json:"to"`
	Rotation *Rotation       `json:"rotation"`
	Shade    *bool           `json:"shade"`
	Faces    map[string]Face `json:"faces"`
}

// IsFullCube reports whether e spans the whole block without rotation.
func (e Element) IsFullCube() bool {
	const eps = 0.001
	if e.Rotation != nil && e.Rotation.Angle != 0 {
		return false
	}
	for i := 0; i < 3; i++ {
		if e.From[i] > eps || e.To[i] < 16-eps {
			return false
		}
	}
	return true
}

// Shaded reports whether directional shading applies to e. It defaults to true.
func (e Element) Shaded() bool {
	return e.Shade == nil || *e.Shade
}

type Rotation struct {
	Origin  [3]float32 `json:"origin"`
	Angle   float32    `json:"angle"`
	Axis    string     `json:"axis"`
	Rescale bool       `json:"rescale"`
}

type Face struct {
	UV        [4]float32 `json:"uv"`
	Texture   string     `json:"texture"`
	CullFace  string     `json:"cullface"`
	Rotation  int        `json:"rotation"`
	TintIndex *int       `json:"tintindex"`
}

// Tinted reports whether the face takes the block's tint colour.
func (f Face) Tinted() bool {
	return f.TintIndex != nil && *f.TintIndex > -1
}

// FaceNames lists the six face keys in direction order: down, up, north,
// south, west, east.
var FaceNames = [6]string{"down", "up", "north", "south", "west", "east"}

// BlockState defines the blockstate JSON structure. It maps variants of a block to their corresponding models.
type BlockState struct {
	// Variants is a map of variant names to a list of models.
	Variants map[string]BlockStateVariants `json:"variants"`
}

// BlockStateVariants is a custom type to handle the fact that the "variants" field can contain either a single object or an array of objects.
type BlockStateVariants []Variant

func (v *BlockStateVariants) UnmarshalJSON(data []byte) error {
	var variants []Variant
	if err := json.Unmarshal(data, &variants); err == nil {
		*v = variants
		return nil
	}

	var singleVariant Variant
	if err := json.Unmarshal(data, &singleVariant); err != nil {
		return err
	}

	*v = []Variant{singleVariant}
	return nil
}

type Variant struct {
	Model string `json:"model"`
}
