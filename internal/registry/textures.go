package registry

import "chunkmesh/internal/vertex"

// AtlasColumns is the number of texture slots per atlas row and column.
const AtlasColumns = 16

var (
	TextureNames []string
	TextureMap   = make(map[string]int)
)

func registerTexture(name string) {
	if name == "" {
		return
	}
	if _, exists := TextureMap[name]; !exists {
		TextureMap[name] = len(TextureNames)
		TextureNames = append(TextureNames, name)
	}
}

// Atlas maps texture names to their slot in a square grid atlas.
type Atlas struct{}

// Sprite returns the atlas region of the named texture. Unknown textures use
// slot 0.
func (Atlas) Sprite(name string) vertex.Sprite {
	idx := TextureMap[name]
	col := idx % AtlasColumns
	row := (idx / AtlasColumns) % AtlasColumns
	const cell = 1.0 / AtlasColumns
	return vertex.Sprite{
		U0: float32(col) * cell,
		V0: float32(row) * cell,
		U1: float32(col+1) * cell,
		V1: float32(row+1) * cell,
	}
}
