package world

import "github.com/go-gl/mathgl/mgl32"

const (
	// SectionSize is the edge length of a section in blocks.
	SectionSize = 16
	// SectionVolume is the number of blocks in a section.
	SectionVolume = SectionSize * SectionSize * SectionSize
	// ChunkSizeX and ChunkSizeZ are the horizontal chunk dimensions.
	ChunkSizeX = 16
	ChunkSizeZ = 16
	// ChunkSizeY is the world height.
	ChunkSizeY = 256
	// NumSections is the number of sections stacked in a chunk column.
	NumSections = ChunkSizeY / SectionSize
)

// BlockPos is a block coordinate in world space.
type BlockPos struct {
	X, Y, Z int
}

// Offset returns p moved by the given deltas.
func (p BlockPos) Offset(dx, dy, dz int) BlockPos {
	return BlockPos{p.X + dx, p.Y + dy, p.Z + dz}
}

// Relative returns p moved n blocks towards d.
func (p BlockPos) Relative(d Direction, n int) BlockPos {
	dx, dy, dz := d.Offset()
	return BlockPos{p.X + dx*n, p.Y + dy*n, p.Z + dz*n}
}

// Section returns the section containing p.
func (p BlockPos) Section() SectionPos {
	return SectionPos{SectionCoord(p.X), SectionCoord(p.Y), SectionCoord(p.Z)}
}

// Local returns p's coordinates inside its section, each in 0..15.
func (p BlockPos) Local() (x, y, z int) {
	return p.X & 15, p.Y & 15, p.Z & 15
}

// Vec3 returns p as a float vector.
func (p BlockPos) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
}

// BetweenClosed calls fn for every position in the box [min, max], x
// fastest, then y, then z.
func BetweenClosed(min, max BlockPos, fn func(BlockPos)) {
	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				fn(BlockPos{x, y, z})
			}
		}
	}
}

// SectionCoord converts a block coordinate to a section coordinate.
func SectionCoord(block int) int {
	return block >> 4
}

// SectionPos is a section coordinate.
type SectionPos struct {
	X, Y, Z int
}

// Origin returns the minimum block of the section.
func (s SectionPos) Origin() BlockPos {
	return BlockPos{s.X << 4, s.Y << 4, s.Z << 4}
}

// Chunk returns the column holding the section.
func (s SectionPos) Chunk() ChunkPos {
	return ChunkPos{s.X, s.Z}
}

// ChunkPos is a chunk column coordinate.
type ChunkPos struct {
	X, Z int
}

// ChunkPosOf returns the column holding block coordinates x, z.
func ChunkPosOf(x, z int) ChunkPos {
	return ChunkPos{SectionCoord(x), SectionCoord(z)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
