package world

import (
	"math"

	"chunkmesh/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 6.0
)

// BlockGetter reads block types at world coordinates.
type BlockGetter interface {
	Get(x, y, z int) BlockType
}

// RaycastResult is the first non-air block along a ray and the last air
// block before it.
type RaycastResult struct {
	Hit      BlockPos
	Adjacent BlockPos
	Distance float32
	Ok       bool
}

// Raycast marches from start along direction between minDist and maxDist.
// Block x occupies [x, x+1) on each axis.
func Raycast(start, direction mgl32.Vec3, minDist, maxDist float32, blocks BlockGetter) RaycastResult {
	defer profiling.Track("world.Raycast")()
	stepSize := float32(0.02)
	steps := int(maxDist / stepSize)
	direction = direction.Normalize()

	var result RaycastResult
	lastEmpty := blockAt(start)
	for i := 0; i <= steps; i++ {
		dist := float32(i) * stepSize
		if dist < minDist {
			continue
		}
		pos := blockAt(start.Add(direction.Mul(dist)))
		if pos == lastEmpty {
			continue
		}
		if blocks.Get(pos.X, pos.Y, pos.Z) != BlockTypeAir {
			result.Hit = pos
			result.Adjacent = lastEmpty
			result.Distance = dist
			result.Ok = true
			return result
		}
		lastEmpty = pos
	}
	return result
}

func blockAt(p mgl32.Vec3) BlockPos {
	return BlockPos{
		int(math.Floor(float64(p.X()))),
		int(math.Floor(float64(p.Y()))),
		int(math.Floor(float64(p.Z()))),
	}
}
