package world

import "github.com/go-gl/mathgl/mgl32"

// Direction is one of the six axis-aligned block faces.
type Direction uint8

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

// Directions lists every direction in ordinal order.
var Directions = [6]Direction{Down, Up, North, South, West, East}

// Horizontal lists the four horizontal directions.
var Horizontal = [4]Direction{North, South, West, East}

var directionOffsets = [6][3]int{
	Down:  {0, -1, 0},
	Up:    {0, 1, 0},
	North: {0, 0, -1},
	South: {0, 0, 1},
	West:  {-1, 0, 0},
	East:  {1, 0, 0},
}

var directionNames = [6]string{"down", "up", "north", "south", "west", "east"}

// Offset returns the unit step towards d.
func (d Direction) Offset() (dx, dy, dz int) {
	o := directionOffsets[d]
	return o[0], o[1], o[2]
}

// Normal returns the unit normal of the face.
func (d Direction) Normal() mgl32.Vec3 {
	o := directionOffsets[d]
	return mgl32.Vec3{float32(o[0]), float32(o[1]), float32(o[2])}
}

// Opposite returns the direction facing the other way.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

func (d Direction) String() string {
	return directionNames[d]
}
