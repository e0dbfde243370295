package meshing

import (
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// faceTemplate holds one face's unit-cube corners in counter-clockwise order
// seen from outside the block, with matching UVs.
type faceTemplate struct {
	corners [4]mgl32.Vec3
	uvs     [4]mgl32.Vec2
}

// Bottom edge of each side face maps to v=0 so textures stay upright.
var faceTemplates = [world.FaceCount]faceTemplate{
	world.FaceNorth: {
		corners: [4]mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
		uvs:     [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	},
	world.FaceSouth: {
		corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
		uvs:     [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
	},
	world.FaceEast: {
		corners: [4]mgl32.Vec3{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
		uvs:     [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
	},
	world.FaceWest: {
		corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
		uvs:     [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	},
	world.FaceTop: {
		corners: [4]mgl32.Vec3{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
		uvs:     [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
	},
	world.FaceBottom: {
		corners: [4]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		uvs:     [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	},
}

// faceShade approximates directional light: top brightest, bottom darkest.
var faceShade = [world.FaceCount]float32{
	world.FaceNorth:  0.8,
	world.FaceSouth:  0.8,
	world.FaceEast:   0.6,
	world.FaceWest:   0.6,
	world.FaceTop:    1.0,
	world.FaceBottom: 0.5,
}

// quadIndices triangulates a quad as (0,1,2) (2,3,0).
var quadIndices = [6]uint32{0, 1, 2, 2, 3, 0}
