package world

type BlockType uint16

const (
	BlockTypeAir BlockType = iota
	BlockTypeGrass
	BlockTypeDirt
	BlockTypeStone
	BlockTypeBedrock
	BlockTypeSand
	BlockTypeGravel
	BlockTypeGlass
	BlockTypeWater
)

// BlockFace identifies a face of a block
type BlockFace int

const (
	FaceNorth BlockFace = iota // +Z
	FaceSouth                  // -Z
	FaceEast                   // +X
	FaceWest                   // -X
	FaceTop                    // +Y
	FaceBottom                 // -Y

	FaceCount = 6
)

// FaceOffsets holds the unit step towards the neighbour across each face.
var FaceOffsets = [FaceCount][3]int{
	FaceNorth:  {0, 0, 1},
	FaceSouth:  {0, 0, -1},
	FaceEast:   {1, 0, 0},
	FaceWest:   {-1, 0, 0},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
}

var faceNames = [FaceCount]string{"north", "south", "east", "west", "top", "bottom"}

// Opposite returns the face pointing the other way along the same axis.
func (f BlockFace) Opposite() BlockFace {
	return f ^ 1
}

func (f BlockFace) String() string {
	if f < 0 || f >= FaceCount {
		return "unknown"
	}
	return faceNames[f]
}
