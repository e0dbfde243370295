package world

import "math"

// TerrainGenerator fills chunks with terrain. Implementations must be pure:
// the same coordinates always produce the same blocks.
type TerrainGenerator interface {
	PopulateChunk(c *Chunk)
	HeightAt(worldX, worldZ int) int
}

// Palette names the block ids the generator places.
type Palette struct {
	Surface    BlockType
	Subsurface BlockType
	Deep       BlockType
	Floor      BlockType
}

// DefaultPalette is grass over dirt over stone on a bedrock floor.
var DefaultPalette = Palette{
	Surface:    BlockTypeGrass,
	Subsurface: BlockTypeDirt,
	Deep:       BlockTypeStone,
	Floor:      BlockTypeBedrock,
}

// GeneratorSettings parameterises the layered noise height field.
type GeneratorSettings struct {
	Seed            int64
	Octaves         []Octave
	BaseHeight      int
	SubsurfaceDepth int // dirt layers under the surface block
	FloorY          int // lowest solid world Y
	Palette         Palette
}

// DefaultGeneratorSettings returns rolling hills around y=8.
func DefaultGeneratorSettings(seed int64) GeneratorSettings {
	return GeneratorSettings{
		Seed: seed,
		Octaves: []Octave{
			{Frequency: 1.0 / 64.0, Amplitude: 12},
			{Frequency: 1.0 / 32.0, Amplitude: 6},
			{Frequency: 1.0 / 16.0, Amplitude: 3},
			{Frequency: 1.0 / 8.0, Amplitude: 1.5},
		},
		BaseHeight:      8,
		SubsurfaceDepth: 3,
		FloorY:          -32,
		Palette:         DefaultPalette,
	}
}

// Generator handles noise heightmap terrain generation.
type Generator struct {
	settings GeneratorSettings
}

// NewGenerator creates a generator; the octave slice is copied.
func NewGenerator(settings GeneratorSettings) *Generator {
	settings.Octaves = append([]Octave(nil), settings.Octaves...)
	return &Generator{settings: settings}
}

// Settings returns the generator parameters.
func (g *Generator) Settings() GeneratorSettings {
	return g.settings
}

// HeightAt computes the surface block Y at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	h := float64(g.settings.BaseHeight) + octaveSum(float64(worldX), float64(worldZ), g.settings.Seed, g.settings.Octaves)
	return int(math.Round(h))
}

// BlockAt classifies a single voxel given its column's surface height.
func (g *Generator) BlockAt(worldY, height int) BlockType {
	s := &g.settings
	switch {
	case worldY < s.FloorY:
		return BlockTypeAir
	case worldY == s.FloorY:
		return s.Palette.Floor
	case worldY > height:
		return BlockTypeAir
	case worldY == height:
		return s.Palette.Surface
	case worldY >= height-s.SubsurfaceDepth:
		return s.Palette.Subsurface
	default:
		return s.Palette.Deep
	}
}

// PopulateChunk fills a chunk using the noise heightmap.
func (g *Generator) PopulateChunk(c *Chunk) {
	origin := c.Coord.Origin()
	top := origin.Y + ChunkSize - 1
	if top < g.settings.FloorY {
		return
	}
	for lx := range ChunkSize {
		for lz := range ChunkSize {
			height := g.HeightAt(origin.X+lx, origin.Z+lz)
			if origin.Y > height && origin.Y > g.settings.FloorY {
				continue
			}
			for ly := range ChunkSize {
				if b := g.BlockAt(origin.Y+ly, height); b != BlockTypeAir {
					c.SetBlock(lx, ly, lz, b)
				}
			}
		}
	}
}

// FlatGenerator builds a flat world with the surface at a fixed height.
type FlatGenerator struct {
	Height  int
	Palette Palette
}

// NewFlatGenerator creates a flat generator with the default palette and a floor at y=0.
func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{Height: height, Palette: DefaultPalette}
}

func (g *FlatGenerator) HeightAt(worldX, worldZ int) int {
	return g.Height
}

func (g *FlatGenerator) PopulateChunk(c *Chunk) {
	origin := c.Coord.Origin()
	for ly := range ChunkSize {
		y := origin.Y + ly
		var b BlockType
		switch {
		case y < 0 || y > g.Height:
			continue
		case y == 0:
			b = g.Palette.Floor
		case y == g.Height:
			b = g.Palette.Surface
		default:
			b = g.Palette.Subsurface
		}
		for lx := range ChunkSize {
			for lz := range ChunkSize {
				c.SetBlock(lx, ly, lz, b)
			}
		}
	}
}
