package registry

import (
	"fmt"

	"mini-voxel/internal/world"
)

// BlockDefinition defines the properties of a block type
type BlockDefinition struct {
	ID          world.BlockType
	Name        string
	TextureTop  string
	TextureSide string
	TextureBot  string
	Transparent bool
	Breakable   bool

	// Faces holds the texture atlas layer per world.BlockFace, filled in on registration.
	Faces [world.FaceCount]int
}

// Registry maps block ids to their definitions. Register everything up front;
// after that a Registry is read-only and safe for concurrent lookups.
type Registry struct {
	blocks       []*BlockDefinition // indexed by id
	names        map[string]world.BlockType
	textureNames []string
	textureMap   map[string]int
}

// New returns an empty registry containing only air.
func New() *Registry {
	r := &Registry{
		names:      make(map[string]world.BlockType),
		textureMap: make(map[string]int),
	}
	// Layer 0 doubles as the missing-texture fallback.
	r.registerTexture("missing.png")
	_ = r.Register(&BlockDefinition{ID: world.BlockTypeAir, Name: "air", Transparent: true})
	return r
}

// Register adds a block definition. Ids and names must be unique.
func (r *Registry) Register(def *BlockDefinition) error {
	if _, dup := r.names[def.Name]; dup {
		return fmt.Errorf("block %q already registered", def.Name)
	}
	if int(def.ID) < len(r.blocks) && r.blocks[def.ID] != nil {
		return fmt.Errorf("block id %d already registered as %q", def.ID, r.blocks[def.ID].Name)
	}

	for face := range world.BlockFace(world.FaceCount) {
		var tex string
		switch face {
		case world.FaceTop:
			tex = def.TextureTop
		case world.FaceBottom:
			tex = def.TextureBot
		default:
			tex = def.TextureSide
		}
		def.Faces[face] = r.registerTexture(tex)
	}

	for int(def.ID) >= len(r.blocks) {
		r.blocks = append(r.blocks, nil)
	}
	r.blocks[def.ID] = def
	r.names[def.Name] = def.ID
	return nil
}

func (r *Registry) registerTexture(name string) int {
	if name == "" {
		return 0
	}
	if idx, ok := r.textureMap[name]; ok {
		return idx
	}
	idx := len(r.textureNames)
	r.textureMap[name] = idx
	r.textureNames = append(r.textureNames, name)
	return idx
}

// IDOf looks a block id up by name.
func (r *Registry) IDOf(name string) (world.BlockType, bool) {
	id, ok := r.names[name]
	return id, ok
}

// ByID returns the definition for id, or nil if unknown.
func (r *Registry) ByID(id world.BlockType) *BlockDefinition {
	if int(id) >= len(r.blocks) {
		return nil
	}
	return r.blocks[id]
}

// IsTransparent reports whether light and sight pass through the block.
// Unknown ids are treated as opaque.
func (r *Registry) IsTransparent(id world.BlockType) bool {
	if id == world.BlockTypeAir {
		return true
	}
	def := r.ByID(id)
	return def != nil && def.Transparent
}

// FaceLayer returns the texture layer index for a given block and face
func (r *Registry) FaceLayer(id world.BlockType, face world.BlockFace) int {
	def := r.ByID(id)
	if def == nil {
		return 0 // Fallback/Error texture
	}
	return def.Faces[face]
}

// TextureNames lists texture files in layer order.
func (r *Registry) TextureNames() []string {
	return append([]string(nil), r.textureNames...)
}

// Default returns a registry holding the built-in blocks.
func Default() *Registry {
	r := New()
	for _, def := range []*BlockDefinition{
		{ID: world.BlockTypeGrass, Name: "grass", TextureTop: "grass_top.png", TextureSide: "grass_side.png", TextureBot: "dirt.png", Breakable: true},
		{ID: world.BlockTypeDirt, Name: "dirt", TextureTop: "dirt.png", TextureSide: "dirt.png", TextureBot: "dirt.png", Breakable: true},
		{ID: world.BlockTypeStone, Name: "stone", TextureTop: "stone.png", TextureSide: "stone.png", TextureBot: "stone.png", Breakable: true},
		{ID: world.BlockTypeBedrock, Name: "bedrock", TextureTop: "bedrock.png", TextureSide: "bedrock.png", TextureBot: "bedrock.png"},
		{ID: world.BlockTypeSand, Name: "sand", TextureTop: "sand.png", TextureSide: "sand.png", TextureBot: "sand.png", Breakable: true},
		{ID: world.BlockTypeGravel, Name: "gravel", TextureTop: "gravel.png", TextureSide: "gravel.png", TextureBot: "gravel.png", Breakable: true},
		{ID: world.BlockTypeGlass, Name: "glass", TextureTop: "glass.png", TextureSide: "glass.png", TextureBot: "glass.png", Transparent: true, Breakable: true},
		{ID: world.BlockTypeWater, Name: "water_still", TextureTop: "water_still.png", TextureSide: "water_flow.png", TextureBot: "water_still.png", Transparent: true},
	} {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}
