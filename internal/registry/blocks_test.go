package registry

import (
	"testing"

	"mini-voxel/internal/world"
)

func TestDefaultRegistryLookups(t *testing.T) {
	r := Default()
	for name, want := range map[string]world.BlockType{
		"air":         world.BlockTypeAir,
		"grass":       world.BlockTypeGrass,
		"dirt":        world.BlockTypeDirt,
		"stone":       world.BlockTypeStone,
		"bedrock":     world.BlockTypeBedrock,
		"glass":       world.BlockTypeGlass,
		"water_still": world.BlockTypeWater,
	} {
		id, ok := r.IDOf(name)
		if !ok || id != want {
			t.Errorf("IDOf(%q) = %v,%v want %v", name, id, ok, want)
		}
		if def := r.ByID(want); def == nil || def.Name != name {
			t.Errorf("ByID(%v) = %+v", want, def)
		}
	}
	if _, ok := r.IDOf("obsidian"); ok {
		t.Errorf("unknown name resolved")
	}
	if r.ByID(999) != nil {
		t.Errorf("unknown id resolved")
	}
}

func TestTransparency(t *testing.T) {
	r := Default()
	tests := []struct {
		id   world.BlockType
		want bool
	}{
		{world.BlockTypeAir, true},
		{world.BlockTypeGlass, true},
		{world.BlockTypeWater, true},
		{world.BlockTypeStone, false},
		{world.BlockTypeGrass, false},
		{world.BlockType(999), false},
	}
	for _, tt := range tests {
		if got := r.IsTransparent(tt.id); got != tt.want {
			t.Errorf("IsTransparent(%v) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestFaceLayers(t *testing.T) {
	r := Default()
	top := r.FaceLayer(world.BlockTypeGrass, world.FaceTop)
	side := r.FaceLayer(world.BlockTypeGrass, world.FaceNorth)
	bottom := r.FaceLayer(world.BlockTypeGrass, world.FaceBottom)
	dirt := r.FaceLayer(world.BlockTypeDirt, world.FaceEast)

	if top == side || side == bottom {
		t.Errorf("grass faces share layers: top=%d side=%d bottom=%d", top, side, bottom)
	}
	if bottom != dirt {
		t.Errorf("grass bottom layer %d should reuse dirt layer %d", bottom, dirt)
	}
	for f := range world.BlockFace(world.FaceCount) {
		if l := r.FaceLayer(world.BlockTypeStone, f); l == 0 {
			t.Errorf("stone %v mapped to the fallback layer", f)
		}
	}
	if l := r.FaceLayer(world.BlockType(999), world.FaceTop); l != 0 {
		t.Errorf("unknown block layer = %d, want fallback 0", l)
	}

	names := r.TextureNames()
	if names[0] != "missing.png" || names[top] != "grass_top.png" {
		t.Errorf("texture names out of order: %v", names)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	r := New()
	if err := r.Register(&BlockDefinition{ID: 20, Name: "marble", TextureSide: "marble.png"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&BlockDefinition{ID: 21, Name: "marble"}); err == nil {
		t.Errorf("duplicate name accepted")
	}
	if err := r.Register(&BlockDefinition{ID: 20, Name: "granite"}); err == nil {
		t.Errorf("duplicate id accepted")
	}
	if r.ByID(10) != nil {
		t.Errorf("gap id resolved to a definition")
	}
}
