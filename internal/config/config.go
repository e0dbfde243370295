package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"
)

// World types accepted by world_type.
const (
	WorldNoise = "noise"
	WorldFlat  = "flat"
)

// Config is the terrain configuration surface.
type Config struct {
	LoadDistance       int `yaml:"load_distance"` // in chunks
	ChunkEdgeLength    int `yaml:"chunk_edge_length"`
	GenerationPoolSize int `yaml:"generation_pool_size"` // 0 = one per CPU
	MeshPoolSize       int `yaml:"mesh_pool_size"`

	WorldType       string   `yaml:"world_type"`
	NoiseSeed       int64    `yaml:"noise_seed"`
	Octaves         []Octave `yaml:"octaves"`
	BaseHeight      int      `yaml:"base_height"`
	SubsurfaceDepth int      `yaml:"subsurface_depth"`
	FloorY          int      `yaml:"floor_y"`
	FlatHeight      int      `yaml:"flat_height"`
	Blocks          Blocks   `yaml:"blocks"`

	MaxPendingGeneration int     `yaml:"max_pending_generation"`
	MaxPendingMesh       int     `yaml:"max_pending_mesh"`
	MaxDrainPerTick      int     `yaml:"max_drain_per_tick"`
	GenerationRate       float64 `yaml:"generation_rate"` // requests per second, 0 = unlimited
	TickRateHz           int     `yaml:"tick_rate_hz"`
	SlowTickMs           int     `yaml:"slow_tick_ms"`

	Retry Retry `yaml:"retry"`
}

type Octave struct {
	Frequency float64 `yaml:"frequency"`
	Amplitude float64 `yaml:"amplitude"`
}

// Blocks names the registry blocks used for each terrain layer.
type Blocks struct {
	Surface    string `yaml:"surface"`
	Subsurface string `yaml:"subsurface"`
	Deep       string `yaml:"deep"`
	Floor      string `yaml:"floor"`
}

// Retry is the backoff applied to positions whose worker task failed, in ticks.
type Retry struct {
	BaseTicks int `yaml:"base_ticks"`
	MaxTicks  int `yaml:"max_ticks"`
}

// Default returns the built-in configuration.
func Default() Config {
	gen := world.DefaultGeneratorSettings(0)
	octaves := make([]Octave, len(gen.Octaves))
	for i, o := range gen.Octaves {
		octaves[i] = Octave{Frequency: o.Frequency, Amplitude: o.Amplitude}
	}
	return Config{
		LoadDistance:    4,
		ChunkEdgeLength: world.ChunkSize,

		WorldType:       WorldNoise,
		NoiseSeed:       gen.Seed,
		Octaves:         octaves,
		BaseHeight:      gen.BaseHeight,
		SubsurfaceDepth: gen.SubsurfaceDepth,
		FloorY:          gen.FloorY,
		FlatHeight:      4,
		Blocks: Blocks{
			Surface:    "grass",
			Subsurface: "dirt",
			Deep:       "stone",
			Floor:      "bedrock",
		},

		MaxPendingGeneration: 256,
		MaxPendingMesh:       256,
		MaxDrainPerTick:      64,
		TickRateHz:           20,
		SlowTickMs:           10,

		Retry: Retry{BaseTicks: 2, MaxTicks: 64},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := validateSchema(b); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills in derived defaults.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.WorldType = strings.ToLower(strings.TrimSpace(c.WorldType))
	if c.WorldType == "" {
		c.WorldType = WorldNoise
	}
	if c.ChunkEdgeLength == 0 {
		c.ChunkEdgeLength = world.ChunkSize
	}
	if c.Retry.MaxTicks < c.Retry.BaseTicks {
		c.Retry.MaxTicks = c.Retry.BaseTicks
	}
}

// Validate checks cross-field constraints the schema cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.LoadDistance < 0 {
		errs = append(errs, fmt.Errorf("load_distance must be >= 0, got %d", c.LoadDistance))
	}
	if c.ChunkEdgeLength != world.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk_edge_length must be %d, got %d", world.ChunkSize, c.ChunkEdgeLength))
	}
	if c.GenerationPoolSize < 0 || c.MeshPoolSize < 0 {
		errs = append(errs, errors.New("pool sizes must be >= 0"))
	}
	switch c.WorldType {
	case WorldNoise, WorldFlat:
	default:
		errs = append(errs, fmt.Errorf("unknown world_type %q", c.WorldType))
	}
	for i, o := range c.Octaves {
		if o.Frequency <= 0 {
			errs = append(errs, fmt.Errorf("octaves[%d]: frequency must be > 0", i))
		}
	}
	if c.SubsurfaceDepth < 0 {
		errs = append(errs, fmt.Errorf("subsurface_depth must be >= 0, got %d", c.SubsurfaceDepth))
	}
	if c.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate_hz must be > 0, got %d", c.TickRateHz))
	}
	if c.GenerationRate < 0 {
		errs = append(errs, fmt.Errorf("generation_rate must be >= 0, got %g", c.GenerationRate))
	}
	if c.Retry.BaseTicks <= 0 {
		errs = append(errs, fmt.Errorf("retry.base_ticks must be > 0, got %d", c.Retry.BaseTicks))
	}
	return errors.Join(errs...)
}

// Palette resolves the configured block names through the registry.
func (c Config) Palette(reg *registry.Registry) (world.Palette, error) {
	var p world.Palette
	for _, layer := range []struct {
		key  string
		name string
		dst  *world.BlockType
	}{
		{"surface", c.Blocks.Surface, &p.Surface},
		{"subsurface", c.Blocks.Subsurface, &p.Subsurface},
		{"deep", c.Blocks.Deep, &p.Deep},
		{"floor", c.Blocks.Floor, &p.Floor},
	} {
		id, ok := reg.IDOf(layer.name)
		if !ok {
			return p, fmt.Errorf("blocks.%s: unknown block %q", layer.key, layer.name)
		}
		*layer.dst = id
	}
	return p, nil
}

// GeneratorSettings converts the noise options into world generator settings.
func (c Config) GeneratorSettings(reg *registry.Registry) (world.GeneratorSettings, error) {
	palette, err := c.Palette(reg)
	if err != nil {
		return world.GeneratorSettings{}, err
	}
	octaves := make([]world.Octave, len(c.Octaves))
	for i, o := range c.Octaves {
		octaves[i] = world.Octave{Frequency: o.Frequency, Amplitude: o.Amplitude}
	}
	return world.GeneratorSettings{
		Seed:            c.NoiseSeed,
		Octaves:         octaves,
		BaseHeight:      c.BaseHeight,
		SubsurfaceDepth: c.SubsurfaceDepth,
		FloorY:          c.FloorY,
		Palette:         palette,
	}, nil
}

// NewGenerator builds the terrain generator selected by world_type.
func (c Config) NewGenerator(reg *registry.Registry) (world.TerrainGenerator, error) {
	palette, err := c.Palette(reg)
	if err != nil {
		return nil, err
	}
	if c.WorldType == WorldFlat {
		g := world.NewFlatGenerator(c.FlatHeight)
		g.Palette = palette
		return g, nil
	}
	settings, err := c.GeneratorSettings(reg)
	if err != nil {
		return nil, err
	}
	return world.NewGenerator(settings), nil
}
