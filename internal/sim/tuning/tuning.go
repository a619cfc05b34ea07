package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/mesh"
	"voxelstream.ai/internal/sim/worldgen"
)

type Tuning struct {
	Seed int64 `yaml:"seed" json:"seed"`

	RenderDistance    int    `yaml:"render_distance" json:"render_distance"`
	MaxResidentChunks int    `yaml:"max_resident_chunks" json:"max_resident_chunks"`
	Mesher            string `yaml:"mesher" json:"mesher"`

	FrameRateHz        int `yaml:"frame_rate_hz" json:"frame_rate_hz"`
	MaxUploadsPerFrame int `yaml:"max_uploads_per_frame" json:"max_uploads_per_frame"`
	BuildWorkers       int `yaml:"build_workers" json:"build_workers"`
	MeshWorkers        int `yaml:"mesh_workers" json:"mesh_workers"`
	MeshBacklog        int `yaml:"mesh_backlog" json:"mesh_backlog"`

	BaseHeight int               `yaml:"base_height" json:"base_height"`
	Octaves    []worldgen.Octave `yaml:"octaves" json:"octaves"`
	Terrain    chunk.Bands       `yaml:"terrain" json:"terrain"`

	Observer Observer `yaml:"observer" json:"observer"`
}

// Observer describes the scripted observer of the headless engine.
type Observer struct {
	Start      [3]float32 `yaml:"start" json:"start"`
	Speed      float32    `yaml:"speed" json:"speed"` // blocks per second
	HeadingDeg float32    `yaml:"heading_deg" json:"heading_deg"`
}

func Defaults() Tuning {
	return Tuning{
		Seed:               1337,
		RenderDistance:     4,
		MaxResidentChunks:  0,
		Mesher:             "greedy",
		FrameRateHz:        30,
		MaxUploadsPerFrame: 2,
		BuildWorkers:       0,
		MeshWorkers:        0,
		MeshBacklog:        64,
		BaseHeight:         16,
		Octaves:            worldgen.DefaultOctaves(),
		Terrain:            chunk.DefaultBands(),
		Observer: Observer{
			Start: [3]float32{0, 40, 0},
			Speed: 8,
		},
	}
}

// Load reads path over Defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.RenderDistance < 0 || t.RenderDistance > 32 {
		return fmt.Errorf("render_distance must be in [0,32], got %d", t.RenderDistance)
	}
	if t.MaxResidentChunks < 0 {
		return fmt.Errorf("max_resident_chunks must be >= 0")
	}
	if side := 2*t.RenderDistance + 3; t.MaxResidentChunks > 0 && t.MaxResidentChunks < side*side*side {
		return fmt.Errorf("max_resident_chunks %d below generated region of %d chunks", t.MaxResidentChunks, side*side*side)
	}
	if _, ok := mesh.ByName(t.Mesher); !ok {
		return fmt.Errorf("unknown mesher %q", t.Mesher)
	}
	if t.FrameRateHz <= 0 {
		return fmt.Errorf("frame_rate_hz must be > 0")
	}
	if t.MaxUploadsPerFrame <= 0 {
		return fmt.Errorf("max_uploads_per_frame must be > 0")
	}
	if t.BuildWorkers < 0 || t.MeshWorkers < 0 || t.MeshBacklog < 0 {
		return fmt.Errorf("worker counts must be >= 0")
	}
	for i, o := range t.Octaves {
		if o.Scale <= 0 {
			return fmt.Errorf("octaves[%d].scale must be > 0", i)
		}
	}
	b := t.Terrain
	if b.WaterColumn < 0 || b.DirtDepth < 0 {
		return fmt.Errorf("terrain water_column and dirt_depth must be >= 0")
	}
	if !(b.DirtLine <= b.GrassLine && b.GrassLine <= b.StoneLine && b.StoneLine <= b.SnowLine) {
		return fmt.Errorf("terrain lines must satisfy dirt <= grass <= stone <= snow")
	}
	return nil
}
