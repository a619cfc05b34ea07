package world

import (
	"voxelstream.ai/internal/sim/chunk"
)

type WorldConfig struct {
	// RenderDistance is the chunk radius of the cube kept meshed around the
	// observer. One more ring of chunks is generated for edge culling.
	RenderDistance int
	// MaxResident bounds the chunk map; 0 keeps every generated chunk.
	MaxResident int

	Bands chunk.Bands
}

func (c WorldConfig) normalized() WorldConfig {
	if c.RenderDistance < 0 {
		c.RenderDistance = 0
	}
	if c.MaxResident < 0 {
		c.MaxResident = 0
	}
	return c
}
