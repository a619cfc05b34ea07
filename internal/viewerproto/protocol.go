// Package viewerproto defines the JSON messages exchanged with remote mesh
// viewers over the viewer WebSocket.
package viewerproto

// Version is the viewer protocol version.
const Version = "0.1"

const (
	TypeSubscribe  = "SUBSCRIBE"
	TypeChunkMesh  = "CHUNK_MESH"
	TypeChunkEvict = "CHUNK_EVICT"
)

// EncodingZstdU32LE marks vertex data as little-endian uint32 words,
// zstd-compressed, then base64 (std alphabet) encoded.
const EncodingZstdU32LE = "zstd+u32le"

// Client -> Server. First message on the viewer WS connection, and can be re-sent to move the focus.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Focus           [3]int `json:"focus"`
	ChunkRadius     int    `json:"chunk_radius"`
}

// HTTP response for GET /viewer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string       `json:"protocol_version"`
	RunID           string       `json:"run_id"`
	Params          StreamParams `json:"params"`
	VoxelPalette    []string     `json:"voxel_palette"`
	Layout          VertexLayout `json:"vertex_layout"`
}

type StreamParams struct {
	ChunkSize      int    `json:"chunk_size"`
	RenderDistance int    `json:"render_distance"`
	FrameRateHz    int    `json:"frame_rate_hz"`
	Seed           int64  `json:"seed"`
	Mesher         string `json:"mesher"`
}

// VertexLayout gives the bit offset and width of each packed vertex field.
type VertexLayout struct {
	Voxel [2]int `json:"voxel"`
	Z     [2]int `json:"z"`
	Y     [2]int `json:"y"`
	X     [2]int `json:"x"`
	Face  [2]int `json:"face"`
}

// Server -> Client. Sent whenever a chunk mesh is uploaded.
type ChunkMeshMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Pos             [3]int `json:"pos"`
	Version         uint64 `json:"version"`
	Vertices        int    `json:"vertices"`
	Opaque          int    `json:"opaque"`
	Encoding        string `json:"encoding"`
	Data            string `json:"data"`
}

// Server -> Client. The chunk left the scene or its mesh became empty.
type ChunkEvictMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Pos             [3]int `json:"pos"`
}
