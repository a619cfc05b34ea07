// Package viewer streams uploaded chunk meshes to remote viewers over
// WebSocket.
package viewer

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"

	"voxelstream.ai/internal/sim/mesh"
	"voxelstream.ai/internal/sim/voxel"
	"voxelstream.ai/internal/viewerproto"
)

type session struct {
	id  string
	out chan []byte

	mu     sync.Mutex
	focus  voxel.ChunkPos
	radius int
}

func (s *session) covers(pos voxel.ChunkPos) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pos.Chebyshev(s.focus) <= s.radius
}

func (s *session) subscribe(sub viewerproto.SubscribeMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = voxel.ChunkPos{X: sub.Focus[0], Y: sub.Focus[1], Z: sub.Focus[2]}
	s.radius = sub.ChunkRadius
}

// Server fans chunk meshes out to viewer sessions. It is a render upload
// listener: MeshUploaded and MeshEvicted run on the render thread and never
// block on a slow viewer.
type Server struct {
	log       *log.Logger
	bootstrap viewerproto.BootstrapResponse
	enc       *zstd.Encoder

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
	meshes   map[voxel.ChunkPos][]byte

	sent    atomic.Uint64
	dropped atomic.Uint64
}

func NewServer(bootstrap viewerproto.BootstrapResponse, logger *log.Logger) *Server {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	return &Server{
		log:       logger,
		bootstrap: bootstrap,
		enc:       enc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: map[string]*session{},
		meshes:   map[voxel.ChunkPos][]byte{},
	}
}

// EncodeVertices packs words little-endian and zstd-compresses them.
func (s *Server) EncodeVertices(words []uint32) string {
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(raw[4*i:], w)
	}
	return base64.StdEncoding.EncodeToString(s.enc.EncodeAll(raw, nil))
}

// DecodeVertices reverses EncodeVertices.
func DecodeVertices(data string) ([]uint32, error) {
	comp, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(comp, nil)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return out, nil
}

func posArray(p voxel.ChunkPos) [3]int { return [3]int{p.X, p.Y, p.Z} }

func (s *Server) MeshUploaded(m *mesh.Mesh) {
	if m.IsEmpty() {
		s.MeshEvicted(m.Pos)
		return
	}
	b, err := json.Marshal(viewerproto.ChunkMeshMsg{
		Type:            viewerproto.TypeChunkMesh,
		ProtocolVersion: viewerproto.Version,
		Pos:             posArray(m.Pos),
		Version:         m.Version,
		Vertices:        len(m.Vertices),
		Opaque:          m.Opaque,
		Encoding:        viewerproto.EncodingZstdU32LE,
		Data:            s.EncodeVertices(m.Vertices),
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	s.meshes[m.Pos] = b
	s.mu.Unlock()
	s.broadcast(m.Pos, b)
}

func (s *Server) MeshEvicted(pos voxel.ChunkPos) {
	s.mu.Lock()
	_, had := s.meshes[pos]
	delete(s.meshes, pos)
	s.mu.Unlock()
	if !had {
		return
	}
	b, _ := json.Marshal(viewerproto.ChunkEvictMsg{
		Type:            viewerproto.TypeChunkEvict,
		ProtocolVersion: viewerproto.Version,
		Pos:             posArray(pos),
	})
	s.broadcast(pos, b)
}

func (s *Server) broadcast(pos voxel.ChunkPos, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if !sess.covers(pos) {
			continue
		}
		s.send(sess, b)
	}
}

func (s *Server) send(sess *session, b []byte) {
	select {
	case sess.out <- b:
		s.sent.Add(1)
	default:
		s.dropped.Add(1)
	}
}

// Sessions returns the number of connected viewers.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cached returns the number of chunk meshes replayed to new viewers.
func (s *Server) Cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meshes)
}

type Stats struct {
	Sessions int    `json:"sessions"`
	Cached   int    `json:"cached"`
	Sent     uint64 `json:"sent"`
	Dropped  uint64 `json:"dropped"`
}

func (s *Server) Stats() Stats {
	return Stats{Sessions: s.Sessions(), Cached: s.Cached(), Sent: s.sent.Load(), Dropped: s.dropped.Load()}
}

func (s *Server) join(sub viewerproto.SubscribeMsg) *session {
	sess := &session{id: uuid.NewString(), out: make(chan []byte, 4096)}
	sess.subscribe(sub)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
	s.replayLocked(sess)
	return sess
}

// replayLocked queues the cached meshes a session covers.
func (s *Server) replayLocked(sess *session) {
	for pos, b := range s.meshes {
		if sess.covers(pos) {
			s.send(sess, b)
		}
	}
}

func (s *Server) resubscribe(sess *session, sub viewerproto.SubscribeMsg) {
	sess.subscribe(sub)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replayLocked(sess)
}

func (s *Server) leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.bootstrap)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := parseSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sess := s.join(sub)
		defer s.leave(sess.id)
		if s.log != nil {
			s.log.Printf("viewer %s joined focus=%v radius=%d", sess.id, sub.Focus, sub.ChunkRadius)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if sub, ok := parseSubscribe(msg); ok {
				s.resubscribe(sess, sub)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func parseSubscribe(msg []byte) (viewerproto.SubscribeMsg, bool) {
	var sub viewerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	if sub.Type != viewerproto.TypeSubscribe || sub.ProtocolVersion != viewerproto.Version {
		return sub, false
	}
	normalizeSubscribe(&sub)
	return sub, true
}

func normalizeSubscribe(sub *viewerproto.SubscribeMsg) {
	if sub.ChunkRadius <= 0 {
		sub.ChunkRadius = 4
	}
	if sub.ChunkRadius > 32 {
		sub.ChunkRadius = 32
	}
}

// IsLoopbackRemote reports whether remoteAddr, as found in
// http.Request.RemoteAddr, is a loopback address.
func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
