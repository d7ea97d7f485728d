package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matflow/matflow/internal/flow"
	"github.com/matflow/matflow/internal/flow/streamers"
)

// extractWorldID extracts the world ID from a path like "/worlds/{id}/..."
// Returns the world ID and the remaining path, or empty strings if the path
// does not match.
func extractWorldID(path string) (flow.WorldID, string) {
	if !strings.HasPrefix(path, "/worlds/") {
		return "", ""
	}

	rest := path[len("/worlds/"):]

	idx := strings.Index(rest, "/")
	if idx == -1 {
		return flow.WorldID(rest), ""
	}

	return flow.WorldID(rest[:idx]), rest[idx:]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleMaterialsRoutes routes /materials requests.
func (s *Server) handleMaterialsRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/materials" && r.Method == http.MethodGet:
		s.handleListMaterials(w, r)
	case r.URL.Path == "/materials/classify" && r.Method == http.MethodPost:
		s.handleClassify(w, r)
	case strings.HasPrefix(r.URL.Path, "/materials/") && r.Method == http.MethodGet:
		s.handleGetMaterial(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /materials
func (s *Server) handleListMaterials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string][]flow.Material{"materials": s.catalog.Materials()})
}

// GET /materials/{id}
func (s *Server) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/materials/")
	if id == "" {
		http.Error(w, "material ID is required", http.StatusBadRequest)
		return
	}

	m, ok := s.catalog.Material(flow.MaterialID(id))
	if !ok {
		http.Error(w, "material not found", http.StatusNotFound)
		return
	}

	writeJSON(w, m)
}

// POST /materials/classify
// Body: PixelStats JSON
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var stats flow.PixelStats
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := flow.Classify(stats, s.catalog)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debugf("Classified sample: material=%s confidence=%.2f", result.Material.ID, result.Confidence)
	writeJSON(w, result)
}

// POST /worlds
// Body: { "id": "...", "width": 800, "height": 600 } (all optional)
type createWorldRequest struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createWorldRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	id := flow.WorldID(req.ID)
	if id == "" {
		id = flow.WorldID(flow.NewRandomID())
	}

	bounds := s.defaultBounds
	if req.Width > 0 {
		bounds.Width = req.Width
	}
	if req.Height > 0 {
		bounds.Height = req.Height
	}

	world, err := s.createWorld(id, bounds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	s.logger.Infof("World created: world_id=%s bounds=%gx%g", id, bounds.Width, bounds.Height)

	writeJSON(w, map[string]any{"id": string(world.ID()), "bounds": world.Bounds()})
}

// GET /worlds
func (s *Server) handleListWorlds(w http.ResponseWriter, _ *http.Request) {
	worldIDs := s.manager.ListWorlds()

	ids := make([]string, len(worldIDs))
	for i, id := range worldIDs {
		ids[i] = string(id)
	}

	writeJSON(w, map[string][]string{"worlds": ids})
}

// DELETE /worlds/{id}
func (s *Server) handleDeleteWorld(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)

	if err := s.manager.DeleteWorld(worldID); err != nil {
		s.logger.Warnf("Failed to delete world: world_id=%s error=%v", worldID, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Infof("World deleted: world_id=%s", worldID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world deleted"))
}

// POST /worlds/{id}/spawn
// Body: { "material_id": "...", "params": { ... } }
type spawnRequest struct {
	MaterialID string            `json:"material_id"`
	Params     *flow.ParamsPatch `json:"params,omitempty"`
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request, world *flow.World) {
	defer r.Body.Close()

	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	m, ok := s.catalog.Material(flow.MaterialID(req.MaterialID))
	if !ok {
		http.Error(w, "material not found: "+req.MaterialID, http.StatusBadRequest)
		return
	}

	if req.Params != nil {
		world.ApplyPatch(*req.Params)
	}
	world.Spawn(m)

	s.logger.Infof("Spawn: world_id=%s material=%s particles=%d", world.ID(), m.ID, len(world.Particles()))

	writeJSON(w, map[string]any{
		"material_id":    string(m.ID),
		"particle_count": flow.SpawnCount(m.Category),
	})
}

// POST /worlds/{id}/params
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request, world *flow.World) {
	defer r.Body.Close()

	var patch flow.ParamsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	world.ApplyPatch(patch)
	writeJSON(w, world.Params())
}

// POST /worlds/{id}/tick
// Manually trigger a single step (useful when auto-running is disabled)
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request, world *flow.World) {
	world.Step()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ticked"))
}

// POST /worlds/{id}/start?interval=ms
// Start the world ticking at the given interval (default 16ms, ~60 tps).
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, world *flow.World) {
	interval := 16 * time.Millisecond
	if intervalStr := r.URL.Query().Get("interval"); intervalStr != "" {
		if ms, err := strconv.Atoi(intervalStr); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		} else {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
	}

	world.Run(interval)
	s.logger.Infof("World started: world_id=%s interval=%v", world.ID(), interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world started"))
}

// POST /worlds/{id}/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, world *flow.World) {
	world.Stop()
	s.logger.Infof("World stopped: world_id=%s", world.ID())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world stopped"))
}

// GET /worlds/{id}/particles
func (s *Server) handleListParticles(w http.ResponseWriter, r *http.Request, world *flow.World) {
	writeJSON(w, map[string]any{
		"tick":      world.TickCount(),
		"particles": world.Particles(),
	})
}

// POST /worlds/{id}/snapshot
// Triggers a synchronous snapshot save.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request, world *flow.World) {
	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}
	world.SetSnapshotDir(s.snapshotDir)

	if err := world.SaveSnapshot(); err != nil {
		s.logger.Errorf("Failed to save snapshot: world_id=%s error=%v", world.ID(), err)
		http.Error(w, "failed to save snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	path := world.SnapshotPath()
	s.logger.Debugf("Snapshot saved: world_id=%s path=%s", world.ID(), path)

	writeJSON(w, map[string]string{"status": "ok", "path": path})
}

// GET /worlds/{id}/snapshot
// Returns the raw snapshot JSON if it exists.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request, world *flow.World) {
	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}
	world.SetSnapshotDir(s.snapshotDir)

	data, err := os.ReadFile(world.SnapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /worlds/{id}/stream
// Upgrades to a websocket and attaches the client to the frame broadcast.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, world *flow.World) {
	upgrader := s.wsStreamer.Upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("Websocket upgrade failed: world_id=%s error=%v", world.ID(), err)
		return
	}

	s.wsStreamer.RegisterClient(conn, world.ID())
	s.logger.Debugf("Stream client attached: world_id=%s remote=%s", world.ID(), conn.RemoteAddr())

	// Drain the read side so close frames are processed; unregister when
	// the client goes away.
	go func() {
		defer s.wsStreamer.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleWorldsRoutes routes /worlds requests to world-specific handlers.
func (s *Server) handleWorldsRoutes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/worlds" {
		switch r.Method {
		case http.MethodGet:
			s.handleListWorlds(w, r)
		case http.MethodPost:
			s.handleCreateWorld(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
		return
	}

	worldID, remainingPath := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /worlds/{id}/...", http.StatusBadRequest)
		return
	}

	if remainingPath == "" && r.Method == http.MethodDelete {
		s.handleDeleteWorld(w, r)
		return
	}

	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	switch {
	case remainingPath == "/spawn" && r.Method == http.MethodPost:
		s.handleSpawn(w, r, world)
	case remainingPath == "/params" && r.Method == http.MethodPost:
		s.handleParams(w, r, world)
	case remainingPath == "/tick" && r.Method == http.MethodPost:
		s.handleTick(w, r, world)
	case remainingPath == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r, world)
	case remainingPath == "/stop" && r.Method == http.MethodPost:
		s.handleStop(w, r, world)
	case remainingPath == "/particles" && r.Method == http.MethodGet:
		s.handleListParticles(w, r, world)
	case remainingPath == "/snapshot" && r.Method == http.MethodPost:
		s.handleSaveSnapshot(w, r, world)
	case remainingPath == "/snapshot" && r.Method == http.MethodGet:
		s.handleGetSnapshot(w, r, world)
	case remainingPath == "/stream" && r.Method == http.MethodGet:
		s.handleStream(w, r, world)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleStreamersRoutes handles streamer management endpoints.
func (s *Server) handleStreamersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/streamers" && r.Method == http.MethodGet:
		s.handleListStreamers(w, r)
	case r.URL.Path == "/streamers" && r.Method == http.MethodPost:
		s.handleRegisterStreamer(w, r)
	case strings.HasPrefix(r.URL.Path, "/streamers/") && r.Method == http.MethodDelete:
		s.handleUnregisterStreamer(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /streamers
func (s *Server) handleListStreamers(w http.ResponseWriter, _ *http.Request) {
	ids := s.streamMgr.ListStreamers()

	list := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		st, exists := s.streamMgr.GetStreamer(id)
		if exists {
			list = append(list, map[string]string{
				"id":   id,
				"type": st.Type(),
			})
		}
	}

	writeJSON(w, map[string]any{"streamers": list})
}

// POST /streamers
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://..." } }
type registerStreamerRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterStreamer(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerStreamerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "streamer ID is required", http.StatusBadRequest)
		return
	}

	var streamer flow.Streamer

	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := streamers.NewWebhookStreamer(req.ID, url)

		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}

		streamer = wh
	default:
		http.Error(w, "unknown streamer type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.streamMgr.RegisterStreamer(streamer); err != nil {
		http.Error(w, "cannot register streamer: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("streamer registered"))
}

// DELETE /streamers/{id}
func (s *Server) handleUnregisterStreamer(w http.ResponseWriter, r *http.Request) {
	streamerID := strings.TrimPrefix(r.URL.Path, "/streamers/")
	if streamerID == "" {
		http.Error(w, "streamer ID is required", http.StatusBadRequest)
		return
	}

	if streamerID == wsStreamerID {
		http.Error(w, "cannot unregister the builtin websocket streamer", http.StatusBadRequest)
		return
	}

	if err := s.streamMgr.UnregisterStreamer(streamerID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("streamer unregistered"))
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}
