package main

import (
	"github.com/matflow/matflow/internal/flow"
	"github.com/matflow/matflow/internal/flow/streamers"
)

// flowLoggerAdapter adapts the server's Logger to the flow.Logger interface
type flowLoggerAdapter struct {
	logger *Logger
}

func (a *flowLoggerAdapter) Debugf(format string, v ...any) {
	a.logger.Debugf(format, v...)
}

func (a *flowLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Infof(format, v...)
}

func (a *flowLoggerAdapter) Warnf(format string, v ...any) {
	a.logger.Warnf(format, v...)
}

func (a *flowLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Errorf(format, v...)
}

// wsStreamerID is the always-registered websocket streamer every world
// broadcasts through; /worlds/{id}/stream attaches clients to it.
const wsStreamerID = "ws-frames"

// Server is the HTTP server over a world manager and a material catalog.
type Server struct {
	manager            *flow.WorldManager
	catalog            *flow.Catalog
	streamMgr          *flow.StreamManager
	wsStreamer         *streamers.WebSocketStreamer
	snapshotDir        string
	snapshotEveryTicks int
	frameStride        int
	defaultBounds      flow.Bounds
	logger             *Logger
}

// NewServer creates a new server instance around the given catalog.
func NewServer(catalog *flow.Catalog, logger *Logger) *Server {
	flowLogger := &flowLoggerAdapter{logger: logger}

	streamMgr := flow.NewStreamManagerWithLogger(flowLogger)
	ws := streamers.NewWebSocketStreamer(wsStreamerID)
	// Registration of a fresh manager's first streamer cannot fail.
	_ = streamMgr.RegisterStreamer(ws)

	return &Server{
		manager:       flow.NewWorldManagerWithLogger(flowLogger),
		catalog:       catalog,
		streamMgr:     streamMgr,
		wsStreamer:    ws,
		frameStride:   1,
		defaultBounds: flow.Bounds{Width: 800, Height: 600},
		logger:        logger,
	}
}

// SetSnapshotDir sets the snapshot directory applied to new worlds.
func (s *Server) SetSnapshotDir(dir string) {
	s.snapshotDir = dir
}

// SetSnapshotEveryTicks sets the snapshot frequency applied to new worlds.
func (s *Server) SetSnapshotEveryTicks(ticks int) {
	s.snapshotEveryTicks = ticks
}

// SetFrameStride sets the frame emission stride applied to new worlds.
func (s *Server) SetFrameStride(n int) {
	s.frameStride = n
}

// SetDefaultBounds sets the bounds used when a create request omits them.
func (s *Server) SetDefaultBounds(b flow.Bounds) {
	s.defaultBounds = b
}

// createWorld creates a world and wires streaming and persistence into it.
func (s *Server) createWorld(id flow.WorldID, bounds flow.Bounds) (*flow.World, error) {
	w, err := s.manager.CreateWorld(id, bounds)
	if err != nil {
		return nil, err
	}

	w.SetStreamManager(s.streamMgr)
	w.SetFrameStride(s.frameStride)
	if s.snapshotDir != "" {
		w.SetSnapshotDir(s.snapshotDir)
	}
	if s.snapshotEveryTicks >= 0 {
		w.SetSnapshotEveryNTicks(s.snapshotEveryTicks)
	}
	return w, nil
}

// Close shuts down streaming.
func (s *Server) Close() error {
	return s.streamMgr.Close()
}
