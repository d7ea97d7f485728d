package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// FrameEvent is one emitted simulation frame: the full particle state of a
// world at a tick, ready for a renderer or downstream consumer.
type FrameEvent struct {
	WorldID       WorldID    `json:"world_id"`
	Tick          int64      `json:"tick"`
	Timestamp     int64      `json:"timestamp"`
	MaterialID    MaterialID `json:"material_id,omitempty"`
	ParticleCount int        `json:"particle_count"`
	Particles     []Particle `json:"particles"`
}

// JSON returns the frame event as JSON bytes.
func (fe FrameEvent) JSON() ([]byte, error) {
	return json.Marshal(fe)
}

// Streamer is the interface all frame delivery channels implement.
type Streamer interface {
	// ID returns a unique identifier for this streamer
	ID() string

	// Type returns the kind of streamer (e.g. "websocket", "webhook")
	Type() string

	// Send delivers a frame event. The context carries cancellation and
	// timeout.
	Send(ctx context.Context, event FrameEvent) error

	// Close releases any resources held by the streamer
	Close() error
}

// streamJob is one unit of work for the dispatch queue.
type streamJob struct {
	Event       FrameEvent
	StreamerIDs []string
}

// StreamManager owns the registered streamers and routes frame events to
// them asynchronously through a buffered queue. Delivery is best effort:
// a full queue drops frames (the next frame supersedes them anyway), and
// failed sends are retried with exponential backoff.
type StreamManager struct {
	mu        sync.RWMutex
	streamers map[string]Streamer
	jobs      chan streamJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger
}

// NewStreamManager creates a stream manager with a no-op logger.
func NewStreamManager() *StreamManager {
	return NewStreamManagerWithLogger(NewNoOpLogger())
}

// NewStreamManagerWithLogger creates a stream manager with the given logger.
func NewStreamManagerWithLogger(logger Logger) *StreamManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	mgr := &StreamManager{
		streamers: make(map[string]Streamer),
		jobs:      make(chan streamJob, 256),
		logger:    logger,
	}
	mgr.startWorkers(1)
	return mgr
}

// RegisterStreamer registers a streamer with the manager.
func (sm *StreamManager) RegisterStreamer(s Streamer) error {
	if s == nil {
		return fmt.Errorf("streamer cannot be nil")
	}

	id := s.ID()
	if id == "" {
		return fmt.Errorf("streamer ID cannot be empty")
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.streamers[id]; exists {
		return fmt.Errorf("streamer with ID %s already exists", id)
	}

	sm.streamers[id] = s
	return nil
}

// UnregisterStreamer closes and removes a streamer.
func (sm *StreamManager) UnregisterStreamer(id string) error {
	sm.mu.Lock()
	s, exists := sm.streamers[id]
	sm.mu.Unlock()

	if !exists {
		return fmt.Errorf("streamer with ID %s not found", id)
	}

	if err := s.Close(); err != nil {
		return fmt.Errorf("error closing streamer %s: %w", id, err)
	}

	sm.mu.Lock()
	delete(sm.streamers, id)
	sm.mu.Unlock()

	return nil
}

// GetStreamer retrieves a streamer by ID.
func (sm *StreamManager) GetStreamer(id string) (Streamer, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, exists := sm.streamers[id]
	return s, exists
}

// ListStreamers returns the IDs of all registered streamers.
func (sm *StreamManager) ListStreamers() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.streamers))
	for id := range sm.streamers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue queues a frame event for async delivery to the given streamer
// IDs. Non-blocking: if the queue is full the frame is dropped.
func (sm *StreamManager) Enqueue(event FrameEvent, streamerIDs []string) {
	if len(streamerIDs) == 0 {
		return
	}

	// The read lock is held across the send: Close flips the flag and
	// closes the channel under the write lock, so a send can never race a
	// close. The send itself cannot block (select with default).
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.closed {
		return
	}

	select {
	case sm.jobs <- streamJob{Event: event, StreamerIDs: streamerIDs}:
	default:
		sm.logger.Warnf("stream queue full, dropping frame: world=%s tick=%d", event.WorldID, event.Tick)
	}
}

// startWorkers starts n worker goroutines to drain the job queue.
func (sm *StreamManager) startWorkers(n int) {
	for range n {
		sm.wg.Add(1)
		go sm.worker()
	}
}

func (sm *StreamManager) worker() {
	defer sm.wg.Done()
	for job := range sm.jobs {
		sm.dispatchJob(job)
	}
}

func (sm *StreamManager) dispatchJob(job streamJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, id := range job.StreamerIDs {
		sm.sendWithRetry(ctx, id, job.Event)
	}
}

// sendWithRetry attempts delivery with exponential backoff.
func (sm *StreamManager) sendWithRetry(ctx context.Context, streamerID string, event FrameEvent) {
	sm.mu.RLock()
	s, ok := sm.streamers[streamerID]
	sm.mu.RUnlock()

	if !ok {
		sm.logger.Warnf("frame delivery failed: streamer=%s error=streamer not found", streamerID)
		return
	}

	const maxRetries = 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := s.Send(ctx, event)
		if err == nil {
			return
		}

		sm.logger.Warnf("frame delivery failed: streamer=%s attempt=%d error=%v", streamerID, attempt+1, err)

		if attempt == maxRetries {
			sm.logger.Errorf("frame delivery gave up after %d attempts: streamer=%s", maxRetries+1, streamerID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close shuts down the worker goroutines and closes every streamer.
func (sm *StreamManager) Close() error {
	sm.mu.Lock()
	if sm.closed {
		sm.mu.Unlock()
		return nil
	}
	sm.closed = true
	close(sm.jobs)
	sm.mu.Unlock()

	sm.wg.Wait()

	sm.mu.Lock()
	var errs []error
	for id, s := range sm.streamers {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing streamer %s: %w", id, err))
		}
	}
	sm.streamers = make(map[string]Streamer)
	sm.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing streamers: %v", errs)
	}
	return nil
}
