package flow

import (
	"fmt"
	"sync"
)

// WorldManager manages multiple worlds, each isolated from the others.
type WorldManager struct {
	mu     sync.RWMutex
	worlds map[WorldID]*World
	logger Logger
}

// NewWorldManager creates a world manager with a no-op logger.
func NewWorldManager() *WorldManager {
	return NewWorldManagerWithLogger(NewNoOpLogger())
}

// NewWorldManagerWithLogger creates a world manager with the given logger.
// The logger is propagated to every world the manager creates.
func NewWorldManagerWithLogger(logger Logger) *WorldManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &WorldManager{
		worlds: make(map[WorldID]*World),
		logger: logger,
	}
}

// CreateWorld creates a new world with the given ID and bounds.
// Returns an error if a world with that ID already exists.
func (wm *WorldManager) CreateWorld(id WorldID, bounds Bounds) (*World, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.worlds[id]; exists {
		return nil, fmt.Errorf("world with id %s already exists", id)
	}

	w := NewWorld(id, bounds)
	w.SetLogger(wm.logger)
	wm.worlds[id] = w
	return w, nil
}

// GetWorld retrieves a world by ID.
// Returns the world and a boolean indicating if it was found.
func (wm *WorldManager) GetWorld(id WorldID) (*World, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	w, exists := wm.worlds[id]
	return w, exists
}

// DeleteWorld stops and removes a world by ID.
// Returns an error if the world doesn't exist.
func (wm *WorldManager) DeleteWorld(id WorldID) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	w, exists := wm.worlds[id]
	if !exists {
		return fmt.Errorf("world with id %s does not exist", id)
	}

	w.Stop()
	delete(wm.worlds, id)
	return nil
}

// ListWorlds returns a list of all world IDs.
func (wm *WorldManager) ListWorlds() []WorldID {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	ids := make([]WorldID, 0, len(wm.worlds))
	for id := range wm.worlds {
		ids = append(ids, id)
	}
	return ids
}
