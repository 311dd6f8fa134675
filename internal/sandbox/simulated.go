package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const simulatedPayload = "Simulated sandbox result after polling."

// SimulatedLauncher is an in-process Launcher used for local development and
// tests. Launched sandboxes report RUNNING on every Check, so the blocking
// pattern's poll budget decides when a run is treated as complete. A real
// backend is swapped in without touching orchestration code.
type SimulatedLauncher struct {
	mu       sync.RWMutex
	launched map[string]LaunchConfig
}

func NewSimulatedLauncher() *SimulatedLauncher {
	return &SimulatedLauncher{
		launched: make(map[string]LaunchConfig),
	}
}

func (l *SimulatedLauncher) Launch(ctx context.Context, cfg LaunchConfig) (string, error) {
	sandboxID := fmt.Sprintf("sandbox-%s", uuid.New())

	l.mu.Lock()
	l.launched[sandboxID] = cfg
	l.mu.Unlock()

	return sandboxID, nil
}

func (l *SimulatedLauncher) Check(ctx context.Context, sandboxID string) (Status, error) {
	l.mu.RLock()
	_, ok := l.launched[sandboxID]
	l.mu.RUnlock()

	if !ok {
		return "", &NotFoundError{SandboxID: sandboxID}
	}

	return StatusRunning, nil
}

func (l *SimulatedLauncher) Collect(ctx context.Context, sandboxID string) (string, error) {
	l.mu.RLock()
	_, ok := l.launched[sandboxID]
	l.mu.RUnlock()

	if !ok {
		return "", &NotFoundError{SandboxID: sandboxID}
	}

	return simulatedPayload, nil
}

// LaunchCount reports how many sandboxes this launcher has started.
func (l *SimulatedLauncher) LaunchCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.launched)
}
