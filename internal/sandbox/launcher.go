// Package sandbox provides primitives for launching and tracking isolated
// sandbox tasks that run agent workloads.
//
// This file intentionally only defines the contract that orchestration code
// depends on. Concrete backends live in subpackages (k8slauncher) or in
// simulated.go for local development and tests.
package sandbox

import "context"

// Launcher starts sandboxes on some compute backend and answers progress
// questions about them. Implementations must be safe to call repeatedly with
// the same config: the orchestration layer retries launches in full after a
// detected failure.
type Launcher interface {
	// Launch starts a sandbox and returns its identifier without waiting for
	// any progress. The identifier is globally unique and is the only key
	// later completion reports are correlated by.
	Launch(ctx context.Context, cfg LaunchConfig) (string, error)

	// Check performs one poll of the sandbox and reports its current status.
	Check(ctx context.Context, sandboxID string) (Status, error)

	// Collect returns the opaque result payload of a finished sandbox.
	Collect(ctx context.Context, sandboxID string) (string, error)
}
