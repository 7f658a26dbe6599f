// Package daemon coordinates the long-running reelsmith process.
//
// It wires configuration, the job store and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances.
// On start it requeues jobs a previous process left processing, clears work
// directories no job still needs, prunes old job logs and logs a dependency
// snapshot.
//
// Keep orchestration logic here: pipeline nodes live in internal/pipeline
// and job execution in internal/workflow, while the daemon focuses on
// startup, shutdown and housekeeping.
package daemon
