// Package compose is the boundary to the container orchestration runtime.
// The lifecycle manager talks to it exclusively through the Runtime
// interface; the only production implementation shells out to the
// docker compose CLI.
package compose

import "context"

// Counts summarizes the container population of a compose project.
// Total is the number of services the manifest declares; Running is the
// number of containers currently in the running state.
type Counts struct {
	Total   int
	Running int
}

// Runtime abstracts the container orchestration runtime. All calls take a
// context so callers can bound runtime latency. Implementations return a
// retryable runtime-category error when the runtime itself is unreachable,
// which the state machine maps to an unknown status rather than a failure.
type Runtime interface {
	// Available verifies the runtime can be reached at all.
	Available(ctx context.Context) error

	// Up brings the project's services up detached. Extra environment
	// entries are passed through to manifest variable interpolation.
	Up(ctx context.Context, project, manifestPath string, env map[string]string) error

	// Down stops and removes the project's containers. Volumes are kept.
	Down(ctx context.Context, project, manifestPath string) error

	// Counts reports declared versus running containers for the project.
	Counts(ctx context.Context, project, manifestPath string) (Counts, error)

	// Logs returns service logs, merged across services when service is
	// empty, limited to tail lines per service when tail is positive.
	Logs(ctx context.Context, project, manifestPath, service string, tail int) (string, error)

	// ContainerID resolves the container backing a service, or "" when the
	// service has no container.
	ContainerID(ctx context.Context, project, manifestPath, service string) (string, error)

	// ContainerHealth returns the health state of a container as reported
	// by its healthcheck, or "none" when the container defines no check.
	ContainerHealth(ctx context.Context, containerID string) (string, error)
}
