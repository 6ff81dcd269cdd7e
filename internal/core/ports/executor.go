// Package ports defines the core interfaces for the application.
package ports

import "context"

// BuildCommand runs the build the cache stands in for.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type BuildCommand interface {
	// Run executes command through the shell in dir, streaming its output.
	//
	// A non-zero exit is reported as a *domain.BuildError carrying the exit code.
	Run(ctx context.Context, dir, command string) error
}
