// Package integration provides integration tests for the database and
// cache fixtures. These tests use real PostgreSQL and Redis instances via
// testcontainers and require a running Docker daemon.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration
