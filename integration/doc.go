//go:build integration

// Package integration provides integration tests for the runprov library.
//
// These tests require Docker and spin up a real OCI registry using testcontainers.
// The GitHub API is served by an in-process fake.
// Run with: go test -tags=integration ./integration/...
package integration
