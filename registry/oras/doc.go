// Package oras provides the OCI registry transport used to publish
// attestations, wrapping the ORAS library.
//
// Client handles authentication, retries, and OCI 1.0/1.1 referrer
// compatibility transparently; callers deal in descriptors and manifests.
package oras
