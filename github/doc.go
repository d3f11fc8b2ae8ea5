// Package github fetches GitHub Actions run metadata and artifact archives.
//
// [Client] is a small typed client for the handful of Actions REST endpoints
// provenance assembly needs. It is bound to one repository through [Config].
// [Fetcher] adapts a Client to the metadata and archive interfaces of the
// provenance core, verifying downloaded archives against the digest GitHub
// advertises and optionally caching them on disk.
package github
