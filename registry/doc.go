// Package registry publishes attestation documents to OCI registries.
//
// An attestation is stored as an OCI 1.1 artifact: an empty config, a single
// layer holding the document, and a manifest whose artifactType is the
// document's media type. With WithAttach the manifest carries a subject and
// is discoverable through the referrers API of the artifact it describes.
//
// The client uses the oras subpackage for low-level OCI operations.
package registry
