// Package runprov assembles SLSA provenance for a single CI workflow run.
//
// The package is the provenance assembly engine used by the root runprov
// package. It has no knowledge of any CI provider's transport; metadata and
// artifact bytes arrive through the [MetadataFetcher] and [ArchiveFetcher]
// interfaces.
//
// Assembly happens in one direction:
//   - Each live artifact archive is fetched, its file entries extracted and hashed
//   - The resulting subjects are sorted by name
//   - Run and workflow facts are mapped onto an in-toto Statement v0.1 carrying an
//     SLSA provenance v0.1 predicate
//
// [Assemble] refuses to build a statement with no subjects and returns
// [ErrNoSubject] instead. A statement that claims provenance for nothing would
// look well formed while attesting to nothing.
//
// The produced statement is unsigned. Use [Envelope] to wrap it in a DSSE
// envelope that a signer can complete.
package runprov
