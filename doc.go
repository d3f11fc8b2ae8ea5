// Package runprov generates SLSA provenance for GitHub Actions workflow runs.
//
// Given the web URL of a run, [Client.Generate] fetches the run, its workflow
// definition, and every unexpired artifact, hashes each file inside each
// artifact archive, and returns an in-toto Statement whose SLSA v0.1
// predicate describes the run. Statements can be encoded as bare JSON or as
// an unsigned DSSE envelope, and published to an OCI registry.
//
// # Quick Start
//
//	c, err := runprov.NewClient(runprov.WithCacheDir("/var/cache/runprov"))
//	if err != nil {
//	    return err
//	}
//	stmt, err := c.Generate(ctx, "https://github.com/octo/repo/actions/runs/123")
//	if err != nil {
//	    return err
//	}
//	out, err := runprov.Encode(stmt, runprov.FormatStatement)
//
// # Authentication
//
// The GitHub token is taken from [WithToken], then the GITHUB_TOKEN and
// GH_TOKEN environment variables, then the api.github.com entry of ~/.netrc.
//
// # Publishing
//
// Push stores a statement as an OCI artifact, either under a tag or, with
// [registry.WithAttach], as a referrer of an existing image:
//
//	desc, err := c.Push(ctx, "ghcr.io/octo/app:v1.0.0", stmt, runprov.FormatEnvelope,
//	    registry.WithAttach(),
//	)
//
// The [core] subpackage holds the provider-independent assembly logic.
package runprov
