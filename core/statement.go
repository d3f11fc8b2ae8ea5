package runprov

import (
	"fmt"
	"slices"
	"time"

	"github.com/opencontainers/go-digest"
)

// Fixed identifiers written into every statement.
const (
	// StatementType is the in-toto Statement type.
	StatementType = "https://in-toto.io/Statement/v0.1"

	// PredicateType is the SLSA provenance predicate type.
	PredicateType = "https://slsa.dev/provenance/v0.1"

	// BuilderID denotes a GitHub Actions runner of unknown kind. Run metadata
	// cannot tell GitHub-hosted runners from self-hosted ones, so neither is
	// ever asserted.
	BuilderID = "https://attestations.github.com/actions-workflow/unknown-runner@v1"

	// RecipeType is the recipe type for GitHub Actions workflows.
	RecipeType = "https://slsa.github.com/workflow@v1"

	// EventWorkflowDispatch is the trigger whose arguments are fully known.
	EventWorkflowDispatch = "workflow_dispatch"
)

// Statement is an in-toto Statement v0.1 carrying SLSA provenance v0.1.
type Statement struct {
	Type          string     `json:"_type"`
	Subject       []Subject  `json:"subject"`
	PredicateType string     `json:"predicateType"`
	Predicate     Provenance `json:"predicate"`
}

// Provenance is the SLSA provenance v0.1 predicate.
//
// The environment field is never populated and therefore absent from the
// type. Absent fields mean "unknown"; present false or empty values mean
// "known to be empty".
type Provenance struct {
	Builder   Builder    `json:"builder"`
	Recipe    Recipe     `json:"recipe"`
	Metadata  Metadata   `json:"metadata"`
	Materials []Material `json:"materials"`
}

// Builder identifies the entity that executed the recipe.
type Builder struct {
	ID string `json:"id"`
}

// Recipe describes the steps that produced the subjects. Arguments are
// omitted: dispatch inputs are not retrieved, and other triggers have none.
type Recipe struct {
	Type              string `json:"type"`
	DefinedInMaterial int    `json:"definedInMaterial"`
	EntryPoint        string `json:"entryPoint"`
}

// Metadata holds build invocation details.
type Metadata struct {
	BuildInvocationID string       `json:"buildInvocationId,omitempty"`
	BuildStartedOn    *time.Time   `json:"buildStartedOn,omitempty"`
	BuildFinishedOn   *time.Time   `json:"buildFinishedOn,omitempty"`
	Completeness      Completeness `json:"completeness"`
}

// Completeness declares which parts of the predicate are fully known.
type Completeness struct {
	Arguments   bool `json:"arguments"`
	Environment bool `json:"environment"`
	Materials   bool `json:"materials"`
}

// Material is a build input referenced by URI and digest.
type Material struct {
	URI    string    `json:"uri"`
	Digest DigestSet `json:"digest"`
}

// MapProvenance maps run and workflow facts plus a subject list onto a
// statement. Subjects are used in the supplied order.
//
// MapProvenance does not check that subjects is non-empty; [Assemble] refuses
// empty subject lists before calling it.
func MapProvenance(run *RunFacts, workflow *WorkflowFacts, subjects []Subject) *Statement {
	return &Statement{
		Type:          StatementType,
		Subject:       slices.Clone(subjects),
		PredicateType: PredicateType,
		Predicate: Provenance{
			Builder: Builder{ID: BuilderID},
			Recipe: Recipe{
				Type:              RecipeType,
				DefinedInMaterial: 0,
				// The job is left out: artifacts cannot be attributed to the
				// job that uploaded them.
				EntryPoint: workflow.Path,
			},
			Metadata: Metadata{
				BuildInvocationID: run.HTMLURL,
				BuildStartedOn:    timePtr(run.CreatedAt),
				BuildFinishedOn:   timePtr(run.UpdatedAt),
				Completeness: Completeness{
					Arguments:   run.Event == EventWorkflowDispatch,
					Environment: false,
					Materials:   false,
				},
			},
			Materials: []Material{SourceMaterial(run)},
		},
	}
}

// SourceMaterial returns the git material for the commit a run built.
func SourceMaterial(run *RunFacts) Material {
	return Material{
		URI:    "git+" + run.RepositoryHTMLURL + "@" + run.HeadBranch,
		Digest: DigestSet{AlgorithmSHA1: run.HeadSHA},
	}
}

// timePtr returns nil for the zero time so unknown timestamps are omitted.
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Validate checks the structural invariants of a statement: at least one
// subject, a well-formed SHA-256 digest on every subject, and a single source
// material.
func (s *Statement) Validate() error {
	if s == nil || len(s.Subject) == 0 {
		return ErrNoSubject
	}
	if s.Type != StatementType {
		return fmt.Errorf("%w: unexpected _type %q", ErrInvalidStatement, s.Type)
	}
	if s.PredicateType != PredicateType {
		return fmt.Errorf("%w: unexpected predicateType %q", ErrInvalidStatement, s.PredicateType)
	}
	for i, subject := range s.Subject {
		if subject.Name == "" {
			return fmt.Errorf("%w: subject %d has no name", ErrInvalidStatement, i)
		}
		encoded, ok := subject.Digest[AlgorithmSHA256]
		if !ok {
			return fmt.Errorf("%w: subject %q has no %s digest", ErrInvalidStatement, subject.Name, AlgorithmSHA256)
		}
		if err := digest.SHA256.Validate(encoded); err != nil {
			return fmt.Errorf("%w: subject %q: %v", ErrInvalidStatement, subject.Name, err)
		}
	}
	if n := len(s.Predicate.Materials); n != 1 {
		return fmt.Errorf("%w: want 1 material, got %d", ErrInvalidStatement, n)
	}
	return nil
}
