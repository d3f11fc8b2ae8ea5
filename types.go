package runprov

import (
	"fmt"

	provcore "github.com/meigma/runprov/core"
)

// Statement is an in-toto Statement carrying a SLSA provenance predicate.
type Statement = provcore.Statement

// Subject is an artifact identity the statement makes claims about.
type Subject = provcore.Subject

// DigestSet maps a digest algorithm name to a lowercase hex digest.
type DigestSet = provcore.DigestSet

// Format selects how a statement is serialized.
type Format string

// Supported serialization formats.
const (
	// FormatStatement is the bare in-toto Statement as indented JSON.
	FormatStatement Format = "statement"

	// FormatEnvelope is the statement wrapped in an unsigned DSSE envelope.
	FormatEnvelope Format = "envelope"
)

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatStatement, FormatEnvelope:
		return Format(name), nil
	default:
		return "", &FormatError{Name: name}
	}
}

// FormatError reports an unknown serialization format.
type FormatError struct {
	Name string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("runprov: unknown format %q (want %q or %q)", e.Name, FormatStatement, FormatEnvelope)
}
