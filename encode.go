package runprov

import (
	"encoding/json"
	"fmt"

	provcore "github.com/meigma/runprov/core"
)

// Encode serializes a statement in the given format. The output is indented
// JSON terminated by a newline. Statements that fail validation are
// rejected with ErrNoSubject or ErrInvalidStatement.
func Encode(stmt *Statement, format Format) ([]byte, error) {
	var doc any
	switch format {
	case FormatStatement, "":
		if err := stmt.Validate(); err != nil {
			return nil, err
		}
		doc = stmt
	case FormatEnvelope:
		env, err := provcore.Envelope(stmt)
		if err != nil {
			return nil, err
		}
		doc = env
	default:
		return nil, &FormatError{Name: string(format)}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("runprov: encode %s: %w", format, err)
	}
	return append(out, '\n'), nil
}
