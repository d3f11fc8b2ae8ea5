package runprov

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/secure-systems-lab/go-securesystemslib/dsse"
)

// PayloadType is the DSSE payload type of an in-toto statement.
const PayloadType = "application/vnd.in-toto+json"

// Envelope wraps a statement in an unsigned DSSE envelope.
//
// The envelope carries an empty signature list. A signer completes it by
// signing [SigningPayload] and appending the signature.
func Envelope(stmt *Statement) (*dsse.Envelope, error) {
	if err := stmt.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(stmt)
	if err != nil {
		return nil, fmt.Errorf("runprov: encode statement: %w", err)
	}
	return &dsse.Envelope{
		PayloadType: PayloadType,
		Payload:     base64.StdEncoding.EncodeToString(payload),
		Signatures:  []dsse.Signature{},
	}, nil
}

// SigningPayload returns the DSSE pre-authentication encoding of an
// envelope's payload, which is the byte sequence a signer signs.
func SigningPayload(env *dsse.Envelope) ([]byte, error) {
	payload, err := env.DecodeB64Payload()
	if err != nil {
		return nil, fmt.Errorf("runprov: decode payload: %w", err)
	}
	return dsse.PAE(env.PayloadType, payload), nil
}
