package share

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

// ErrPayloadRejected is wrapped when a payload fails the schema check
var ErrPayloadRejected = errors.New("payload rejected by share schema")

// Guard validates outgoing payloads against the embedded schema
type Guard struct {
	schema *jsonschema.Schema
}

// NewGuard compiles the embedded schema
func NewGuard() (*Guard, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("share schema is not valid JSON: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("share.json", doc); err != nil {
		return nil, fmt.Errorf("share schema compile error: %w", err)
	}
	sch, err := c.Compile("share.json")
	if err != nil {
		return nil, fmt.Errorf("share schema compile error: %w", err)
	}
	return &Guard{schema: sch}, nil
}

// Check validates the serialised payload. It works on bytes so that the
// document checked is the document sent.
func (g *Guard) Check(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: not valid JSON: %v", ErrPayloadRejected, err)
	}
	if err := g.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadRejected, err)
	}
	return nil
}
