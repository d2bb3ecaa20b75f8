package pb

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// MarshalBinary encodes a Plan for the textplan compiler's `-to binary`
// output format.
//
// This is not Substrait's real protobuf wire format: producing that
// faithfully requires protoc-gen-go-generated message types (Reset,
// String, ProtoReflect, wire field numbers from the .proto sources), none
// of which this module can generate without invoking protoc. gob is the
// closest stdlib round-trip mechanism available and is used here only for
// self-consistency between textplan's own `-to binary`/`-from binary`
// runs, not for interop with other Substrait producers/consumers; see
// DESIGN.md for the fuller justification.
func (p *Plan) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("textplan/pb: encode plan: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinaryPlan decodes a Plan previously written by MarshalBinary.
func UnmarshalBinaryPlan(data []byte) (*Plan, error) {
	var p Plan
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("textplan/pb: decode plan: %w", err)
	}
	return &p, nil
}
