// Package pb is a hand-written stand-in for the generated Go bindings of
// the Substrait protobuf schema (substrait/algebra.proto, type.proto,
// plan.proto, extensions.proto). Nothing here is generated: protoc was not
// run against this module. The shapes mirror the real Substrait message
// set closely enough that textplan/compiler and textplan/emitter can
// build a faithful in-memory Plan, and textjson.go gives that Plan a
// JSON encoding with protojson-style names for some of its enums, without depending on generated
// proto.Message implementations. codec.go's Plan.MarshalBinary /
// UnmarshalBinaryPlan round-trip through encoding/gob instead — a
// documented stdlib fallback, since there is no generated proto.Message
// for a real wire encoder to operate on (see DESIGN.md).
package pb

// NullabilityMode mirrors substrait Type.Nullability.
type NullabilityMode int

const (
	NullabilityUnspecified NullabilityMode = iota
	NullabilityNullable
	NullabilityRequired
)

// TypeKind discriminates the Type oneof.
type TypeKind int

const (
	TypeUnspecified TypeKind = iota
	TypeBool
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeFP32
	TypeFP64
	TypeString
	TypeBinary
	TypeTimestamp
	TypeTimestampTZ
	TypeDate
	TypeTime
	TypeIntervalYear
	TypeIntervalDay
	TypeUUID
	TypeFixedChar
	TypeVarChar
	TypeFixedBinary
	TypeDecimal
	TypeStruct
	TypeList
	TypeMap
)

// Type is the Substrait Type message, flattened: Kind discriminates which
// of the parameter fields apply instead of a Go interface-based oneof, to
// keep textjson.go's encode/decode symmetric and simple.
type Type struct {
	Kind        TypeKind
	Nullability NullabilityMode

	// FixedChar/VarChar/FixedBinary length, or Decimal precision.
	Length int32
	// Decimal scale.
	Scale int32

	// Struct field types / List element type / Map key+value types.
	StructTypes []*Type
	ListType    *Type
	MapKey      *Type
	MapValue    *Type
}

// NamedStruct pairs a flat list of leaf column names (schema.names, in
// Substrait's depth-first order for nested structs) with the struct Type
// describing their shape.
type NamedStruct struct {
	Names  []string
	Struct *Type
}
