package compiler

import (
	"strconv"
	"strings"

	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/pb"
)

// atomicTypeKinds maps a bare type-literal base name to its pb.TypeKind,
// per the atomic-type vocabulary spec.md §4.2 enumerates.
var atomicTypeKinds = map[string]pb.TypeKind{
	"bool":          pb.TypeBool,
	"i8":            pb.TypeI8,
	"i16":           pb.TypeI16,
	"i32":           pb.TypeI32,
	"i64":           pb.TypeI64,
	"fp32":          pb.TypeFP32,
	"fp64":          pb.TypeFP64,
	"string":        pb.TypeString,
	"binary":        pb.TypeBinary,
	"timestamp":     pb.TypeTimestamp,
	"timestamp_tz":  pb.TypeTimestampTZ,
	"date":          pb.TypeDate,
	"time":          pb.TypeTime,
	"interval_year": pb.TypeIntervalYear,
	"interval_day":  pb.TypeIntervalDay,
	"uuid":          pb.TypeUUID,
}

// ResolveType is Pass 1, the Type Resolver: it turns a parsed type_literal
// parse-tree node into a pb.Type. It is invoked as a pure function from
// later passes wherever a type literal appears (schema columns, CAST
// targets, constant literal suffixes), as spec.md §4.2 describes, and
// memoizes by the literal's canonical text in cache.
func ResolveType(node *ast.Node, cache *TypeCache, errs *ErrorListener) *pb.Type {
	text := CanonicalTypeText(node)
	if t, ok := cache.Get(text); ok {
		return t
	}
	t := resolveTypeUncached(node, cache, errs)
	cache.Put(text, t)
	return t
}

func resolveTypeUncached(node *ast.Node, cache *TypeCache, errs *ErrorListener) *pb.Type {
	nullable := isNullable(node)
	base := strings.ToLower(node.Text)

	if kind, ok := atomicTypeKinds[base]; ok {
		return &pb.Type{Kind: kind, Nullability: nullabilityOf(nullable)}
	}

	switch base {
	case "fixedchar":
		return &pb.Type{Kind: pb.TypeFixedChar, Nullability: nullabilityOf(nullable), Length: intParam(node, 0, errs)}
	case "varchar":
		return &pb.Type{Kind: pb.TypeVarChar, Nullability: nullabilityOf(nullable), Length: intParam(node, 0, errs)}
	case "fixedbinary":
		return &pb.Type{Kind: pb.TypeFixedBinary, Nullability: nullabilityOf(nullable), Length: intParam(node, 0, errs)}
	case "decimal":
		return &pb.Type{
			Kind:        pb.TypeDecimal,
			Nullability: nullabilityOf(nullable),
			Length:      intParam(node, 0, errs),
			Scale:       intParam(node, 1, errs),
		}
	case "list":
		if len(node.Children) != 1 {
			errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "list requires exactly one element type, got %d", len(node.Children))
			return &pb.Type{Kind: pb.TypeList, Nullability: nullabilityOf(nullable)}
		}
		elem := ResolveType(node.Children[0], cache, errs)
		return &pb.Type{Kind: pb.TypeList, Nullability: nullabilityOf(nullable), ListType: elem}
	case "map":
		if len(node.Children) != 2 {
			errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "map requires exactly a key and value type, got %d", len(node.Children))
			return &pb.Type{Kind: pb.TypeMap, Nullability: nullabilityOf(nullable)}
		}
		key := ResolveType(node.Children[0], cache, errs)
		val := ResolveType(node.Children[1], cache, errs)
		return &pb.Type{Kind: pb.TypeMap, Nullability: nullabilityOf(nullable), MapKey: key, MapValue: val}
	case "struct":
		fields := make([]*pb.Type, 0, len(node.Children))
		for _, c := range node.Children {
			fields = append(fields, ResolveType(c, cache, errs))
		}
		return &pb.Type{Kind: pb.TypeStruct, Nullability: nullabilityOf(nullable), StructTypes: fields}
	default:
		// spec.md §4.2 step 3 / §7: an unrecognized type name still needs
		// some Type for downstream passes to work with, so fall back to a
		// nullable i32 rather than an unspecified/zero kind.
		errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "unknown type literal %q", node.Text)
		return &pb.Type{Kind: pb.TypeI32, Nullability: pb.NullabilityNullable}
	}
}

func isNullable(node *ast.Node) bool {
	for _, s := range node.Strs {
		if s == "nullable" {
			return true
		}
	}
	return false
}

func nullabilityOf(nullable bool) pb.NullabilityMode {
	if nullable {
		return pb.NullabilityNullable
	}
	return pb.NullabilityRequired
}

func intParam(node *ast.Node, idx int, errs *ErrorListener) int32 {
	if idx >= len(node.Children) {
		errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "%s missing parameter %d", node.Text, idx)
		return 0
	}
	v, err := strconv.Atoi(node.Children[idx].Text)
	if err != nil {
		errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "%s parameter %d is not an integer: %s", node.Text, idx, node.Children[idx].Text)
		return 0
	}
	return int32(v)
}

// CanonicalTypeText renders node back to textplan type-literal syntax,
// used both as the TypeCache key and in diagnostics.
func CanonicalTypeText(node *ast.Node) string {
	var sb strings.Builder
	sb.WriteString(node.Text)
	if len(node.Children) > 0 {
		sb.WriteString("<")
		for i, c := range node.Children {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(CanonicalTypeText(c))
		}
		sb.WriteString(">")
	}
	if isNullable(node) {
		sb.WriteString("?")
	}
	return sb.String()
}
