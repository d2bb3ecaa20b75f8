package parser

import (
	"testing"

	"github.com/wbrown/substraitplan/textplan/ast"
)

func TestParseSchemaDefinition(t *testing.T) {
	src := `schema S { id i32; price fp64; }`
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("want 1 top-level statement, got %d", len(tree.Children))
	}
	schema := tree.Children[0]
	if schema.Kind != ast.RuleSchemaDefinition {
		t.Fatalf("want RuleSchemaDefinition, got %v", schema.Kind)
	}
	if schema.Text != "S" {
		t.Errorf("schema name = %q, want %q", schema.Text, "S")
	}
	if len(schema.Children) != 2 {
		t.Fatalf("want 2 schema items, got %d", len(schema.Children))
	}

	id := schema.Children[0]
	if id.Kind != ast.RuleSchemaItem || id.Text != "id" {
		t.Errorf("item 0 = %v %q, want RuleSchemaItem \"id\"", id.Kind, id.Text)
	}
	if typ := id.Fields["type"]; typ == nil || typ.Text != "i32" {
		t.Errorf("item 0 type = %v, want i32", typ)
	}

	price := schema.Children[1]
	if price.Text != "price" {
		t.Errorf("item 1 name = %q, want price", price.Text)
	}
	if typ := price.Fields["type"]; typ == nil || typ.Text != "fp64" {
		t.Errorf("item 1 type = %v, want fp64", typ)
	}
}

func TestParseParameterizedType(t *testing.T) {
	src := `schema S { amount decimal<10,2>; }`
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := tree.Children[0].Children[0]
	typ := item.Fields["type"]
	if typ.Text != "decimal" {
		t.Fatalf("base type = %q, want decimal", typ.Text)
	}
	if len(typ.Children) != 2 {
		t.Fatalf("want 2 type params, got %d", len(typ.Children))
	}
	if typ.Children[0].Text != "10" || typ.Children[1].Text != "2" {
		t.Errorf("params = %q,%q, want 10,2", typ.Children[0].Text, typ.Children[1].Text)
	}
}

func TestParseSourceAndRoot(t *testing.T) {
	src := `
source NAMED_TABLE src { NAMES = [ "t" ] }
ROOT { NAMES = [ out1, out2 ] }
`
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("want 2 top-level statements, got %d", len(tree.Children))
	}

	source := tree.Children[0]
	if source.Kind != ast.RuleSourceDefinition {
		t.Fatalf("want RuleSourceDefinition, got %v", source.Kind)
	}
	if source.Text != "src" {
		t.Errorf("source name = %q, want src", source.Text)
	}

	root := tree.Children[1]
	if root.Kind != ast.RuleRootRelation {
		t.Fatalf("want RuleRootRelation, got %v", root.Kind)
	}
	if len(root.Strs) != 2 || root.Strs[0] != "out1" || root.Strs[1] != "out2" {
		t.Errorf("root NAMES = %v, want [out1 out2]", root.Strs)
	}
}

func TestParseRelationAndPipeline(t *testing.T) {
	src := `
schema S { id i32; }
source NAMED_TABLE src { NAMES = [ "t" ] }
read RELATION r { SOURCE src; BASE_SCHEMA S; }
filter RELATION f { BASE_SCHEMA S; }
r -> f -> root;
`
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tree.Children) != 5 {
		t.Fatalf("want 5 top-level statements, got %d", len(tree.Children))
	}

	readRel := tree.Children[2]
	if readRel.Kind != ast.RuleRelation {
		t.Fatalf("want RuleRelation, got %v", readRel.Kind)
	}
	if len(readRel.Children) != 2 {
		t.Fatalf("want 2 relation_detail children, got %d", len(readRel.Children))
	}
	if readRel.Children[0].Kind != ast.RuleRelationSourceReference {
		t.Errorf("detail 0 kind = %v, want RuleRelationSourceReference", readRel.Children[0].Kind)
	}
	if readRel.Children[1].Kind != ast.RuleRelationUsesSchema {
		t.Errorf("detail 1 kind = %v, want RuleRelationUsesSchema", readRel.Children[1].Kind)
	}

	pipeline := tree.Children[4]
	if pipeline.Kind != ast.RulePipeline {
		t.Fatalf("want RulePipeline, got %v", pipeline.Kind)
	}
	if len(pipeline.Children) != 3 {
		t.Fatalf("want 3 pipeline elements, got %d", len(pipeline.Children))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "missing brace", src: "schema S { id i32; "},
		{name: "bad relation keyword", src: "notakind RELATION r { }"},
		{name: "unexpected token", src: "schema { }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.src); err == nil {
				t.Errorf("Parse(%q) expected an error, got none", tt.src)
			}
		})
	}
}
