// Package parser builds a textplan/ast parse tree from a textplan source
// string. Together with textplan/lexer it stands in for the external
// grammar/parser collaborator spec.md §6 treats as out of scope — the
// compiler core only ever consumes the ast.Node tree this package
// produces, never lexer/parser internals.
package parser

import (
	"fmt"
	"strings"

	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/lexer"
	"github.com/wbrown/substraitplan/textplan/token"
)

// relationKeywords is the set of relation_type keywords spec.md §3 lists as
// the relation-kind vocabulary (Root is spelled ROOT and handled
// separately as root_relation).
var relationKeywords = map[string]bool{
	"read": true, "project": true, "join": true, "cross": true,
	"fetch": true, "aggregate": true, "sort": true, "filter": true,
	"set": true, "hashjoin": true, "mergejoin": true, "exchange": true,
	"ddl": true, "write": true, "extensionleaf": true,
	"extensionsingle": true, "extensionmulti": true,
}

// Parser is a recursive-descent parser over a flat token stream.
type Parser struct {
	tokens []token.Token
	pos    int
}

// Parse lexes and parses a complete textplan source document, returning
// its RulePlan root node.
func Parse(input string) (*ast.Node, error) {
	toks, err := lexer.New(input).Lex()
	if err != nil {
		return nil, fmt.Errorf("textplan: lex error: %w", err)
	}
	p := &Parser{tokens: toks}
	return p.parsePlan()
}

// ParseTypeLiteral lexes and parses a standalone type-literal string, such
// as the suffix of a typed numeric constant (`100.0_fp64` splits into the
// numeral and the type-literal text `fp64`). Used by textplan/compiler's
// Type Resolver when a typed literal's suffix needs to go through the
// same type-literal grammar a schema column declaration does.
func ParseTypeLiteral(input string) (*ast.Node, error) {
	toks, err := lexer.New(input).Lex()
	if err != nil {
		return nil, fmt.Errorf("textplan: lex error: %w", err)
	}
	p := &Parser{tokens: toks}
	return p.parseTypeLiteral()
}

func (p *Parser) peek() token.Token  { return p.tokens[p.pos] }
func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.peek().Type == token.EOF }

func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.peek().Type != tt {
		return token.Token{}, fmt.Errorf("textplan: expected %s, got %s at %d:%d",
			tt, p.peek().Type, p.peek().Line, p.peek().Col)
	}
	return p.advance(), nil
}

// expectKeyword consumes an Ident token whose value matches kw
// case-insensitively (textplan keywords are conventionally upper-case but
// the grammar does not require it).
func (p *Parser) expectKeyword(kw string) (token.Token, error) {
	t := p.peek()
	if t.Type != token.Ident || !strings.EqualFold(t.Value, kw) {
		return token.Token{}, fmt.Errorf("textplan: expected keyword %q, got %q at %d:%d", kw, t.Value, t.Line, t.Col)
	}
	return p.advance(), nil
}

func (p *Parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.Type == token.Ident && strings.EqualFold(t.Value, kw)
}

// parsePlan parses the top-level `plan` rule: a sequence of plan_detail
// (extension spaces, functions, schemas, sources, relations), pipeline
// statements, and an optional root_relation, in any order — textplan
// sources conventionally declare everything before wiring pipelines, but
// the grammar does not require that ordering, and Pass 3 resolves forward
// references regardless.
func (p *Parser) parsePlan() (*ast.Node, error) {
	root := ast.NewNode(ast.RulePlan, p.peek())
	for !p.atEOF() {
		child, err := p.parseTopLevelStatement()
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

func (p *Parser) parseTopLevelStatement() (*ast.Node, error) {
	switch {
	case p.isKeyword("schema"):
		return p.parseSchemaDefinition()
	case p.isKeyword("source"):
		return p.parseSourceDefinition()
	case p.isKeyword("extension_space"):
		return p.parseExtensionSpace()
	case p.isKeyword("function"):
		return p.parseFunction()
	case p.isKeyword("ROOT"):
		return p.parseRootRelation()
	case p.peek().Type == token.Ident && relationKeywords[strings.ToLower(p.peek().Value)]:
		return p.parseRelation()
	case p.peek().Type == token.Ident:
		return p.parsePipeline()
	default:
		return nil, fmt.Errorf("textplan: unexpected token %s at top level, %d:%d", p.peek().Type, p.peek().Line, p.peek().Col)
	}
}

// parseExtensionSpace parses `EXTENSION_SPACE "uri";`.
func (p *Parser) parseExtensionSpace() (*ast.Node, error) {
	start, err := p.expectKeyword("extension_space")
	if err != nil {
		return nil, err
	}
	uri, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleExtensionSpace, start)
	n.Text = uri.Value
	return n, nil
}

// parseFunction parses `FUNCTION "signature" (AS alias)?;`.
func (p *Parser) parseFunction() (*ast.Node, error) {
	start, err := p.expectKeyword("function")
	if err != nil {
		return nil, err
	}
	sig, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleFunction, start)
	n.Text = sig.Value
	if p.isKeyword("AS") {
		p.advance()
		alias, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n.SetField("alias", identNode(alias))
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return n, nil
}

func identNode(t token.Token) *ast.Node {
	n := ast.NewNode(ast.RuleColumnName, t)
	n.Text = t.Value
	return n
}

// parseSchemaDefinition parses `SCHEMA id { schema_item* }`.
func (p *Parser) parseSchemaDefinition() (*ast.Node, error) {
	start, err := p.expectKeyword("schema")
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleSchemaDefinition, start)
	n.Text = name.Value
	for p.peek().Type != token.RBrace {
		item, err := p.parseSchemaItem()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, item)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return n, nil
}

// parseSchemaItem parses `id type_literal;`.
func (p *Parser) parseSchemaItem() (*ast.Node, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	typ, err := p.parseTypeLiteral()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleSchemaItem, name)
	n.Text = name.Value
	n.SetField("type", typ)
	return n, nil
}

// parseTypeLiteral parses a type-literal token sequence: a base type name,
// an optional `?`, and an optional `<params>` parameter list (itself
// possibly preceded by `?` when the parameterized type as a whole is
// nullable, per spec.md §4.2 step 1).
func (p *Parser) parseTypeLiteral() (*ast.Node, error) {
	base, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleTypeLiteral, base)
	n.Text = base.Value

	nullableBeforeParams := false
	if p.peek().Type == token.Question {
		p.advance()
		nullableBeforeParams = true
	}

	if p.peek().Type == token.LAngle {
		p.advance()
		for {
			if p.peek().Type == token.Number {
				numTok := p.advance()
				param := ast.NewNode(ast.RuleTypeLiteral, numTok)
				param.Text = numTok.Value
				n.Children = append(n.Children, param)
			} else {
				param, err := p.parseTypeLiteral()
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, param)
			}
			if p.peek().Type == token.Comma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RAngle); err != nil {
			return nil, err
		}
		if nullableBeforeParams {
			n.Strs = append(n.Strs, "nullable")
		}
		if p.peek().Type == token.Question {
			p.advance()
			n.Strs = append(n.Strs, "nullable")
		}
		return n, nil
	}

	if nullableBeforeParams {
		n.Strs = append(n.Strs, "nullable")
	}
	return n, nil
}

// parseSourceDefinition parses `SOURCE kind id { detail* }`.
func (p *Parser) parseSourceDefinition() (*ast.Node, error) {
	start, err := p.expectKeyword("source")
	if err != nil {
		return nil, err
	}
	kind, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleSourceDefinition, start)
	n.Text = name.Value
	n.Strs = append(n.Strs, kind.Value)

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for p.peek().Type != token.RBrace {
		detail, err := p.parseSourceDetail()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, detail)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return n, nil
}

// parseSourceDetail parses one `key = value` style detail line inside a
// source block. `NAMES = [ "a", "b" ]` becomes a named_table_detail node
// with Strs populated; anything else is parsed generically as a
// file_detail (key/value text pair) since local-file/virtual-table/
// extension-table sources need their metadata text but no child symbols
// per spec.md §4.3.
func (p *Parser) parseSourceDetail() (*ast.Node, error) {
	key, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}

	if strings.EqualFold(key.Value, "NAMES") {
		n := ast.NewNode(ast.RuleNamedTableDetail, key)
		if _, err := p.expect(token.LBracket); err != nil {
			return nil, err
		}
		for p.peek().Type != token.RBracket {
			var v string
			switch p.peek().Type {
			case token.String:
				v = p.advance().Value
			case token.Ident:
				v = p.advance().Value
			default:
				return nil, fmt.Errorf("textplan: expected string or identifier in NAMES list at %d:%d", p.peek().Line, p.peek().Col)
			}
			n.Strs = append(n.Strs, v)
			if p.peek().Type == token.Comma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
		return n, nil
	}

	n := ast.NewNode(ast.RuleFileDetail, key)
	n.Text = key.Value
	switch p.peek().Type {
	case token.String, token.Ident, token.Number, token.TypedLiteral:
		n.Strs = append(n.Strs, p.advance().Value)
	default:
		return nil, fmt.Errorf("textplan: expected value for source detail %q at %d:%d", key.Value, p.peek().Line, p.peek().Col)
	}
	return n, nil
}

// parseRootRelation parses `ROOT { NAMES = [ id (, id)* ] }`.
func (p *Parser) parseRootRelation() (*ast.Node, error) {
	start, err := p.expectKeyword("ROOT")
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleRootRelation, start)
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("NAMES"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBracket); err != nil {
		return nil, err
	}
	for p.peek().Type != token.RBracket {
		var v string
		switch p.peek().Type {
		case token.String, token.Ident:
			v = p.advance().Value
		default:
			return nil, fmt.Errorf("textplan: expected name in ROOT NAMES list at %d:%d", p.peek().Line, p.peek().Col)
		}
		n.Strs = append(n.Strs, v)
		if p.peek().Type == token.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return n, nil
}

// parseRelation parses `kind RELATION id { relation_detail* }`.
func (p *Parser) parseRelation() (*ast.Node, error) {
	kind := p.advance() // relation kind keyword
	if _, err := p.expectKeyword("RELATION"); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleRelation, kind)
	n.Text = name.Value
	n.Strs = append(n.Strs, strings.ToLower(kind.Value))

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for p.peek().Type != token.RBrace {
		detail, err := p.parseRelationDetail()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, detail)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseRelationDetail() (*ast.Node, error) {
	switch {
	case p.isKeyword("BASE_SCHEMA"):
		start := p.advance()
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationUsesSchema, start)
		n.Text = id.Value
		return n, nil

	case p.isKeyword("SOURCE"):
		start := p.advance()
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationSourceReference, start)
		n.Text = id.Value
		return n, nil

	case p.isKeyword("FILTER"):
		start := p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationFilter, start)
		n.SetField("expr", expr)
		return n, nil

	case p.isKeyword("EXPRESSION"):
		start := p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationExpression, start)
		n.SetField("expr", expr)
		if p.isKeyword("NAMED") {
			p.advance()
			alias, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			n.SetField("alias", identNode(alias))
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return n, nil

	case p.isKeyword("GROUPING"):
		start := p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationGrouping, start)
		n.SetField("expr", expr)
		return n, nil

	case p.isKeyword("MEASURE"):
		return p.parseMeasure()

	case p.isKeyword("SORT"):
		start := p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationSort, start)
		n.SetField("expr", expr)
		if p.isKeyword("BY") {
			p.advance()
			dir, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			n.Text = dir.Value
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return n, nil

	case p.isKeyword("COUNT"):
		start := p.advance()
		num, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationCount, start)
		n.Text = num.Value
		return n, nil

	case p.isKeyword("OFFSET"):
		start := p.advance()
		num, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationOffset, start)
		n.Text = num.Value
		return n, nil

	case p.isKeyword("TYPE"):
		start := p.advance()
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationJoinType, start)
		n.Text = id.Value
		return n, nil

	case p.isKeyword("EMIT"):
		start := p.advance()
		col, err := p.parseColumnName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleRelationEmit, start)
		n.SetField("column", col)
		return n, nil

	default:
		return nil, fmt.Errorf("textplan: unexpected relation detail %q at %d:%d", p.peek().Value, p.peek().Line, p.peek().Col)
	}
}

// parseMeasure parses `MEASURE { expr (NAMED id)? (INVOCATION id)? }`.
func (p *Parser) parseMeasure() (*ast.Node, error) {
	start, err := p.expectKeyword("MEASURE")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleRelationMeasure, start)
	n.SetField("expr", expr)
	if p.isKeyword("NAMED") {
		p.advance()
		alias, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n.SetField("alias", identNode(alias))
	}
	if p.isKeyword("INVOCATION") {
		p.advance()
		inv, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n.SetField("invocation", identNode(inv))
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return n, nil
}

// parseColumnName parses `id` or `id.id` (a schema-qualified reference).
func (p *Parser) parseColumnName() (*ast.Node, error) {
	first, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleColumnName, first)
	if p.peek().Type == token.Dot {
		p.advance()
		second, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n.Text = first.Value + "." + second.Value
		n.Strs = []string{first.Value, second.Value}
		return n, nil
	}
	n.Text = first.Value
	n.Strs = []string{first.Value}
	return n, nil
}

// parsePipeline parses `relation_ref ('->' relation_ref)* ';'`.
func (p *Parser) parsePipeline() (*ast.Node, error) {
	start := p.peek()
	n := ast.NewNode(ast.RulePipeline, start)
	for {
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, identNode(id))
		if p.peek().Type == token.Arrow {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return n, nil
}
