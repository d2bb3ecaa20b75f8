package parser

import (
	"fmt"
	"strings"

	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/token"
)

// comparisonOps is the set of comparison operator keywords a
// set_comparison_subquery expression may use, spelled as words rather than
// symbols since `<` and `>` are already claimed by type-literal
// parameter lists.
var comparisonOps = map[string]bool{
	"EQ": true, "NE": true, "LT": true, "LE": true, "GT": true, "GE": true,
}

// parseExpression parses the `expression` rule and its labeled
// alternatives: constant, column_name, function_use, cast, ifthen, and the
// four subquery forms (scalar, set_predicate, in_predicate,
// set_comparison). Subquery predicate suffixes (IN SUBQUERY, <op>
// ANY|ALL SUBQUERY) are parsed as postfix modifiers of a primary
// expression.
func (p *Parser) parseExpression() (*ast.Node, error) {
	left, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}

	if p.isKeyword("IN") {
		start := p.advance()
		if _, err := p.expectKeyword("SUBQUERY"); err != nil {
			return nil, err
		}
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleExpressionInPredicateSubquery, start)
		n.SetField("needle", left)
		n.Text = name.Value
		return n, nil
	}

	if p.peek().Type == token.Ident && comparisonOps[strings.ToUpper(p.peek().Value)] {
		op := p.advance()
		var quant string
		switch {
		case p.isKeyword("ANY"):
			quant = "ANY"
			p.advance()
		case p.isKeyword("ALL"):
			quant = "ALL"
			p.advance()
		default:
			return nil, fmt.Errorf("textplan: expected ANY or ALL after comparison operator at %d:%d", p.peek().Line, p.peek().Col)
		}
		if _, err := p.expectKeyword("SUBQUERY"); err != nil {
			return nil, err
		}
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleExpressionSetComparisonSubquery, op)
		n.SetField("left", left)
		n.Text = name.Value
		n.Strs = []string{strings.ToUpper(op.Value), quant}
		return n, nil
	}

	return left, nil
}

func (p *Parser) parsePrimaryExpression() (*ast.Node, error) {
	switch {
	case p.isKeyword("CAST"):
		return p.parseCast()
	case p.isKeyword("IFTHEN"):
		return p.parseIfThen()
	case p.isKeyword("NOT") && strings.EqualFold(p.peekAt(1).Value, "EXISTS"):
		start := p.advance()
		p.advance() // EXISTS
		if _, err := p.expectKeyword("SUBQUERY"); err != nil {
			return nil, err
		}
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleExpressionSetPredicateSubquery, start)
		n.Text = name.Value
		n.Strs = []string{"NOT_EXISTS"}
		return n, nil
	case p.isKeyword("EXISTS"):
		start := p.advance()
		if _, err := p.expectKeyword("SUBQUERY"); err != nil {
			return nil, err
		}
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleExpressionSetPredicateSubquery, start)
		n.Text = name.Value
		n.Strs = []string{"EXISTS"}
		return n, nil
	case p.isKeyword("SUBQUERY"):
		start := p.advance()
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleExpressionScalarSubquery, start)
		n.Text = name.Value
		return n, nil
	case p.peek().Type == token.Number || p.peek().Type == token.String || p.peek().Type == token.TypedLiteral:
		t := p.advance()
		n := ast.NewNode(ast.RuleExpressionConstant, t)
		n.Text = t.Value
		n.Strs = []string{t.Type.String()}
		return n, nil
	case p.peek().Type == token.Ident:
		if p.peekAt(1).Type == token.LParen {
			return p.parseFunctionUse()
		}
		col, err := p.parseColumnName()
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.RuleExpressionColumn, token.Token{Line: col.Pos.Line, Col: col.Pos.Col})
		n.SetField("column", col)
		return n, nil
	default:
		return nil, fmt.Errorf("textplan: unexpected token %s in expression at %d:%d", p.peek().Type, p.peek().Line, p.peek().Col)
	}
}

// parseCast parses `CAST ( expr AS type_literal )`.
func (p *Parser) parseCast() (*ast.Node, error) {
	start, err := p.expectKeyword("CAST")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	inner, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	typ, err := p.parseTypeLiteral()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleExpressionCast, start)
	n.SetField("input", inner)
	n.SetField("type", typ)
	return n, nil
}

// parseIfThen parses `IFTHEN { (IF expr THEN expr ;)+ ELSE expr ; }`.
func (p *Parser) parseIfThen() (*ast.Node, error) {
	start, err := p.expectKeyword("IFTHEN")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleExpressionIfThen, start)
	for p.isKeyword("IF") {
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		clause := ast.NewNodeAt(ast.RuleArgument, cond.Pos)
		clause.SetField("if", cond)
		clause.SetField("then", then)
		n.Children = append(n.Children, clause)
	}
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("textplan: IFTHEN needs at least one IF clause at %d:%d", start.Line, start.Col)
	}
	if _, err := p.expectKeyword("ELSE"); err != nil {
		return nil, err
	}
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	n.SetField("else", els)
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return n, nil
}

// parseFunctionUse parses `name ( arg (, arg)* ) ('->' type_literal)?`.
// An argument whose bare identifier ends in `_enum` is treated as an enum
// argument (FunctionArgument.Enum in textplan/pb) rather than a value
// expression.
func (p *Parser) parseFunctionUse() (*ast.Node, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.RuleExpressionFunctionUse, name)
	n.Text = name.Value
	for p.peek().Type != token.RParen {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, arg)
		if p.peek().Type == token.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if p.peek().Type == token.Arrow {
		p.advance()
		typ, err := p.parseTypeLiteral()
		if err != nil {
			return nil, err
		}
		n.SetField("outputType", typ)
	}
	return n, nil
}

func (p *Parser) parseArgument() (*ast.Node, error) {
	if p.peek().Type == token.Ident && p.peekAt(1).Type != token.LParen &&
		strings.HasSuffix(strings.ToLower(p.peek().Value), "_enum") {
		t := p.advance()
		n := ast.NewNode(ast.RuleArgument, t)
		n.Text = strings.TrimSuffix(t.Value, t.Value[len(t.Value)-5:])
		n.Strs = []string{"enum"}
		return n, nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	n := ast.NewNodeAt(ast.RuleArgument, expr.Pos)
	n.SetField("expr", expr)
	n.Strs = []string{"value"}
	return n, nil
}
