// Package lexer tokenizes textplan source into a flat token stream.
//
// This is the first half of the "external" parser collaborator described
// in spec.md §6: a concrete grammar/parser exists outside the compiler
// core, and this package plus textplan/parser stand in for it so the
// compiler core (textplan/compiler) has a real parse tree to consume.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wbrown/substraitplan/textplan/token"
)

// identExtra lists `_.:?`. isIdentCont does not consult it: after their
// first character, identifiers and type suffixes continue only with
// letters, digits and `_`.
const identExtra = "_.:?"

// Lexer tokenizes textplan input.
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
	runes []rune
}

// New creates a Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{
		input: input,
		pos:   0,
		line:  1,
		col:   1,
		runes: []rune(input),
	}
}

// Lex tokenizes the entire input, returning the token stream terminated by
// an EOF token.
func (l *Lexer) Lex() ([]token.Token, error) {
	var tokens []token.Token
	for {
		l.skipWhitespaceAndComments()
		if l.atEnd() {
			break
		}

		startLine, startCol := l.line, l.col
		ch := l.peek()

		switch {
		case ch == '"':
			s, err := l.readString()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token.Token{Type: token.String, Value: s, Line: startLine, Col: startCol})

		case ch == '-' && l.peekAt(1) == '>':
			l.advance()
			l.advance()
			tokens = append(tokens, token.Token{Type: token.Arrow, Value: "->", Line: startLine, Col: startCol})

		case ch == '{':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.LBrace, Value: "{", Line: startLine, Col: startCol})
		case ch == '}':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.RBrace, Value: "}", Line: startLine, Col: startCol})
		case ch == '(':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.LParen, Value: "(", Line: startLine, Col: startCol})
		case ch == ')':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.RParen, Value: ")", Line: startLine, Col: startCol})
		case ch == '[':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.LBracket, Value: "[", Line: startLine, Col: startCol})
		case ch == ']':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.RBracket, Value: "]", Line: startLine, Col: startCol})
		case ch == '<':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.LAngle, Value: "<", Line: startLine, Col: startCol})
		case ch == '>':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.RAngle, Value: ">", Line: startLine, Col: startCol})
		case ch == ';':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.Semicolon, Value: ";", Line: startLine, Col: startCol})
		case ch == ',':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.Comma, Value: ",", Line: startLine, Col: startCol})
		case ch == ':':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.Colon, Value: ":", Line: startLine, Col: startCol})
		case ch == '=':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.Equals, Value: "=", Line: startLine, Col: startCol})
		case ch == '.' && !unicode.IsDigit(l.peekAt(1)):
			l.advance()
			tokens = append(tokens, token.Token{Type: token.Dot, Value: ".", Line: startLine, Col: startCol})
		case ch == '?':
			l.advance()
			tokens = append(tokens, token.Token{Type: token.Question, Value: "?", Line: startLine, Col: startCol})

		case unicode.IsDigit(ch) || (ch == '-' && unicode.IsDigit(l.peekAt(1))):
			tok, err := l.readNumberOrTypedLiteral(startLine, startCol)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)

		case isIdentStart(ch):
			tok := l.readIdentOrTypedLiteral(startLine, startCol)
			tokens = append(tokens, tok)

		default:
			return nil, fmt.Errorf("textplan: unexpected character %q at %d:%d", ch, startLine, startCol)
		}
	}

	tokens = append(tokens, token.Token{Type: token.EOF, Line: l.line, Col: l.col})
	return tokens, nil
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// readNumberOrTypedLiteral reads a numeric literal, optionally followed by
// `_suffix` (a type-literal suffix, possibly parameterized as in
// `_decimal<10,2>`), producing a TypedLiteral token when a suffix is
// present and a bare Number token otherwise.
func (l *Lexer) readNumberOrTypedLiteral(line, col int) (token.Token, error) {
	var sb strings.Builder
	if l.peek() == '-' {
		sb.WriteRune(l.advance())
	}
	for !l.atEnd() && unicode.IsDigit(l.peek()) {
		sb.WriteRune(l.advance())
	}
	if !l.atEnd() && l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		sb.WriteRune(l.advance())
		for !l.atEnd() && unicode.IsDigit(l.peek()) {
			sb.WriteRune(l.advance())
		}
	}
	if !l.atEnd() && (l.peek() == 'e' || l.peek() == 'E') {
		sb.WriteRune(l.advance())
		if !l.atEnd() && (l.peek() == '+' || l.peek() == '-') {
			sb.WriteRune(l.advance())
		}
		for !l.atEnd() && unicode.IsDigit(l.peek()) {
			sb.WriteRune(l.advance())
		}
	}

	if !l.atEnd() && l.peek() == '_' {
		sb.WriteRune(l.advance())
		if err := l.readTypeSuffixInto(&sb); err != nil {
			return token.Token{}, err
		}
		return token.Token{Type: token.TypedLiteral, Value: sb.String(), Line: line, Col: col}, nil
	}

	return token.Token{Type: token.Number, Value: sb.String(), Line: line, Col: col}, nil
}

// readIdentOrTypedLiteral reads a bare identifier/keyword. It always
// returns an Ident token: a trailing `_suffix` (as in `abc_fixedchar`) is
// read as part of the identifier, not split off as a typed literal.
func (l *Lexer) readIdentOrTypedLiteral(line, col int) token.Token {
	var sb strings.Builder
	for !l.atEnd() && isIdentCont(l.peek()) {
		sb.WriteRune(l.advance())
	}
	return token.Token{Type: token.Ident, Value: sb.String(), Line: line, Col: col}
}

// readTypeSuffixInto reads the portion of a typed literal after the `_`,
// including an optional parameterization (`decimal<10,2>`).
func (l *Lexer) readTypeSuffixInto(sb *strings.Builder) error {
	for !l.atEnd() && isIdentCont(l.peek()) {
		sb.WriteRune(l.advance())
	}
	if !l.atEnd() && l.peek() == '<' {
		depth := 0
		for !l.atEnd() {
			ch := l.peek()
			sb.WriteRune(l.advance())
			if ch == '<' {
				depth++
			} else if ch == '>' {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if depth != 0 {
			return fmt.Errorf("textplan: unterminated type parameter list in typed literal")
		}
	}
	return nil
}

func (l *Lexer) readString() (string, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.atEnd() {
			return "", fmt.Errorf("textplan: unterminated string at %d:%d", l.line, l.col)
		}
		ch := l.advance()
		if ch == '"' {
			break
		}
		if ch == '\\' && !l.atEnd() {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String(), nil
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '\n':
			l.advance()
		case ch == '/' && l.peekAt(1) == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '#':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.runes)
}

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	return l.runes[l.pos]
}

func (l *Lexer) peekAt(offset int) rune {
	idx := l.pos + offset
	if idx < 0 || idx >= len(l.runes) {
		return 0
	}
	return l.runes[idx]
}

func (l *Lexer) advance() rune {
	ch := l.runes[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}
