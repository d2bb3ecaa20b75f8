package lexer

import (
	"reflect"
	"testing"

	"github.com/wbrown/substraitplan/textplan/token"
)

func TestLexBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.Token
	}{
		{
			name:  "empty input",
			input: "",
			expected: []token.Token{
				{Type: token.EOF, Line: 1, Col: 1},
			},
		},
		{
			name:  "single ident",
			input: "hello",
			expected: []token.Token{
				{Type: token.Ident, Value: "hello", Line: 1, Col: 1},
				{Type: token.EOF, Line: 1, Col: 6},
			},
		},
		{
			name:  "arrow between idents",
			input: "r -> f",
			expected: []token.Token{
				{Type: token.Ident, Value: "r", Line: 1, Col: 1},
				{Type: token.Arrow, Value: "->", Line: 1, Col: 3},
				{Type: token.Ident, Value: "f", Line: 1, Col: 6},
				{Type: token.EOF, Line: 1, Col: 7},
			},
		},
		{
			name:  "string literal",
			input: `"hello world"`,
			expected: []token.Token{
				{Type: token.String, Value: "hello world", Line: 1, Col: 1},
				{Type: token.EOF, Line: 1, Col: 14},
			},
		},
		{
			name:  "string with escapes",
			input: `"a\nb\t\"c\""`,
			expected: []token.Token{
				{Type: token.String, Value: "a\nb\t\"c\"", Line: 1, Col: 1},
				{Type: token.EOF, Line: 1, Col: 14},
			},
		},
		{
			name:  "bare number",
			input: "42",
			expected: []token.Token{
				{Type: token.Number, Value: "42", Line: 1, Col: 1},
				{Type: token.EOF, Line: 1, Col: 3},
			},
		},
		{
			name:  "typed literal with decimal",
			input: "100.0_fp64",
			expected: []token.Token{
				{Type: token.TypedLiteral, Value: "100.0_fp64", Line: 1, Col: 1},
				{Type: token.EOF, Line: 1, Col: 11},
			},
		},
		{
			name:  "parameterized type suffix",
			input: "12_decimal<10,2>",
			expected: []token.Token{
				{Type: token.TypedLiteral, Value: "12_decimal<10,2>", Line: 1, Col: 1},
				{Type: token.EOF, Line: 1, Col: 17},
			},
		},
		{
			name:  "punctuation",
			input: "{a.b, c}[d]",
			expected: []token.Token{
				{Type: token.LBrace, Value: "{", Line: 1, Col: 1},
				{Type: token.Ident, Value: "a", Line: 1, Col: 2},
				{Type: token.Dot, Value: ".", Line: 1, Col: 3},
				{Type: token.Ident, Value: "b", Line: 1, Col: 4},
				{Type: token.Comma, Value: ",", Line: 1, Col: 5},
				{Type: token.Ident, Value: "c", Line: 1, Col: 7},
				{Type: token.RBrace, Value: "}", Line: 1, Col: 8},
				{Type: token.LBracket, Value: "[", Line: 1, Col: 9},
				{Type: token.Ident, Value: "d", Line: 1, Col: 10},
				{Type: token.RBracket, Value: "]", Line: 1, Col: 11},
				{Type: token.EOF, Line: 1, Col: 12},
			},
		},
		{
			name:  "line comment skipped",
			input: "a // a comment\nb",
			expected: []token.Token{
				{Type: token.Ident, Value: "a", Line: 1, Col: 1},
				{Type: token.Ident, Value: "b", Line: 2, Col: 1},
				{Type: token.EOF, Line: 2, Col: 2},
			},
		},
		{
			name:  "hash comment skipped",
			input: "a # a comment\nb",
			expected: []token.Token{
				{Type: token.Ident, Value: "a", Line: 1, Col: 1},
				{Type: token.Ident, Value: "b", Line: 2, Col: 1},
				{Type: token.EOF, Line: 2, Col: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := New(tt.input).Lex()
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			if !reflect.DeepEqual(toks, tt.expected) {
				t.Errorf("Lex(%q) = %v, want %v", tt.input, toks, tt.expected)
			}
		})
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unterminated string", input: `"abc`},
		{name: "unexpected character", input: "a $ b"},
		{name: "unterminated type parameter list", input: "1_decimal<10,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.input).Lex(); err == nil {
				t.Errorf("Lex(%q) expected an error, got none", tt.input)
			}
		})
	}
}
