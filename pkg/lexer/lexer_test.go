package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToken_Punctuation(t *testing.T) {
	source := "(){};,+-*/"
	want := []TokenType{
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenSemicolon, TokenComma, TokenPlus, TokenMinus, TokenStar, TokenSlash,
		TokenEOF,
	}

	l := New(source)
	for i, wt := range want {
		tok := l.NextToken()
		assert.Equalf(t, wt, tok.Type, "token %d", i)
	}
}

func TestNextToken_TwoCharacterOperators(t *testing.T) {
	l := New("!= == <= >= ! = < >")
	want := []TokenType{
		TokenBangEqual, TokenEqualEqual, TokenLessEqual, TokenGreaterEqual,
		TokenBang, TokenEqual, TokenLess, TokenGreater, TokenEOF,
	}
	for _, wt := range want {
		assert.Equal(t, wt, l.NextToken().Type)
	}
}

func TestNextToken_Keywords(t *testing.T) {
	source := "and class else false for fun if nil or print return super this true var while"
	want := []TokenType{
		TokenAnd, TokenClass, TokenElse, TokenFalse, TokenFor, TokenFun, TokenIf,
		TokenNil, TokenOr, TokenPrint, TokenReturn, TokenSuper, TokenThis,
		TokenTrue, TokenVar, TokenWhile, TokenEOF,
	}
	l := New(source)
	for _, wt := range want {
		assert.Equal(t, wt, l.NextToken().Type)
	}
}

func TestNextToken_Identifiers(t *testing.T) {
	l := New("orchid orIgnore _private x1")
	for _, want := range []string{"orchid", "orIgnore", "_private", "x1"} {
		tok := l.NextToken()
		require := assert.New(t)
		require.Equal(TokenIdentifier, tok.Type)
		require.Equal(want, tok.Lexeme)
	}
}

func TestNextToken_Numbers(t *testing.T) {
	l := New("123 45.67 0.5")
	for _, want := range []string{"123", "45.67", "0.5"} {
		tok := l.NextToken()
		assert.Equal(t, TokenNumber, tok.Type)
		assert.Equal(t, want, tok.Lexeme)
	}
}

func TestNextToken_Strings(t *testing.T) {
	l := New(`"hello world"`)
	tok := l.NextToken()
	assert.Equal(t, TokenString, tok.Type)
	assert.Equal(t, `"hello world"`, tok.Lexeme)
}

func TestNextToken_UnterminatedString(t *testing.T) {
	l := New(`"hello`)
	tok := l.NextToken()
	assert.Equal(t, TokenError, tok.Type)
	assert.Contains(t, tok.Lexeme, "unterminated")
}

func TestNextToken_UnexpectedCharacter(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	assert.Equal(t, TokenError, tok.Type)
}

func TestNextToken_CommentsAndWhitespaceSkipped(t *testing.T) {
	l := New("// a comment\n  1 // trailing\n+2")
	assert.Equal(t, TokenNumber, l.NextToken().Type)
	assert.Equal(t, TokenPlus, l.NextToken().Type)
	assert.Equal(t, TokenNumber, l.NextToken().Type)
}

func TestNextToken_LineTracking(t *testing.T) {
	l := New("1\n2\n\n3")
	assert.Equal(t, 1, l.NextToken().Line)
	assert.Equal(t, 2, l.NextToken().Line)
	assert.Equal(t, 4, l.NextToken().Line)
}

func TestNextToken_EOFIsSticky(t *testing.T) {
	l := New("")
	assert.Equal(t, TokenEOF, l.NextToken().Type)
	assert.Equal(t, TokenEOF, l.NextToken().Type)
}

func TestNextToken_MinusBeforeDigitIsOperatorNotSign(t *testing.T) {
	// smog has no unary literal folding in the scanner: -5 lexes as MINUS, NUMBER.
	l := New("-5")
	assert.Equal(t, TokenMinus, l.NextToken().Type)
	tok := l.NextToken()
	assert.Equal(t, TokenNumber, tok.Type)
	assert.Equal(t, "5", tok.Lexeme)
}
