package compiler

import "github.com/kristofer/smog/pkg/lexer"

// Precedence levels, ascending.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is a Pratt prefix or infix handler. canAssign tells it whether an
// assignment target is syntactically valid here (precedence <= ASSIGNMENT).
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the dispatch table keyed by token kind: for every token, whether
// it can start an expression (prefix), continue one (infix), and at what
// precedence the infix handler binds.
var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:    {(*Compiler).grouping, (*Compiler).call, precCall},
		lexer.TokenRightParen:   {nil, nil, precNone},
		lexer.TokenLeftBrace:    {nil, nil, precNone},
		lexer.TokenRightBrace:   {nil, nil, precNone},
		lexer.TokenComma:        {nil, nil, precNone},
		lexer.TokenDot:          {nil, (*Compiler).dot, precCall},
		lexer.TokenMinus:        {(*Compiler).unary, (*Compiler).binary, precTerm},
		lexer.TokenPlus:         {nil, (*Compiler).binary, precTerm},
		lexer.TokenSemicolon:    {nil, nil, precNone},
		lexer.TokenSlash:        {nil, (*Compiler).binary, precFactor},
		lexer.TokenStar:         {nil, (*Compiler).binary, precFactor},
		lexer.TokenBang:         {(*Compiler).unary, nil, precNone},
		lexer.TokenBangEqual:    {nil, (*Compiler).binary, precEquality},
		lexer.TokenEqual:        {nil, nil, precNone},
		lexer.TokenEqualEqual:   {nil, (*Compiler).binary, precEquality},
		lexer.TokenGreater:      {nil, (*Compiler).binary, precComparison},
		lexer.TokenGreaterEqual: {nil, (*Compiler).binary, precComparison},
		lexer.TokenLess:         {nil, (*Compiler).binary, precComparison},
		lexer.TokenLessEqual:    {nil, (*Compiler).binary, precComparison},
		lexer.TokenIdentifier:   {(*Compiler).variable, nil, precNone},
		lexer.TokenString:       {(*Compiler).string, nil, precNone},
		lexer.TokenNumber:       {(*Compiler).number, nil, precNone},
		lexer.TokenAnd:          {nil, (*Compiler).and, precAnd},
		lexer.TokenClass:        {nil, nil, precNone},
		lexer.TokenElse:         {nil, nil, precNone},
		lexer.TokenFalse:        {(*Compiler).literal, nil, precNone},
		lexer.TokenFor:          {nil, nil, precNone},
		lexer.TokenFun:          {nil, nil, precNone},
		lexer.TokenIf:           {nil, nil, precNone},
		lexer.TokenNil:          {(*Compiler).literal, nil, precNone},
		lexer.TokenOr:           {nil, (*Compiler).or, precOr},
		lexer.TokenPrint:        {nil, nil, precNone},
		lexer.TokenReturn:       {nil, nil, precNone},
		lexer.TokenSuper:        {(*Compiler).super, nil, precNone},
		lexer.TokenThis:         {(*Compiler).this, nil, precNone},
		lexer.TokenTrue:         {(*Compiler).literal, nil, precNone},
		lexer.TokenVar:          {nil, nil, precNone},
		lexer.TokenWhile:        {nil, nil, precNone},
		lexer.TokenError:        {nil, nil, precNone},
		lexer.TokenEOF:          {nil, nil, precNone},
	}
}

func getRule(t lexer.TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{}
}
