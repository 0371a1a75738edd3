package compiler

import (
	"strconv"

	"github.com/mna/nenuphar-lite/lang/token"
	"github.com/mna/nenuphar-lite/lang/value"
)

// precedence levels, low to high; parsePrecedence(p) parses everything
// that binds at least as tightly as p.
type precedence byte

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
	precCall                  // . (
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules is indexed by token.Kind; zero-value entries (no prefix, no
// infix, precNone) correctly describe tokens that never start or continue
// an expression.
var rules [int(token.WHILE) + 1]parseRule

func init() {
	rules[token.LPAREN] = parseRule{grouping, call, precCall}
	rules[token.MINUS] = parseRule{unary, binary, precTerm}
	rules[token.PLUS] = parseRule{nil, binary, precTerm}
	rules[token.SLASH] = parseRule{nil, binary, precFactor}
	rules[token.STAR] = parseRule{nil, binary, precFactor}
	rules[token.BANG] = parseRule{unary, nil, precNone}
	rules[token.BANG_EQ] = parseRule{nil, binary, precEquality}
	rules[token.EQ_EQ] = parseRule{nil, binary, precEquality}
	rules[token.GT] = parseRule{nil, binary, precComparison}
	rules[token.GT_EQ] = parseRule{nil, binary, precComparison}
	rules[token.LT] = parseRule{nil, binary, precComparison}
	rules[token.LT_EQ] = parseRule{nil, binary, precComparison}
	rules[token.IDENT] = parseRule{variable, nil, precNone}
	rules[token.STRING] = parseRule{stringLiteral, nil, precNone}
	rules[token.NUMBER] = parseRule{number, nil, precNone}
	rules[token.AND] = parseRule{nil, and_, precAnd}
	rules[token.OR] = parseRule{nil, or_, precOr}
	rules[token.FALSE] = parseRule{literal, nil, precNone}
	rules[token.TRUE] = parseRule{literal, nil, precNone}
	rules[token.NIL] = parseRule{literal, nil, precNone}
}

// parsePrecedence implements the Pratt climbing algorithm: one prefix
// parse followed by zero or more infix parses, each bound by minPrec.
func (c *Compiler) parsePrecedence(minPrec precedence) {
	c.advance()
	prefixRule := rules[c.previous.Kind].prefix
	if prefixRule == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := minPrec <= precAssignment
	prefixRule(c, canAssign)

	for minPrec <= rules[c.current.Kind].prec {
		c.advance()
		infixRule := rules[c.previous.Kind].infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		c.emitOp(OpNot)
	case token.MINUS:
		c.emitOp(OpNegate)
	}
}

// binary parses the right-hand operand at one precedence level higher
// than the operator's own, making every binary operator left-associative.
func binary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	rule := rules[opKind]
	c.parsePrecedence(rule.prec + 1)

	switch opKind {
	case token.PLUS:
		c.emitOp(OpAdd)
	case token.MINUS:
		c.emitOp(OpSubtract)
	case token.STAR:
		c.emitOp(OpMultiply)
	case token.SLASH:
		c.emitOp(OpDivide)
	case token.EQ_EQ:
		c.emitOp(OpEqual)
	case token.BANG_EQ:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.GT:
		c.emitOp(OpGreater)
	case token.GT_EQ:
		c.emitOp(OpLess)
		c.emitOp(OpNot)
	case token.LT:
		c.emitOp(OpLess)
	case token.LT_EQ:
		c.emitOp(OpGreater)
		c.emitOp(OpNot)
	}
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(OpFalse)
	case token.TRUE:
		c.emitOp(OpTrue)
	case token.NIL:
		c.emitOp(OpNil)
	}
}

func number(c *Compiler, _ bool) {
	lit := c.previous.Lexeme(c.src)
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(f))
}

// stringLiteral strips the surrounding quotes the scanner included in the
// token's lexeme; the language defines no escape sequences.
func stringLiteral(c *Compiler, _ bool) {
	lexeme := c.previous.Lexeme(c.src)
	raw := lexeme[1 : len(lexeme)-1]
	s := c.heap.InternString([]byte(raw))
	c.emitConstant(value.FromObj(s))
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// and_ short-circuits: a falsey left operand skips the right operand
// entirely, leaving the falsey value as the result.
func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ short-circuits the other way: a truthy left operand skips the right
// operand.
func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)
	c.patchJump(elseJump)
	c.emitOp(OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitBytes(byte(OpCall), argCount)
}

func (c *Compiler) argumentList() byte {
	count := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(count)
}
