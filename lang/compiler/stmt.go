package compiler

import (
	"github.com/mna/nenuphar-lite/lang/token"
	"github.com/mna/nenuphar-lite/lang/value"
)

// declaration parses one top-level-or-block item: a var/fun declaration or
// a bare statement. It resynchronizes at the next statement boundary if
// the item being parsed left panicMode set, so one syntax error does not
// cascade into spurious follow-on errors.
func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// parseVariable consumes the variable's name, declares it as a local if
// inside a scope, and returns the constant-pool index of its interned name
// (needed only for a global; callers at local scope ignore the result).
func (c *Compiler) parseVariable(msg string) byte {
	c.consume(token.IDENT, msg)
	name := c.previous
	c.declareVariable(name)
	if c.fr.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

// defineVariable finishes a variable's declaration: for a local, it just
// marks the slot initialized (the value is already on the stack); for a
// global, it emits DEFINE_GLOBAL.
func (c *Compiler) defineVariable(global byte) {
	if c.fr.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(OpDefineGlobal), global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	// A function's own name is initialized before its body is compiled, so
	// the body can refer to the function recursively.
	c.markInitialized()
	c.function(kindFunction)
	c.defineVariable(global)
}

// function compiles a `fun` body in its own frame: reserves parameter
// locals, compiles the block, then emits CLOSURE (with the captured
// upvalue descriptor pairs) into the enclosing frame.
func (c *Compiler) function(kind funcKind) {
	name := c.previous
	nameStr := c.heap.InternString([]byte(name.Lexeme(c.src)))
	c.pushFrame(kind, nameStr)
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			if c.fr.fn.Arity == 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			c.fr.fn.Arity++
			paramConstant := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConstant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	upvalues := c.fr.upvalues
	fn := c.endFunction()

	c.emitBytes(byte(OpClosure), c.makeConstant(value.FromObj(fn)))
	for _, uv := range upvalues {
		var isLocal byte
		if uv.isLocal {
			isLocal = 1
		}
		c.emitBytes(isLocal, uv.index)
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OpPop)
}

func (c *Compiler) returnStatement() {
	if c.fr.kind == kindScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(OpReturn)
}

// ifStatement: cond; JUMP_IF_FALSE L1; POP; thenBranch; JUMP L2; L1: POP;
// [elseBranch]; L2:. The POP at L1 discards the (falsey) condition when
// JUMP_IF_FALSE is taken; the one right after JUMP_IF_FALSE discards the
// (truthy) condition when it is not.
func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

// forStatement desugars into the while-loop shape, with the increment
// clause relocated to run right before the backward jump: init; Lcond:
// [cond; JUMP_IF_FALSE Lexit; POP]; JUMP Lbody; Linc: inc; POP; LOOP
// Lcond; Lbody: body; LOOP Linc (or Lcond if there is no increment);
// Lexit: [POP].
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OpJumpIfFalse)
		c.emitOp(OpPop)
	}

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPAREN, "Expect ')' after for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OpPop)
	}
	c.endScope()
}
