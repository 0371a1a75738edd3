// Package compiler implements a single-pass Pratt compiler: it drives the
// scanner one token at a time and emits bytecode directly into a chunk,
// with no intermediate AST. A Compiler exists only for the duration of one
// Compile call; it registers itself as the heap's GC root provider so that
// functions under construction (and the chunks/constants they own) survive
// any collection triggered while compiling.
package compiler

import (
	"fmt"
	"strings"

	"github.com/mna/nenuphar-lite/lang/scanner"
	"github.com/mna/nenuphar-lite/lang/token"
	"github.com/mna/nenuphar-lite/lang/value"
)

const (
	maxLocals    = 256
	maxUpvalues  = 256
	maxConstants = 256
	maxJumpRange = 1<<16 - 1
)

// funcKind distinguishes the implicit top-level script from a `fun`
// declaration; returning from the top level is a compile error.
type funcKind uint8

const (
	kindScript funcKind = iota
	kindFunction
)

// local is one entry of a frame's locals array. depth is -1 between the
// point the name is declared and the point its initializer finishes
// evaluating ("declared but not yet initialized"); resolveLocal skips such
// entries, which is what lets an initializer see a shadowed outer binding
// of the same name instead of its own (still-uninitialized) slot.
type local struct {
	name  token.Token
	depth int
}

// upvalueRef is the compile-time record of one captured variable: either a
// slot in the immediately enclosing frame (isLocal) or an upvalue already
// resolved at that enclosing frame (by index into its own upvalues).
type upvalueRef struct {
	index   byte
	isLocal bool
}

// frame holds the compiler state for one function currently being
// compiled. Frames form a stack via enclosing, mirroring the nesting of
// `fun` declarations; upvalue resolution walks this chain.
type frame struct {
	enclosing *frame
	fn        *value.ObjFunction
	kind      funcKind

	locals     [maxLocals]local
	localCount int
	scopeDepth int

	upvalues []upvalueRef
}

// Compiler holds all state for one compilation: the scanner, the parser's
// one-token lookahead, the error list, and the stack of function frames
// currently being built.
type Compiler struct {
	heap *value.Heap
	scan scanner.Scanner
	src  []byte

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errs      []string

	fr *frame
}

// CompileError aggregates every syntax error collected during one compile;
// panic-mode synchronization lets a single compile report several errors
// instead of stopping at the first.
type CompileError struct {
	Errors []string
}

func (e *CompileError) Error() string { return strings.Join(e.Errors, "\n") }

// Compile translates source into a top-level script Function. On success
// the returned Function's chunk contains the whole program; on failure it
// returns a *CompileError listing every syntax error found.
//
// Compile installs itself as heap's GC root provider for the duration of
// the call, since every Function it allocates (and their chunks'
// constants) must survive any collection triggered mid-compile; it
// restores heap to rootless before returning.
func Compile(heap *value.Heap, source []byte) (*value.ObjFunction, error) {
	c := &Compiler{heap: heap, src: source}
	c.scan.Init(source)

	heap.SetRoots(c)
	defer heap.SetRoots(nil)

	c.pushFrame(kindScript, nil)

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endFunction()
	if c.hadError {
		return nil, &CompileError{Errors: c.errs}
	}
	return fn, nil
}

// MarkRoots implements value.RootProvider: every Function owned by a frame
// still on the compiler's frame stack must survive collection, since it
// is not yet stored anywhere else (it will be, once its enclosing
// function emits the CLOSURE instruction that embeds it as a constant).
func (c *Compiler) MarkRoots(h *value.Heap) {
	for f := c.fr; f != nil; f = f.enclosing {
		h.MarkObject(f.fn)
	}
}

func (c *Compiler) pushFrame(kind funcKind, name *value.ObjString) {
	fn := c.heap.NewFunction(name)
	f := &frame{enclosing: c.fr, fn: fn, kind: kind}
	// Slot 0 is reserved for the callee itself (the closure), per the
	// calling convention the VM's call frames rely on.
	f.locals[0] = local{depth: 0}
	f.localCount = 1
	c.fr = f
}

// endFunction emits the implicit trailing return, pops the current frame,
// and returns its now-complete Function.
func (c *Compiler) endFunction() *value.ObjFunction {
	c.emitReturn()
	fn := c.fr.fn
	c.fr = c.fr.enclosing
	return fn
}

func (c *Compiler) chunk() *value.Chunk { return c.fr.fn.Chunk }

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scan.Scan()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Message)
	}
}

func (c *Compiler) check(kind token.Kind) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// synchronize discards tokens after a panic-mode error until it reaches a
// statement boundary (after a ';', or at a statement-starter keyword), so
// one compile can report more than one independent error.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- error reporting ---

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := fmt.Sprintf(" at '%s'", tok.Lexeme(c.src))
	if tok.Kind == token.EOF {
		where = " at end"
	}
	c.errs = append(c.errs, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

// --- bytecode emission ---

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op OpCode) { c.emitByte(byte(op)) }
func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	c.emitOp(OpNil)
	c.emitOp(OpReturn)
}

// makeConstant appends v to the current chunk's constants pool and returns
// its index, or reports a compile error if the 256-entry limit (the
// CONSTANT operand is one byte) is exceeded.
func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx >= maxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(OpConstant), c.makeConstant(v))
}

// emitJump writes op followed by a two-byte placeholder offset and returns
// the offset's position, to be filled in later by patchJump.
func (c *Compiler) emitJump(op OpCode) int {
	c.emitOp(op)
	c.emitBytes(0xff, 0xff)
	return len(c.chunk().Code) - 2
}

// patchJump backfills the two-byte operand at offset with the distance
// from just after it to the current end of the chunk.
func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > maxJumpRange {
		c.error("Too much code to jump over.")
		return
	}
	code := c.chunk().Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

// emitLoop emits a backward LOOP to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > maxJumpRange {
		c.error("Loop body too large.")
		return
	}
	c.emitBytes(byte(offset>>8), byte(offset))
}

// --- scope and variable resolution ---

func (c *Compiler) beginScope() { c.fr.scopeDepth++ }

// endScope closes every local declared in the scope being exited. Each one
// gets an explicit CLOSE_UPVALUE, which closes any open upvalue pointing
// at that slot and then pops it; closeUpvalues is a no-op when nothing
// captured the slot, so this is correct (if not maximally terse) for
// locals that were never captured too.
func (c *Compiler) endScope() {
	f := c.fr
	f.scopeDepth--
	for f.localCount > 0 && f.locals[f.localCount-1].depth > f.scopeDepth {
		c.emitOp(OpCloseUpvalue)
		f.localCount--
	}
}

func tokenLexemeEq(a, b token.Token, src []byte) bool {
	return a.Lexeme(src) == b.Lexeme(src)
}

func (c *Compiler) declareVariable(name token.Token) {
	if c.fr.scopeDepth == 0 {
		return
	}
	for i := c.fr.localCount - 1; i >= 0; i-- {
		l := c.fr.locals[i]
		if l.depth != -1 && l.depth < c.fr.scopeDepth {
			break
		}
		if tokenLexemeEq(l.name, name, c.src) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if c.fr.localCount == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fr.locals[c.fr.localCount] = local{name: name, depth: -1}
	c.fr.localCount++
}

func (c *Compiler) markInitialized() {
	if c.fr.scopeDepth == 0 {
		return
	}
	c.fr.locals[c.fr.localCount-1].depth = c.fr.scopeDepth
}

// resolveLocal walks f's locals top-down (innermost scope first). An entry
// with depth == -1 (the one currently being declared) is skipped rather
// than treated as a match, so an initializer referring to its own name
// falls through to any shadowed outer local, global, or (if none exists)
// an undefined-global runtime error, instead of a compile error.
func (c *Compiler) resolveLocal(f *frame, name token.Token) int {
	for i := f.localCount - 1; i >= 0; i-- {
		l := f.locals[i]
		if l.depth != -1 && tokenLexemeEq(l.name, name, c.src) {
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively searches enclosing frames for name, adding an
// upvalue record at every frame level it threads through, and returns this
// frame's upvalue index, or -1 if name is not a local anywhere in the
// enclosing chain.
func (c *Compiler) resolveUpvalue(f *frame, name token.Token) int {
	if f.enclosing == nil {
		return -1
	}
	if localIdx := c.resolveLocal(f.enclosing, name); localIdx != -1 {
		return c.addUpvalue(f, byte(localIdx), true)
	}
	if upIdx := c.resolveUpvalue(f.enclosing, name); upIdx != -1 {
		return c.addUpvalue(f, byte(upIdx), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(f *frame, index byte, isLocal bool) int {
	for i, uv := range f.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(f.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	f.upvalues = append(f.upvalues, upvalueRef{index: index, isLocal: isLocal})
	f.fn.UpvalueCount = byte(len(f.upvalues))
	return len(f.upvalues) - 1
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	s := c.heap.InternString([]byte(name.Lexeme(c.src)))
	return c.makeConstant(value.FromObj(s))
}

// namedVariable emits the get (or, when canAssign and an '=' follows, set)
// sequence for an identifier reference, choosing local/upvalue/global
// opcodes according to where the name resolves.
func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp OpCode
	var arg int

	if local := c.resolveLocal(c.fr, name); local != -1 {
		arg = local
		getOp, setOp = OpGetLocal, OpSetLocal
	} else if up := c.resolveUpvalue(c.fr, name); up != -1 {
		arg = up
		getOp, setOp = OpGetUpvalue, OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = OpGetGlobal, OpSetGlobal
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	} else {
		c.emitBytes(byte(getOp), byte(arg))
	}
}
