package machine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (string, Result, error) {
	t.Helper()
	var out bytes.Buffer
	vm := New()
	vm.Stdout = &out
	res, err := vm.Interpret([]byte(src))
	return out.String(), res, err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, res, err := run(t, "print 1 + 2 * 3;")
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, "7\n", out)
}

func TestForLoopAccumulator(t *testing.T) {
	out, res, err := run(t, `
		var sum = 0;
		for (var i = 1; i <= 5; i = i + 1) {
			sum = sum + i;
		}
		print sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, "15\n", out)
}

func TestClosureCounterCapturesUpvalueByReference(t *testing.T) {
	out, res, err := run(t, `
		fun makeCounter() {
			var n = 0;
			fun inc() {
				n = n + 1;
				return n;
			}
			return inc;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestTwoCountersHaveIndependentState(t *testing.T) {
	out, res, err := run(t, `
		fun makeCounter() {
			var n = 0;
			fun inc() { n = n + 1; return n; }
			return inc;
		}
		var a = makeCounter();
		var b = makeCounter();
		print a();
		print a();
		print b();
	`)
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, "1\n2\n1\n", out)
}

func TestStringInterningEquality(t *testing.T) {
	out, res, err := run(t, `
		var a = "hi" + "!";
		var b = "hi!";
		print a == b;
	`)
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, "true\n", out)
}

func TestRecursiveFunctionCall(t *testing.T) {
	out, res, err := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, "55\n", out)
}

func TestShadowedInitializerSeesOuterBinding(t *testing.T) {
	out, res, err := run(t, `
		var x = 1;
		{
			var x = x + 1;
			print x;
		}
		print x;
	`)
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, "2\n1\n", out)
}

func TestIfElseBranches(t *testing.T) {
	out, _, err := run(t, `if (1 < 2) print "yes"; else print "no";`)
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, _, err := run(t, `
		var i = 0;
		while (i < 3) {
			print i;
			i = i + 1;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestLogicalOperatorsShortCircuit(t *testing.T) {
	out, _, err := run(t, `
		fun loud(v) { print v; return v; }
		if (false and loud("unreached")) {}
		if (true or loud("unreached")) {}
		print "done";
	`)
	require.NoError(t, err)
	assert.Equal(t, "done\n", out)
}

func TestClockNativeReturnsNumber(t *testing.T) {
	_, res, err := run(t, `
		var t = clock();
		if (t < 0) print "bad";
	`)
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
}

// --- error scenarios ---

func TestOperandTypeErrorIsRuntimeError(t *testing.T) {
	_, res, err := run(t, `print 1 + "a";`)
	require.Error(t, err)
	assert.Equal(t, ResultRuntimeError, res)
	assert.Contains(t, err.Error(), "Operands must be two numbers or two strings.")
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, res, err := run(t, `print missing;`)
	require.Error(t, err)
	assert.Equal(t, ResultRuntimeError, res)
	assert.Contains(t, err.Error(), "Undefined variable 'missing'.")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, res, err := run(t, `
		fun f(a, b) { return a + b; }
		f(1);
	`)
	require.Error(t, err)
	assert.Equal(t, ResultRuntimeError, res)
	assert.Contains(t, err.Error(), "Expected 2 arguments but got 1.")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, res, err := run(t, `
		var x = 1;
		x();
	`)
	require.Error(t, err)
	assert.Equal(t, ResultRuntimeError, res)
	assert.Contains(t, err.Error(), "Can only call functions")
}

func TestRuntimeErrorIncludesStackTrace(t *testing.T) {
	_, _, err := run(t, `
		fun a() { return 1 + "x"; }
		fun b() { return a(); }
		b();
	`)
	require.Error(t, err)
	lines := strings.Split(err.Error(), "\n")
	require.True(t, len(lines) >= 3)
	assert.Contains(t, lines[1], "in a()")
	assert.Contains(t, lines[2], "in b()")
}

func TestCompileErrorStopsBeforeRunning(t *testing.T) {
	_, res, err := run(t, `print ;`)
	require.Error(t, err)
	assert.Equal(t, ResultCompileError, res)
}
