package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTestExpression(t *testing.T, content string) ExpressionAst {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(bytes.NewReader([]byte(content)))
	require.Nil(t, err, content)
	parser := &Parser{currentTokens: tokens}
	expr, err := parser.parseExpression()
	require.Nil(t, err, content)
	assert.False(t, parser.hasRemainTokens(), content)
	return expr
}

// exprString renders expr fully parenthesized.
func exprString(expr ExpressionAst) string {
	switch expr := expr.(type) {
	case *IntegerConstantAst:
		return expr.Value
	case *FloatConstantAst:
		return expr.Value
	case *TimeConstantAst:
		return expr.Value
	case *StringConstantAst:
		return `"` + expr.Value + `"`
	case *BoolConstantAst:
		if expr.Value {
			return "true"
		}
		return "false"
	case *PinConstantAst:
		if expr.Analog {
			return "A" + expr.Number
		}
		return "D" + expr.Number
	case *VariableAst:
		return expr.VarName
	case *BinaryExpressionAst:
		return "(" + exprString(expr.Left) + " " + expr.Op.Name + " " + exprString(expr.Right) + ")"
	case *UnaryExpressionAst:
		return "(" + expr.Op.Name + exprString(expr.Operand) + ")"
	case *CallAst:
		ret := expr.FuncName + "("
		for i, param := range expr.Params {
			if i > 0 {
				ret += ", "
			}
			ret += exprString(param)
		}
		return ret + ")"
	case *IndexExpressionAst:
		return exprString(expr.Array) + "[" + exprString(expr.Index) + "]"
	case *ArrayLiteralAst:
		ret := "["
		for i, element := range expr.Elements {
			if i > 0 {
				ret += ", "
			}
			ret += exprString(element)
		}
		return ret + "]"
	case *ReadExpressionAst:
		return "read(" + exprString(expr.Pin) + ")"
	}
	return "?"
}

func TestParser_ParseExpression(t *testing.T) {
	testData := []struct {
		Content string
		Expect  string
	}{
		{Content: "a + b", Expect: "(a + b)"},
		{Content: "a + b * c", Expect: "(a + (b * c))"},
		{Content: "a * b + c * d", Expect: "((a * b) + (c * d))"},
		{Content: "a - b - c", Expect: "((a - b) - c)"},
		{Content: "a || b && c", Expect: "(a || (b && c))"},
		{Content: "a == b || c < d + 1", Expect: "((a == b) || (c < (d + 1)))"},
		{Content: "!a && b", Expect: "((!a) && b)"},
		{Content: "-x * 2", Expect: "((-x) * 2)"},
		{Content: "(a + b) * c", Expect: "((a + b) * c)"},
		{Content: "a[1 + e * f] * g", Expect: "(a[(1 + (e * f))] * g)"},
		{Content: "m[1][2]", Expect: "m[1][2]"},
		{Content: "f(1, g(2)) + h()", Expect: "(f(1, g(2)) + h())"},
		{Content: "read(D2) && read(A0) > 3", Expect: "(read(D2) && (read(A0) > 3))"},
		{Content: "[1, 2, 3]", Expect: "[1, 2, 3]"},
		{Content: "1.5s + 200ms", Expect: "(1.5s + 200ms)"},
		{Content: `"a" + "b"`, Expect: `("a" + "b")`},
		{Content: "true != false", Expect: "(true != false)"},
		{Content: "a % b / c", Expect: "((a % b) / c)"},
	}
	for _, data := range testData {
		expr := parseTestExpression(t, data.Content)
		assert.Equal(t, data.Expect, exprString(expr), data.Content)
	}
}

func TestParser_ParseProgram(t *testing.T) {
	source := `
Int counter = 0;
Int[4] samples;
Int add(Int a, Int b) {
	return a + b;
}
template Blinker(DigitalOutputPin led, Time period) {
	Bool lit = false;
	every period {
		lit = !lit;
		set(led, lit);
	}
}
module left = Blinker(D12, 500ms);
module Blinker(D13, 1s);
module Ticker {
	delay until read(D2);
	stop left;
}
module {
	sleep 1s;
	usleep 10;
}
init {
	counter = 1;
}
every 1s {
	for i from 0 to 3 step 1 {
		samples[i] += i;
	}
	if counter > 10 {
		counter = 0;
	} else if counter < 0 {
		counter = 1;
	} else {
		while false { break; }
	}
}
on counter == 5 {
	println("five");
}
`
	program, err := ParseString(source)
	require.Nil(t, err)
	require.Len(t, program.Items, 11)

	counter := program.Items[0].(*VarDeclareAst)
	assert.Equal(t, "counter", counter.VarName)
	assert.Equal(t, IntType, counter.VarType.Type())
	assert.Equal(t, Pos{Line: 2, Col: 1}, counter.Pos)

	samples := program.Items[1].(*VarDeclareAst)
	assert.True(t, samples.VarType.IsArray)
	assert.Equal(t, "4", exprString(samples.VarType.Size))
	assert.Nil(t, samples.Value)

	add := program.Items[2].(*FuncDeclareAst)
	assert.Equal(t, "add", add.FuncName)
	assert.Len(t, add.Params, 2)
	assert.Len(t, add.Body.Statements, 1)

	blinker := program.Items[3].(*TemplateDeclareAst)
	assert.Equal(t, "Blinker", blinker.TemplateName)
	assert.Equal(t, DigitalOutputPinType, blinker.Params[0].ParamTP.Type())
	assert.IsType(t, &EveryStatementAst{}, blinker.Body.Statements[1])

	left := program.Items[4].(*ModuleDeclareAst)
	assert.Equal(t, "left", left.Name)
	assert.Equal(t, "Blinker", left.Template)
	assert.Len(t, left.Args, 2)

	anonymous := program.Items[5].(*ModuleDeclareAst)
	assert.Equal(t, "", anonymous.Name)
	assert.True(t, anonymous.IsTemplateInstance())

	ticker := program.Items[6].(*ModuleDeclareAst)
	assert.Equal(t, "Ticker", ticker.Name)
	assert.False(t, ticker.IsTemplateInstance())
	assert.IsType(t, &DelayUntilStatementAst{}, ticker.Body.Statements[0])
	assert.IsType(t, &StopStatementAst{}, ticker.Body.Statements[1])

	direct := program.Items[7].(*ModuleDeclareAst)
	assert.Equal(t, "", direct.Name)
	assert.IsType(t, &SleepStatementAst{}, direct.Body.Statements[0])
	assert.IsType(t, &USleepStatementAst{}, direct.Body.Statements[1])

	assert.IsType(t, &InitBlockAst{}, program.Items[8])

	every := program.Items[9].(*EveryStatementAst)
	assert.Equal(t, "1s", exprString(every.Period))
	loop := every.Body.Statements[0].(*ForStatementAst)
	assert.Equal(t, "i", loop.VarName)
	assert.Equal(t, "1", exprString(loop.Step))
	assign := loop.Body.Statements[0].(*AssignStatementAst)
	assert.Equal(t, AddAssign, assign.Op)
	assert.Equal(t, "i", exprString(assign.Index))
	ifStm := every.Body.Statements[1].(*IfStatementAst)
	elseIf := ifStm.Else.(*IfStatementAst)
	assert.IsType(t, &BlockAst{}, elseIf.Else)

	on := program.Items[10].(*OnStatementAst)
	assert.Equal(t, "(counter == 5)", exprString(on.Condition))
	call := on.Body.Statements[0].(*CallStatementAst)
	assert.Equal(t, "println", call.Call.FuncName)
}

func TestParser_SyntaxErrors(t *testing.T) {
	testData := []struct {
		Content string
		Message string
	}{
		{Content: "Int a = ;", Message: "syntax error near ;"},
		{Content: "module M = (1);", Message: "syntax error near ("},
		{Content: "Int f(Int a) { return a }", Message: "syntax error near }"},
		{Content: "Int[4] f() { }", Message: "syntax error"},
		{Content: "every 1s { set(D1); }", Message: "syntax error"},
		{Content: "every 1s { a = 1;", Message: "syntax error near ;"},
		{Content: "a = 1;", Message: "syntax error near a"},
		{Content: "every 1s { a == 1; }", Message: "syntax error near =="},
		{Content: "Int a = 1", Message: "unexpected end of input"},
	}
	for _, data := range testData {
		_, err := ParseString(data.Content)
		if !assert.NotNil(t, err, data.Content) {
			continue
		}
		diag, ok := AsDiagnostic(err)
		assert.True(t, ok, data.Content)
		assert.Equal(t, SyntaxError, diag.Kind, data.Content)
		assert.Equal(t, data.Message, diag.Message, data.Content)
	}
}
