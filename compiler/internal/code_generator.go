package internal

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/xiaobogaga/tickc/util"
)

// The generated sketch has a fixed shape:
//
//	<includes>
//	<function prototypes>
//	<global declarations>
//	<function definitions>
//	void setup() { <setup code> }
//	void loop() { <loop code> }
//
// Expressions are generated post order on a stack of code fragments, the way the checker does
// it with types.

// GenerateOptions are the target settings coming from the project configuration.
type GenerateOptions struct {
	Includes   []string
	SerialBaud int
}

type codeRegion struct {
	strings.Builder
	indent int
}

func (region *codeRegion) writeLine(format string, args ...interface{}) {
	region.WriteString(strings.Repeat("  ", region.indent))
	fmt.Fprintf(region, format, args...)
	region.WriteByte('\n')
}

type generator struct {
	table *SymbolTable
	types *TypeTable
	opts  GenerateOptions

	global, funcs, setup, loop codeRegion
	// out is the region statements are currently written to.
	out   *codeRegion
	stack []string

	usesSerial bool
	// instancePrefix is set while a template body is generated for an instance, template variables
	// are emitted with it.
	instancePrefix string
}

// GenerateCode lowers a checked program to an Arduino sketch.
func GenerateCode(program *ProgramAst, table *SymbolTable, types *TypeTable, opts GenerateOptions) string {
	g := &generator{table: table, types: types, opts: opts}
	g.generateFuncPrototypes(program)
	for _, item := range program.Items {
		g.generateItem(item)
	}
	if len(g.stack) != 0 {
		internalError("%d code fragments left on the stack", len(g.stack))
	}
	return g.assemble()
}

func (g *generator) assemble() string {
	var b strings.Builder
	for _, include := range g.opts.Includes {
		fmt.Fprintf(&b, "#include <%s>\n", include)
	}
	if len(g.opts.Includes) > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(g.global.String())
	b.WriteString(g.funcs.String())
	b.WriteString("void setup() {\n")
	if g.usesSerial {
		fmt.Fprintf(&b, "  Serial.begin(%d);\n", g.opts.SerialBaud)
	}
	b.WriteString(g.setup.String())
	b.WriteString("}\n\nvoid loop() {\n")
	b.WriteString(g.loop.String())
	b.WriteString("}\n")
	return b.String()
}

func (g *generator) push(code string) {
	g.stack = append(g.stack, code)
}

func (g *generator) pop() string {
	if len(g.stack) == 0 {
		internalError("code stack underflow")
	}
	code := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	return code
}

func (g *generator) popN(n int) []string {
	ret := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		ret[i] = g.pop()
	}
	return ret
}

// expression generates expr and pops its code.
func (g *generator) expression(expr ExpressionAst) string {
	g.generateExpression(expr)
	return g.pop()
}

func (g *generator) emittedName(ident *Identifier) string {
	if g.instancePrefix != "" && g.table.Scope(ident.Scope).Kind == TemplateScope {
		return g.instancePrefix + ident.Name
	}
	return ident.EmittedName()
}

var scalarCTypes = map[Kind]string{
	IntKind:              "int",
	Int8Kind:             "int8_t",
	Int16Kind:            "int16_t",
	Int32Kind:            "int32_t",
	Int64Kind:            "int64_t",
	FloatKind:            "float",
	Float32Kind:          "float",
	Float64Kind:          "double",
	StringKind:           "String",
	BoolKind:             "bool",
	TimeKind:             "unsigned long",
	VoidKind:             "void",
	DigitalInputPinKind:  "uint8_t",
	DigitalOutputPinKind: "uint8_t",
	AnalogInputPinKind:   "uint8_t",
	AnalogOutputPinKind:  "uint8_t",
	DigitalPinKind:       "uint8_t",
	AnalogPinKind:        "uint8_t",
}

func cType(tp Type) string {
	if tp.IsArray() {
		internalError("array type %s has no scalar lowering", tp)
	}
	ret, ok := scalarCTypes[tp.Kind]
	if !ok {
		internalError("type %s has no lowering", tp)
	}
	return ret
}

// cDeclarator renders "int x" or "int x[4]", size may be empty for arrays with an initializer.
func cDeclarator(tp Type, name string, size string) string {
	if tp.IsArray() {
		return fmt.Sprintf("%s %s[%s]", cType(*tp.Elem), name, size)
	}
	return fmt.Sprintf("%s %s", cType(tp), name)
}

func pinModeOf(tp Type) string {
	switch tp.Kind {
	case DigitalInputPinKind, AnalogInputPinKind:
		return "INPUT"
	case DigitalOutputPinKind, AnalogOutputPinKind:
		return "OUTPUT"
	}
	return ""
}

func (g *generator) generateFuncPrototypes(program *ProgramAst) {
	functions := g.table.Functions(program)
	for _, fn := range functions {
		g.global.writeLine("%s;", g.funcSignature(fn))
	}
	if len(functions) > 0 {
		g.global.WriteByte('\n')
	}
}

func (g *generator) funcSignature(fn *FuncSymbol) string {
	if fn.ReturnTP.IsArray() {
		internalError("function %s returns an array, which has no lowering", fn.Name)
	}
	params := make([]string, 0, len(fn.Decl.Params))
	for _, param := range fn.Decl.Params {
		ident := g.table.Declared(param)
		params = append(params, cDeclarator(ident.Type, g.emittedName(ident), ""))
	}
	return fmt.Sprintf("%s %s(%s)", cType(fn.ReturnTP), fn.Name, strings.Join(params, ", "))
}

func (g *generator) generateItem(item ItemAst) {
	switch item := item.(type) {
	case *VarDeclareAst:
		g.generateGlobalVarDeclare(item)
	case *FuncDeclareAst:
		g.generateFunc(item)
	case *TemplateDeclareAst:
		// Templates are generated once per instance.
	case *ModuleDeclareAst:
		g.generateModule(item)
	case *InitBlockAst:
		g.out = &g.setup
		g.setup.indent = 1
		g.generateStatement(item.Body)
	case *EveryStatementAst, *OnStatementAst:
		g.out = &g.loop
		g.loop.indent = 1
		g.generateStatement(item.(StatementAst))
	default:
		internalError("unknown item %T", item)
	}
}

// generateGlobalVarDeclare declares the variable in the global region and initializes it in setup.
func (g *generator) generateGlobalVarDeclare(decl *VarDeclareAst) {
	ident := g.table.Declared(decl)
	name := g.emittedName(ident)
	if ident.Type.IsArray() {
		g.global.writeLine("%s;", g.arrayDeclaration(decl, name))
		g.generatePinModes(ident.Type, name)
		return
	}
	g.global.writeLine("%s;", cDeclarator(ident.Type, name, ""))
	if decl.Value == nil {
		return
	}
	g.setup.indent = 1
	g.setup.writeLine("%s = %s;", name, g.expression(decl.Value))
	g.generatePinModes(ident.Type, name)
}

// arrayDeclaration renders an array declarator with its brace initializer, if any.
func (g *generator) arrayDeclaration(decl *VarDeclareAst, name string) string {
	tp := g.types.TypeOf(decl)
	size := ""
	if decl.VarType.Size != nil {
		size = g.expression(decl.VarType.Size)
	}
	declarator := cDeclarator(tp, name, size)
	if decl.Value == nil {
		return declarator
	}
	literal, ok := decl.Value.(*ArrayLiteralAst)
	if !ok {
		internalError("array %s initialized from %T has no lowering", decl.VarName, decl.Value)
	}
	return declarator + " = " + g.expression(literal)
}

// generatePinModes configures directional pins in setup.
func (g *generator) generatePinModes(tp Type, name string) {
	g.setup.indent = 1
	if tp.IsArray() {
		if mode := pinModeOf(*tp.Elem); mode != "" {
			g.setup.writeLine("for (unsigned int i = 0; i < sizeof(%s) / sizeof(%s[0]); i++) pinMode(%s[i], %s);",
				name, name, name, mode)
		}
		return
	}
	if mode := pinModeOf(tp); mode != "" {
		g.setup.writeLine("pinMode(%s, %s);", name, mode)
	}
}

func (g *generator) generateFunc(decl *FuncDeclareAst) {
	fn := g.table.functionOf(decl)
	g.out = &g.funcs
	g.funcs.indent = 0
	g.funcs.writeLine("%s {", g.funcSignature(fn))
	g.generateBlockBody(decl.Body.Statements)
	g.funcs.writeLine("}")
	g.funcs.WriteByte('\n')
}

// generateModule emits the running flag, the module state as globals initialized in setup and the
// remaining body in loop behind the running flag.
func (g *generator) generateModule(module *ModuleDeclareAst) {
	name := g.table.InstanceName(module)
	g.global.writeLine("bool %s = true;", runningFlag(name))
	body := module.Body
	if module.IsTemplateInstance() {
		template := g.table.LookUpTemplate(module.Template)
		body = template.Decl.Body
		g.instancePrefix = modulePrefix(name)
		defer func() { g.instancePrefix = "" }()
		g.setup.indent = 1
		for i, param := range template.Decl.Params {
			ident := g.table.Declared(param)
			paramName := g.emittedName(ident)
			g.global.writeLine("%s;", cDeclarator(ident.Type, paramName, ""))
			g.setup.writeLine("%s = %s;", paramName, g.expression(module.Args[i]))
			g.generatePinModes(ident.Type, paramName)
		}
	}
	var rest []StatementAst
	for _, stm := range body.Statements {
		if decl, ok := stm.(*VarDeclareAst); ok {
			g.generateGlobalVarDeclare(decl)
			continue
		}
		rest = append(rest, stm)
	}
	if len(rest) == 0 {
		return
	}
	g.out = &g.loop
	g.loop.indent = 1
	g.loop.writeLine("if (%s) {", runningFlag(name))
	g.generateBlockBody(rest)
	g.loop.writeLine("}")
}

func (g *generator) generateBlockBody(statements []StatementAst) {
	g.out.indent++
	for _, stm := range statements {
		g.generateStatement(stm)
	}
	g.out.indent--
}

func (g *generator) generateStatement(stm StatementAst) {
	out := g.out
	switch stm := stm.(type) {
	case *VarDeclareAst:
		g.generateLocalVarDeclare(stm)
	case *BlockAst:
		out.writeLine("{")
		g.generateBlockBody(stm.Statements)
		out.writeLine("}")
	case *AssignStatementAst:
		g.generateAssign(stm)
	case *IfStatementAst:
		g.generateIf(stm, "")
	case *WhileStatementAst:
		out.writeLine("while (%s) {", g.expression(stm.Condition))
		g.generateBlockBody(stm.Body.Statements)
		out.writeLine("}")
	case *ForStatementAst:
		g.generateFor(stm)
	case *BreakStatementAst:
		out.writeLine("break;")
	case *ContinueStatementAst:
		out.writeLine("continue;")
	case *ReturnStatementAst:
		if stm.Value == nil {
			out.writeLine("return;")
			return
		}
		out.writeLine("return %s;", g.expression(stm.Value))
	case *DelayStatementAst:
		out.writeLine("delay(%s);", g.expression(stm.Duration))
	case *DelayUntilStatementAst:
		out.writeLine("while (!(%s)) {}", g.expression(stm.Condition))
	case *StartStatementAst:
		out.writeLine("%s = true;", runningFlag(g.table.Resolved(stm.Module).Name))
	case *StopStatementAst:
		out.writeLine("%s = false;", runningFlag(g.table.Resolved(stm.Module).Name))
	case *SetStatementAst:
		g.generateSet(stm)
	case *SleepStatementAst:
		out.writeLine("delay(%s);", g.expression(stm.Duration))
	case *USleepStatementAst:
		out.writeLine("delayMicroseconds(%s);", g.expression(stm.Duration))
	case *CallStatementAst:
		out.writeLine("%s;", g.expression(stm.Call))
	case *EveryStatementAst:
		// Timing is left to the loop cadence.
		out.writeLine("{")
		g.generateBlockBody(stm.Body.Statements)
		out.writeLine("}")
	case *OnStatementAst:
		out.writeLine("if (%s) {", g.expression(stm.Condition))
		g.generateBlockBody(stm.Body.Statements)
		out.writeLine("}")
	default:
		internalError("unknown statement %T", stm)
	}
}

func (g *generator) generateLocalVarDeclare(decl *VarDeclareAst) {
	ident := g.table.Declared(decl)
	name := g.emittedName(ident)
	switch {
	case ident.Type.IsArray():
		g.out.writeLine("%s;", g.arrayDeclaration(decl, name))
	case decl.Value == nil:
		g.out.writeLine("%s;", cDeclarator(ident.Type, name, ""))
	default:
		g.out.writeLine("%s = %s;", cDeclarator(ident.Type, name, ""), g.expression(decl.Value))
	}
	if mode := pinModeOf(ident.Type); mode != "" && decl.Value != nil {
		g.out.writeLine("pinMode(%s, %s);", name, mode)
	}
}

func (g *generator) generateAssign(stm *AssignStatementAst) {
	target := g.emittedName(g.table.Resolved(stm.Target))
	if stm.Index != nil {
		target = fmt.Sprintf("%s[%s]", target, g.expression(stm.Index))
	}
	if _, isLiteral := stm.Value.(*ArrayLiteralAst); isLiteral {
		internalError("assigning an array literal to %s has no lowering", stm.Target.VarName)
	}
	value := g.expression(stm.Value)
	targetType := g.types.TypeOf(stm.Target)
	if stm.Index != nil {
		targetType = *targetType.Elem
	}
	if stm.Op == ModAssign && targetType.IsFloat() {
		g.out.writeLine("%s = fmod(%s, %s);", target, target, value)
		return
	}
	g.out.writeLine("%s %s %s;", target, stm.Op, value)
}

func (g *generator) generateIf(stm *IfStatementAst, lead string) {
	g.out.writeLine("%sif (%s) {", lead, g.expression(stm.Condition))
	g.generateBlockBody(stm.Then.Statements)
	switch elseStm := stm.Else.(type) {
	case nil:
		g.out.writeLine("}")
	case *IfStatementAst:
		g.generateIf(elseStm, "} else ")
	case *BlockAst:
		g.out.writeLine("} else {")
		g.generateBlockBody(elseStm.Statements)
		g.out.writeLine("}")
	default:
		internalError("unknown else branch %T", elseStm)
	}
}

// for i from lower to upper step s, upper is inclusive.
func (g *generator) generateFor(stm *ForStatementAst) {
	name := g.emittedName(g.table.Declared(stm))
	lower, upper := g.expression(stm.Lower), g.expression(stm.Upper)
	update := name + "++"
	if stm.Step != nil {
		update = fmt.Sprintf("%s += %s", name, g.expression(stm.Step))
	}
	g.out.writeLine("for (int %s = %s; %s <= %s; %s) {", name, lower, name, upper, update)
	g.generateBlockBody(stm.Body.Statements)
	g.out.writeLine("}")
}

func (g *generator) generateSet(stm *SetStatementAst) {
	pin, value := g.expression(stm.Pin), g.expression(stm.Value)
	if g.types.TypeOf(stm.Pin).IsAnalogPin() {
		g.out.writeLine("analogWrite(%s, %s);", pin, value)
		return
	}
	g.out.writeLine("digitalWrite(%s, (%s) ? HIGH : LOW);", pin, value)
}

var binaryOpCode = map[OpCode]string{
	AddOpTP:          "+",
	MinusOpTP:        "-",
	MultipleOpTP:     "*",
	DivideOpTP:       "/",
	ModOpTP:          "%",
	AndOpTP:          "&&",
	OrOpTP:           "||",
	LessOpTP:         "<",
	LessEqualOpTP:    "<=",
	GreaterOpTP:      ">",
	GreaterEqualOpTP: ">=",
	EqualOpTP:        "==",
	NotEqualOpTP:     "!=",
}

func (g *generator) generateExpression(expr ExpressionAst) {
	switch expr := expr.(type) {
	case *IntegerConstantAst:
		g.push(expr.Value)
	case *FloatConstantAst:
		g.push(expr.Value)
	case *StringConstantAst:
		g.push(`"` + expr.Value + `"`)
	case *BoolConstantAst:
		g.push(strconv.FormatBool(expr.Value))
	case *TimeConstantAst:
		g.push(strconv.FormatInt(TimeToMillis(expr.Value), 10))
	case *PinConstantAst:
		if expr.Analog {
			g.push("A" + expr.Number)
			return
		}
		g.push(expr.Number)
	case *VariableAst:
		g.push(g.emittedName(g.table.Resolved(expr)))
	case *BinaryExpressionAst:
		g.generateExpression(expr.Left)
		g.generateExpression(expr.Right)
		right, left := g.pop(), g.pop()
		g.push(g.lowerBinary(expr, left, right))
	case *UnaryExpressionAst:
		g.push(fmt.Sprintf("(%s%s)", expr.Op.Name, g.expression(expr.Operand)))
	case *CallAst:
		for _, param := range expr.Params {
			g.generateExpression(param)
		}
		args := g.popN(len(expr.Params))
		fn := g.types.CallTarget(expr)
		if fn.IsBuiltin() {
			g.usesSerial = g.usesSerial || fn.builtin.usesSerial
			g.push(fn.builtin.lower(args))
			return
		}
		g.push(fmt.Sprintf("%s(%s)", fn.Name, strings.Join(args, ", ")))
	case *IndexExpressionAst:
		g.generateExpression(expr.Array)
		g.generateExpression(expr.Index)
		index, array := g.pop(), g.pop()
		g.push(fmt.Sprintf("%s[%s]", array, index))
	case *ArrayLiteralAst:
		for _, element := range expr.Elements {
			g.generateExpression(element)
		}
		g.push("{" + strings.Join(g.popN(len(expr.Elements)), ", ") + "}")
	case *ReadExpressionAst:
		pin := g.expression(expr.Pin)
		if g.types.TypeOf(expr.Pin).IsAnalogPin() {
			g.push(fmt.Sprintf("analogRead(%s)", pin))
			return
		}
		g.push(fmt.Sprintf("(digitalRead(%s) == HIGH)", pin))
	default:
		internalError("unknown expression %T", expr)
	}
}

func (g *generator) lowerBinary(expr *BinaryExpressionAst, left, right string) string {
	leftType := g.types.TypeOf(expr.Left)
	switch {
	case expr.Op.Op == AddOpTP && g.types.TypeOf(expr).Kind == StringKind:
		return fmt.Sprintf("(String(%s) + %s)", left, right)
	case expr.Op.Op == ModOpTP && leftType.IsFloat():
		return fmt.Sprintf("fmod(%s, %s)", left, right)
	case (expr.Op.Op == EqualOpTP || expr.Op.Op == NotEqualOpTP) && leftType.Kind == StringKind:
		return fmt.Sprintf("(String(%s) %s %s)", left, binaryOpCode[expr.Op.Op], right)
	}
	op, ok := binaryOpCode[expr.Op.Op]
	if !ok {
		internalError("operator %s has no lowering", expr.Op)
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right)
}

var timeUnitMillis = map[string]int64{
	"h":  3600000,
	"m":  60000,
	"s":  1000,
	"ms": 1,
}

// maxTimeMillis is the largest value of an unsigned long on the target boards.
const maxTimeMillis = math.MaxUint32

// TimeToMillis converts a time literal such as "1.5s" to whole milliseconds, truncating any
// fraction of a millisecond.
func TimeToMillis(literal string) int64 {
	ms, ok := timeLiteralMillis(literal)
	if !ok {
		internalError("time literal %s cannot be lowered", literal)
	}
	return ms
}

// timeLiteralMillis reports false for an unknown unit or a value an unsigned long cannot hold.
func timeLiteralMillis(literal string) (int64, bool) {
	number, unit := util.SplitNumberPrefix(literal)
	multiplier, ok := timeUnitMillis[unit]
	if !ok {
		return 0, false
	}
	value, ok := new(big.Rat).SetString(number)
	if !ok {
		return 0, false
	}
	value.Mul(value, new(big.Rat).SetInt64(multiplier))
	ms := new(big.Int).Quo(value.Num(), value.Denom())
	if !ms.IsInt64() || ms.Int64() > maxTimeMillis {
		return 0, false
	}
	return ms.Int64(), true
}
