package internal

// TypeTable holds the type of every expression and declaration of a checked program.
type TypeTable struct {
	types map[Node]Type
	calls map[*CallAst]*FuncSymbol
}

func newTypeTable() *TypeTable {
	return &TypeTable{types: map[Node]Type{}, calls: map[*CallAst]*FuncSymbol{}}
}

func (table *TypeTable) set(node Node, tp Type) {
	if _, ok := table.types[node]; ok {
		internalError("node at %d:%d typed twice", node.Position().Line, node.Position().Col)
	}
	table.types[node] = tp
}

// Lookup returns the type recorded for node.
func (table *TypeTable) Lookup(node Node) (Type, bool) {
	tp, ok := table.types[node]
	return tp, ok
}

func (table *TypeTable) TypeOf(node Node) Type {
	tp, ok := table.types[node]
	if !ok {
		internalError("node %T at %d:%d has no type", node, node.Position().Line, node.Position().Col)
	}
	return tp
}

// CallTarget returns the overload a call was resolved to.
func (table *TypeTable) CallTarget(call *CallAst) *FuncSymbol {
	fn, ok := table.calls[call]
	if !ok {
		internalError("call of %s at %d:%d was never resolved", call.FuncName, call.Line, call.Col)
	}
	return fn
}

// typeChecker computes types bottom up. Every expression pushes its type on the stack once its
// operands are checked, compound expressions pop their operands first.
type typeChecker struct {
	table       *SymbolTable
	types       *TypeTable
	stack       []Type
	currentFunc *FuncSymbol
}

// CheckTypes type checks program, table must come from BuildSymbolTable on the same program.
func CheckTypes(program *ProgramAst, table *SymbolTable) (*TypeTable, error) {
	checker := &typeChecker{table: table, types: newTypeTable()}
	for _, item := range program.Items {
		if err := checker.checkItem(item); err != nil {
			return nil, err
		}
	}
	if len(checker.stack) != 0 {
		internalError("%d types left on the evaluation stack", len(checker.stack))
	}
	table.finish()
	return checker.types, nil
}

func (checker *typeChecker) push(tp Type) {
	checker.stack = append(checker.stack, tp)
}

func (checker *typeChecker) pop() Type {
	if len(checker.stack) == 0 {
		internalError("evaluation stack underflow")
	}
	tp := checker.stack[len(checker.stack)-1]
	checker.stack = checker.stack[:len(checker.stack)-1]
	return tp
}

// popN pops n types and returns them in the order they were pushed.
func (checker *typeChecker) popN(n int) []Type {
	ret := make([]Type, n)
	for i := n - 1; i >= 0; i-- {
		ret[i] = checker.pop()
	}
	return ret
}

// checkValue checks expr and pops its type.
func (checker *typeChecker) checkValue(expr ExpressionAst) (Type, error) {
	if err := checker.checkExpression(expr); err != nil {
		return Type{}, err
	}
	return checker.pop(), nil
}

func conversionError(pos Pos, format string, args ...interface{}) *Diagnostic {
	d := newDiagnostic(TypeError, pos, format, args...)
	d.Message = "illegal conversion: " + d.Message
	return d
}

func (checker *typeChecker) checkItem(item ItemAst) error {
	switch item := item.(type) {
	case *VarDeclareAst:
		return checker.checkVarDeclare(item)
	case *FuncDeclareAst:
		return checker.checkFuncDeclare(item)
	case *TemplateDeclareAst:
		checker.table.enter(item)
		defer checker.table.leave()
		checker.recordParams(item.Params)
		return checker.checkStatements(item.Body.Statements)
	case *ModuleDeclareAst:
		if item.IsTemplateInstance() {
			return checker.checkInstantiation(item)
		}
		checker.table.enter(item)
		defer checker.table.leave()
		return checker.checkStatements(item.Body.Statements)
	case *InitBlockAst:
		return checker.checkStatement(item.Body)
	case *EveryStatementAst:
		return checker.checkStatement(item)
	case *OnStatementAst:
		return checker.checkStatement(item)
	}
	internalError("unknown item %T", item)
	return nil
}

func (checker *typeChecker) recordParams(params []*ParamAst) {
	for _, param := range params {
		checker.types.set(param, checker.table.Declared(param).Type)
	}
}

func (checker *typeChecker) checkFuncDeclare(decl *FuncDeclareAst) error {
	fn := checker.table.functionOf(decl)
	checker.currentFunc = fn
	defer func() { checker.currentFunc = nil }()
	checker.table.enter(decl)
	defer checker.table.leave()
	checker.recordParams(decl.Params)
	if err := checker.checkStatements(decl.Body.Statements); err != nil {
		return err
	}
	if fn.ReturnTP.Kind != VoidKind && !alwaysReturns(decl.Body.Statements) {
		return newDiagnostic(TypeError, decl.Pos, "function %s may finish without returning", decl.FuncName)
	}
	return nil
}

// alwaysReturns reports whether every path through statements ends with a return.
func alwaysReturns(statements []StatementAst) bool {
	for _, stm := range statements {
		switch stm := stm.(type) {
		case *ReturnStatementAst:
			return true
		case *BlockAst:
			if alwaysReturns(stm.Statements) {
				return true
			}
		case *IfStatementAst:
			if stm.Else != nil && alwaysReturns(stm.Then.Statements) &&
				alwaysReturns([]StatementAst{stm.Else}) {
				return true
			}
		}
	}
	return false
}

func (checker *typeChecker) checkInstantiation(module *ModuleDeclareAst) error {
	for _, arg := range module.Args {
		if err := checker.checkExpression(arg); err != nil {
			return err
		}
	}
	args := checker.popN(len(module.Args))
	template := checker.table.LookUpTemplate(module.Template)
	if template == nil {
		return newDiagnostic(TypeError, module.Pos, "identifier %s not declared", module.Template)
	}
	if len(template.Params) != len(args) {
		return conversionError(module.Pos, "template %s expects (%s) but got (%s)", template.Name,
			typesString(template.Params), typesString(args))
	}
	for i, param := range template.Params {
		if !param.Equal(args[i]) {
			return conversionError(module.Args[i].Position(), "template %s expects (%s) but got (%s)",
				template.Name, typesString(template.Params), typesString(args))
		}
	}
	return nil
}

func (checker *typeChecker) checkVarDeclare(decl *VarDeclareAst) error {
	declared := decl.VarType.Type()
	checker.types.set(decl, declared)
	if declared.Kind == VoidKind {
		return conversionError(decl.Pos, "variable %s cannot be Void", decl.VarName)
	}
	if decl.VarType.Size != nil {
		size, err := checker.checkValue(decl.VarType.Size)
		if err != nil {
			return err
		}
		if !size.IsInt() {
			return conversionError(decl.VarType.Size.Position(), "array size must be Int, got %s", size)
		}
	}
	if declared.IsArray() && decl.VarType.Size == nil && decl.Value == nil {
		return newDiagnostic(TypeError, decl.Pos, "array initialization error: %s has neither a size nor a value",
			decl.VarName)
	}
	if decl.Value == nil {
		return nil
	}
	value, err := checker.checkValue(decl.Value)
	if err != nil {
		return err
	}
	if !declared.Equal(value) {
		return conversionError(decl.Value.Position(), "cannot initialize %s %s with %s", declared, decl.VarName, value)
	}
	return nil
}

func (checker *typeChecker) checkStatements(statements []StatementAst) error {
	for _, stm := range statements {
		if err := checker.checkStatement(stm); err != nil {
			return err
		}
	}
	return nil
}

func (checker *typeChecker) checkStatement(stm StatementAst) error {
	switch stm := stm.(type) {
	case *VarDeclareAst:
		return checker.checkVarDeclare(stm)
	case *BlockAst:
		checker.table.enter(stm)
		defer checker.table.leave()
		return checker.checkStatements(stm.Statements)
	case *AssignStatementAst:
		return checker.checkAssign(stm)
	case *IfStatementAst:
		if err := checker.checkCondition(stm.Condition, BoolType); err != nil {
			return err
		}
		if err := checker.checkStatement(stm.Then); err != nil {
			return err
		}
		if stm.Else != nil {
			return checker.checkStatement(stm.Else)
		}
		return nil
	case *WhileStatementAst:
		if err := checker.checkCondition(stm.Condition, BoolType); err != nil {
			return err
		}
		return checker.checkStatement(stm.Body)
	case *ForStatementAst:
		return checker.checkFor(stm)
	case *BreakStatementAst, *ContinueStatementAst:
		return nil
	case *ReturnStatementAst:
		return checker.checkReturn(stm)
	case *DelayStatementAst:
		return checker.checkCondition(stm.Duration, TimeType)
	case *DelayUntilStatementAst:
		return checker.checkCondition(stm.Condition, BoolType)
	case *StartStatementAst:
		return checker.checkModuleOperand(stm.Module)
	case *StopStatementAst:
		return checker.checkModuleOperand(stm.Module)
	case *SetStatementAst:
		return checker.checkSet(stm)
	case *SleepStatementAst:
		return checker.checkCondition(stm.Duration, TimeType)
	case *USleepStatementAst:
		return checker.checkCondition(stm.Duration, IntType)
	case *CallStatementAst:
		_, err := checker.checkValue(stm.Call)
		return err
	case *EveryStatementAst:
		if err := checker.checkCondition(stm.Period, TimeType); err != nil {
			return err
		}
		return checker.checkStatement(stm.Body)
	case *OnStatementAst:
		if err := checker.checkCondition(stm.Condition, BoolType); err != nil {
			return err
		}
		return checker.checkStatement(stm.Body)
	}
	internalError("unknown statement %T", stm)
	return nil
}

// checkCondition checks that expr has the family of expected.
func (checker *typeChecker) checkCondition(expr ExpressionAst, expected Type) error {
	tp, err := checker.checkValue(expr)
	if err != nil {
		return err
	}
	if !expected.Equal(tp) {
		return conversionError(expr.Position(), "expected %s, got %s", expected, tp)
	}
	return nil
}

func (checker *typeChecker) checkFor(stm *ForStatementAst) error {
	bounds := []ExpressionAst{stm.Lower, stm.Upper}
	if stm.Step != nil {
		bounds = append(bounds, stm.Step)
	}
	for _, bound := range bounds {
		if err := checker.checkCondition(bound, IntType); err != nil {
			return err
		}
	}
	checker.types.set(stm, IntType)
	checker.table.enter(stm)
	defer checker.table.leave()
	return checker.checkStatements(stm.Body.Statements)
}

func (checker *typeChecker) checkAssign(stm *AssignStatementAst) error {
	target := checker.table.Resolved(stm.Target).Type
	checker.types.set(stm.Target, target)
	if stm.Index != nil {
		index, err := checker.checkValue(stm.Index)
		if err != nil {
			return err
		}
		if !target.IsArray() || !index.IsInt() {
			return conversionError(stm.Pos, "cannot index %s with %s", target, index)
		}
		target = *target.Elem
	}
	value, err := checker.checkValue(stm.Value)
	if err != nil {
		return err
	}
	if stm.Op != PlainAssign {
		result, ok := lookUpBinaryRule(target, stm.Op.BinaryOp(), value)
		if !ok {
			return newDiagnostic(TypeError, stm.Pos, "incompatible operator %s between %s and %s", stm.Op, target,
				value)
		}
		value = result
	}
	compatible := target.Equal(value)
	if target.IsPin() {
		compatible = target.ExactEqual(value)
	}
	if !compatible {
		return conversionError(stm.Value.Position(), "cannot assign %s to %s of type %s", value,
			stm.Target.VarName, target)
	}
	return nil
}

func (checker *typeChecker) checkReturn(stm *ReturnStatementAst) error {
	returned := VoidType
	if stm.Value != nil {
		var err error
		if returned, err = checker.checkValue(stm.Value); err != nil {
			return err
		}
	}
	if checker.currentFunc == nil {
		internalError("return at %d:%d outside of a function", stm.Line, stm.Col)
	}
	if !checker.currentFunc.ReturnTP.Equal(returned) {
		return conversionError(stm.Pos, "function %s returns %s but %s is returned", checker.currentFunc.Name,
			checker.currentFunc.ReturnTP, returned)
	}
	return nil
}

func (checker *typeChecker) checkModuleOperand(module *VariableAst) error {
	tp, err := checker.checkValue(module)
	if err != nil {
		return err
	}
	if tp.Kind != ModuleKind {
		return conversionError(module.Pos, "%s is a %s, not a module", module.VarName, tp)
	}
	return nil
}

func (checker *typeChecker) checkSet(stm *SetStatementAst) error {
	pin, err := checker.checkValue(stm.Pin)
	if err != nil {
		return err
	}
	value, err := checker.checkValue(stm.Value)
	if err != nil {
		return err
	}
	if !pin.IsOutputCapable() {
		return conversionError(stm.Pin.Position(), "cannot write to %s", pin)
	}
	expected := BoolType
	if pin.IsAnalogPin() {
		expected = IntType
	}
	if !expected.Equal(value) {
		return conversionError(stm.Value.Position(), "cannot write %s to %s", value, pin)
	}
	return nil
}

func (checker *typeChecker) checkExpression(expr ExpressionAst) error {
	var result Type
	switch expr := expr.(type) {
	case *IntegerConstantAst:
		result = IntType
	case *FloatConstantAst:
		result = FloatType
	case *StringConstantAst:
		result = StringType
	case *BoolConstantAst:
		result = BoolType
	case *TimeConstantAst:
		if _, ok := timeLiteralMillis(expr.Value); !ok {
			return newDiagnostic(TypeError, expr.Pos, "time literal %s out of range", expr.Value)
		}
		result = TimeType
	case *PinConstantAst:
		result = DigitalPinType
		if expr.Analog {
			result = AnalogPinType
		}
	case *VariableAst:
		result = checker.table.Resolved(expr).Type
	case *BinaryExpressionAst:
		if err := checker.checkExpression(expr.Left); err != nil {
			return err
		}
		if err := checker.checkExpression(expr.Right); err != nil {
			return err
		}
		right, left := checker.pop(), checker.pop()
		tp, ok := lookUpBinaryRule(left, expr.Op.Op, right)
		if !ok {
			return newDiagnostic(TypeError, expr.Pos, "incompatible operator %s between %s and %s", expr.Op, left,
				right)
		}
		result = tp
	case *UnaryExpressionAst:
		operand, err := checker.checkValue(expr.Operand)
		if err != nil {
			return err
		}
		if !unaryAccepts(expr.Op.Op, operand) {
			return newDiagnostic(TypeError, expr.Pos, "incompatible operator %s for %s", expr.Op, operand)
		}
		result = operand
	case *CallAst:
		fn, err := checker.checkCall(expr)
		if err != nil {
			return err
		}
		result = fn.ReturnTP
	case *IndexExpressionAst:
		if err := checker.checkExpression(expr.Array); err != nil {
			return err
		}
		if err := checker.checkExpression(expr.Index); err != nil {
			return err
		}
		index, array := checker.pop(), checker.pop()
		if !array.IsArray() || !index.IsInt() {
			return conversionError(expr.Pos, "cannot index %s with %s", array, index)
		}
		result = *array.Elem
	case *ArrayLiteralAst:
		tp, err := checker.checkArrayLiteral(expr)
		if err != nil {
			return err
		}
		result = tp
	case *ReadExpressionAst:
		pin, err := checker.checkValue(expr.Pin)
		if err != nil {
			return err
		}
		if !pin.IsInputCapable() {
			return conversionError(expr.Pos, "cannot read from %s", pin)
		}
		result = BoolType
		if pin.IsAnalogPin() {
			result = IntType
		}
	default:
		internalError("unknown expression %T", expr)
	}
	checker.types.set(expr, result)
	checker.push(result)
	return nil
}

func unaryAccepts(op OpCode, operand Type) bool {
	if op == BooleanNegationOpTP {
		return operand.Kind == BoolKind
	}
	return operand.IsNumeric() || operand.Kind == TimeKind
}

func (checker *typeChecker) checkCall(call *CallAst) (*FuncSymbol, error) {
	for _, param := range call.Params {
		if err := checker.checkExpression(param); err != nil {
			return nil, err
		}
	}
	args := checker.popN(len(call.Params))
	fn := checker.table.LookUpFunction(call.FuncName, args)
	if fn == nil {
		if len(args) == 0 {
			return nil, newDiagnostic(TypeError, call.Pos, "identifier %s not declared without arguments",
				call.FuncName)
		}
		return nil, newDiagnostic(TypeError, call.Pos, "identifier %s not declared for arguments (%s)",
			call.FuncName, typesString(args))
	}
	checker.types.calls[call] = fn
	return fn, nil
}

// checkArrayLiteral compares every element against the first one. Mismatches are reported by their
// position counted from the end of the literal.
func (checker *typeChecker) checkArrayLiteral(literal *ArrayLiteralAst) (Type, error) {
	if len(literal.Elements) == 0 {
		return Type{}, newDiagnostic(TypeError, literal.Pos, "array initialization error: empty array literal")
	}
	for _, element := range literal.Elements {
		if err := checker.checkExpression(element); err != nil {
			return Type{}, err
		}
	}
	elements := checker.popN(len(literal.Elements))
	reference := elements[0]
	for i := len(elements) - 1; i > 0; i-- {
		if !reference.Equal(elements[i]) {
			return Type{}, conversionError(literal.Elements[i].Position(),
				"array element %d from the end is %s, expected %s", len(elements)-i, elements[i], reference)
		}
	}
	if reference.IsArray() {
		return Type{}, conversionError(literal.Pos, "nested arrays are not supported")
	}
	return ArrayOf(reference), nil
}
