package internal

import "strconv"

// symbolBuilder fills a SymbolTable in two passes over the program. The first pass registers every
// top-level name so that functions and templates can be used before their declaration, the second
// pass walks the bodies and resolves every use.
type symbolBuilder struct {
	table            *SymbolTable
	anonymousModules int
}

// BuildSymbolTable returns the symbol table of program or the first declaration error.
func BuildSymbolTable(program *ProgramAst) (*SymbolTable, error) {
	builder := &symbolBuilder{table: NewSymbolTable()}
	if err := builder.declareTopLevel(program); err != nil {
		return nil, err
	}
	for _, item := range program.Items {
		if err := builder.buildItem(item); err != nil {
			return nil, err
		}
	}
	builder.table.finish()
	return builder.table, nil
}

func (builder *symbolBuilder) declareTopLevel(program *ProgramAst) error {
	// Instances come first, so the order between modules does not matter.
	for _, item := range program.Items {
		if module, ok := item.(*ModuleDeclareAst); ok {
			if err := builder.declareInstance(module); err != nil {
				return err
			}
		}
	}
	for _, item := range program.Items {
		var err error
		switch item := item.(type) {
		case *VarDeclareAst:
			err = builder.declareVariable(item)
		case *FuncDeclareAst:
			err = builder.declareFunction(item)
		case *TemplateDeclareAst:
			err = builder.declareTemplate(item)
		}
		if err != nil {
			return err
		}
	}
	for _, item := range program.Items {
		module, ok := item.(*ModuleDeclareAst)
		if !ok || !module.IsTemplateInstance() {
			continue
		}
		if builder.table.LookUpTemplate(module.Template) == nil {
			return newDiagnostic(DeclarationError, module.Pos, "identifier %s not declared", module.Template)
		}
	}
	return nil
}

func (builder *symbolBuilder) declareInstance(module *ModuleDeclareAst) error {
	name := module.Name
	if name == "" {
		name = strconv.Itoa(builder.anonymousModules)
		builder.anonymousModules++
	}
	ident, err := builder.table.declare(name, ModuleType, module.Pos)
	if err != nil {
		return err
	}
	ident.Prefix, ident.Initialized = "", true
	builder.table.declarations[module] = ident
	return builder.table.addInstance(module, name)
}

func (builder *symbolBuilder) declareVariable(decl *VarDeclareAst) error {
	ident, err := builder.table.declare(decl.VarName, decl.VarType.Type(), decl.Pos)
	if err != nil {
		return err
	}
	builder.table.declarations[decl] = ident
	return nil
}

func (builder *symbolBuilder) declareParams(params []*ParamAst) error {
	for _, param := range params {
		ident, err := builder.table.declare(param.ParamName, param.ParamTP.Type(), param.Pos)
		if err != nil {
			return err
		}
		ident.Initialized = true
		builder.table.declarations[param] = ident
	}
	return nil
}

func paramTypes(params []*ParamAst) []Type {
	ret := make([]Type, 0, len(params))
	for _, param := range params {
		ret = append(ret, param.ParamTP.Type())
	}
	return ret
}

func (builder *symbolBuilder) declareFunction(decl *FuncDeclareAst) error {
	if isReservedFuncName(decl.FuncName) {
		return newDiagnostic(DeclarationError, decl.Pos, "identifier %s already declared", decl.FuncName)
	}
	if err := checkName(decl.FuncName, decl.Pos, true); err != nil {
		return err
	}
	builder.table.openScope(FunctionScope, decl, "")
	err := builder.declareParams(decl.Params)
	builder.table.closeScope()
	if err != nil {
		return err
	}
	fn := &FuncSymbol{
		Name:     decl.FuncName,
		Params:   paramTypes(decl.Params),
		ReturnTP: decl.ReturnTP.Type(),
		Decl:     decl,
	}
	return builder.table.addFunction(fn, decl.Pos)
}

func (builder *symbolBuilder) declareTemplate(decl *TemplateDeclareAst) error {
	if err := checkName(decl.TemplateName, decl.Pos, false); err != nil {
		return err
	}
	builder.table.openScope(TemplateScope, decl, templatePrefix(decl.TemplateName))
	err := builder.declareParams(decl.Params)
	builder.table.closeScope()
	if err != nil {
		return err
	}
	return builder.table.addTemplate(&TemplateSymbol{
		Name:   decl.TemplateName,
		Params: paramTypes(decl.Params),
		Decl:   decl,
	})
}

func (builder *symbolBuilder) buildItem(item ItemAst) error {
	switch item := item.(type) {
	case *VarDeclareAst:
		// Globals were declared by the first pass.
		return builder.resolveVarDeclare(item)
	case *FuncDeclareAst:
		builder.table.enter(item)
		defer builder.table.leave()
		return builder.buildStatements(item.Body.Statements)
	case *TemplateDeclareAst:
		builder.table.enter(item)
		defer builder.table.leave()
		return builder.buildStatements(item.Body.Statements)
	case *ModuleDeclareAst:
		if item.IsTemplateInstance() {
			return builder.resolveExpressions(item.Args...)
		}
		builder.table.openScope(ModuleScope, item, modulePrefix(builder.table.InstanceName(item)))
		defer builder.table.closeScope()
		return builder.buildStatements(item.Body.Statements)
	case *InitBlockAst:
		return builder.buildStatement(item.Body)
	case *EveryStatementAst:
		return builder.buildStatement(item)
	case *OnStatementAst:
		return builder.buildStatement(item)
	}
	internalError("unknown item %T", item)
	return nil
}

func (builder *symbolBuilder) resolveVarDeclare(decl *VarDeclareAst) error {
	if decl.VarType.Size != nil {
		if err := builder.resolveExpression(decl.VarType.Size); err != nil {
			return err
		}
	}
	if decl.Value != nil {
		return builder.resolveExpression(decl.Value)
	}
	return nil
}

func (builder *symbolBuilder) buildStatements(statements []StatementAst) error {
	for _, stm := range statements {
		if err := builder.buildStatement(stm); err != nil {
			return err
		}
	}
	return nil
}

func (builder *symbolBuilder) buildStatement(stm StatementAst) error {
	switch stm := stm.(type) {
	case *VarDeclareAst:
		// The initializer cannot see the variable it initializes.
		if err := builder.resolveVarDeclare(stm); err != nil {
			return err
		}
		return builder.declareVariable(stm)
	case *BlockAst:
		builder.table.openScope(BlockScope, stm, "")
		defer builder.table.closeScope()
		return builder.buildStatements(stm.Statements)
	case *AssignStatementAst:
		if _, err := builder.table.resolve(stm.Target); err != nil {
			return err
		}
		if stm.Index != nil {
			if err := builder.resolveExpression(stm.Index); err != nil {
				return err
			}
		}
		return builder.resolveExpression(stm.Value)
	case *IfStatementAst:
		if err := builder.resolveExpression(stm.Condition); err != nil {
			return err
		}
		if err := builder.buildStatement(stm.Then); err != nil {
			return err
		}
		if stm.Else != nil {
			return builder.buildStatement(stm.Else)
		}
		return nil
	case *WhileStatementAst:
		if err := builder.resolveExpression(stm.Condition); err != nil {
			return err
		}
		return builder.buildStatement(stm.Body)
	case *ForStatementAst:
		return builder.buildForStatement(stm)
	case *BreakStatementAst, *ContinueStatementAst:
		return nil
	case *ReturnStatementAst:
		if stm.Value == nil {
			return nil
		}
		return builder.resolveExpression(stm.Value)
	case *DelayStatementAst:
		return builder.resolveExpression(stm.Duration)
	case *DelayUntilStatementAst:
		return builder.resolveExpression(stm.Condition)
	case *StartStatementAst:
		_, err := builder.table.resolve(stm.Module)
		return err
	case *StopStatementAst:
		_, err := builder.table.resolve(stm.Module)
		return err
	case *SetStatementAst:
		return builder.resolveExpressions(stm.Pin, stm.Value)
	case *SleepStatementAst:
		return builder.resolveExpression(stm.Duration)
	case *USleepStatementAst:
		return builder.resolveExpression(stm.Duration)
	case *CallStatementAst:
		return builder.resolveExpression(stm.Call)
	case *EveryStatementAst:
		if err := builder.resolveExpression(stm.Period); err != nil {
			return err
		}
		return builder.buildStatement(stm.Body)
	case *OnStatementAst:
		if err := builder.resolveExpression(stm.Condition); err != nil {
			return err
		}
		return builder.buildStatement(stm.Body)
	}
	internalError("unknown statement %T", stm)
	return nil
}

// The loop variable lives in its own scope together with the statements of the body.
func (builder *symbolBuilder) buildForStatement(stm *ForStatementAst) error {
	if err := builder.resolveExpressions(stm.Lower, stm.Upper); err != nil {
		return err
	}
	if stm.Step != nil {
		if err := builder.resolveExpression(stm.Step); err != nil {
			return err
		}
	}
	builder.table.openScope(ForScope, stm, "")
	defer builder.table.closeScope()
	ident, err := builder.table.declare(stm.VarName, IntType, stm.Pos)
	if err != nil {
		return err
	}
	ident.Initialized = true
	builder.table.declarations[stm] = ident
	return builder.buildStatements(stm.Body.Statements)
}

func (builder *symbolBuilder) resolveExpressions(exprs ...ExpressionAst) error {
	for _, expr := range exprs {
		if err := builder.resolveExpression(expr); err != nil {
			return err
		}
	}
	return nil
}

func (builder *symbolBuilder) resolveExpression(expr ExpressionAst) error {
	switch expr := expr.(type) {
	case *IntegerConstantAst, *FloatConstantAst, *StringConstantAst, *BoolConstantAst, *TimeConstantAst,
		*PinConstantAst:
		return nil
	case *VariableAst:
		_, err := builder.table.resolve(expr)
		return err
	case *BinaryExpressionAst:
		return builder.resolveExpressions(expr.Left, expr.Right)
	case *UnaryExpressionAst:
		return builder.resolveExpression(expr.Operand)
	case *CallAst:
		if !builder.table.hasFunction(expr.FuncName) {
			return newDiagnostic(DeclarationError, expr.Pos, "identifier %s used before declaration", expr.FuncName)
		}
		return builder.resolveExpressions(expr.Params...)
	case *IndexExpressionAst:
		return builder.resolveExpressions(expr.Array, expr.Index)
	case *ArrayLiteralAst:
		return builder.resolveExpressions(expr.Elements...)
	case *ReadExpressionAst:
		return builder.resolveExpression(expr.Pin)
	}
	internalError("unknown expression %T", expr)
	return nil
}
