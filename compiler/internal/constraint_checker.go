package internal

// constraintContext is the part of the traversal state that depends on where a statement sits.
type constraintContext struct {
	openLoops  int
	inFunction bool
	inModule   bool
}

type constraintChecker struct {
	table    *SymbolTable
	initSeen bool
}

// CheckConstraints verifies the rules that depend on the context of a statement: loop control,
// return placement, module only statements, the single init block and definite assignment.
func CheckConstraints(program *ProgramAst, table *SymbolTable) error {
	checker := &constraintChecker{table: table}
	for _, item := range program.Items {
		if err := checker.checkItem(item); err != nil {
			return err
		}
	}
	table.finish()
	return nil
}

func (checker *constraintChecker) checkItem(item ItemAst) error {
	switch item := item.(type) {
	case *VarDeclareAst:
		return checker.checkVarDeclare(item)
	case *FuncDeclareAst:
		checker.table.enter(item)
		defer checker.table.leave()
		return checker.checkStatements(constraintContext{inFunction: true}, item.Body.Statements)
	case *TemplateDeclareAst:
		checker.table.enter(item)
		defer checker.table.leave()
		return checker.checkStatements(constraintContext{inModule: true}, item.Body.Statements)
	case *ModuleDeclareAst:
		if item.IsTemplateInstance() {
			return checker.checkReads(item.Args...)
		}
		checker.table.enter(item)
		defer checker.table.leave()
		return checker.checkStatements(constraintContext{inModule: true}, item.Body.Statements)
	case *InitBlockAst:
		if checker.initSeen {
			return newDiagnostic(ContextError, item.Pos, "multiple init blocks declared")
		}
		checker.initSeen = true
		return checker.checkStatement(constraintContext{}, item.Body)
	case *EveryStatementAst:
		if err := checker.checkReads(item.Period); err != nil {
			return err
		}
		return checker.checkStatement(constraintContext{}, item.Body)
	case *OnStatementAst:
		if err := checker.checkReads(item.Condition); err != nil {
			return err
		}
		return checker.checkStatement(constraintContext{}, item.Body)
	}
	internalError("unknown item %T", item)
	return nil
}

func (checker *constraintChecker) checkVarDeclare(decl *VarDeclareAst) error {
	if decl.VarType.Size != nil {
		if err := checker.checkReads(decl.VarType.Size); err != nil {
			return err
		}
	}
	if decl.Value == nil {
		return nil
	}
	if err := checker.checkReads(decl.Value); err != nil {
		return err
	}
	checker.table.Declared(decl).Initialized = true
	return nil
}

func (checker *constraintChecker) checkStatements(ctx constraintContext, statements []StatementAst) error {
	for _, stm := range statements {
		if err := checker.checkStatement(ctx, stm); err != nil {
			return err
		}
	}
	return nil
}

func (checker *constraintChecker) checkStatement(ctx constraintContext, stm StatementAst) error {
	switch stm := stm.(type) {
	case *VarDeclareAst:
		return checker.checkVarDeclare(stm)
	case *BlockAst:
		checker.table.enter(stm)
		defer checker.table.leave()
		return checker.checkStatements(ctx, stm.Statements)
	case *AssignStatementAst:
		return checker.checkAssign(stm)
	case *IfStatementAst:
		if err := checker.checkReads(stm.Condition); err != nil {
			return err
		}
		if err := checker.checkStatement(ctx, stm.Then); err != nil {
			return err
		}
		if stm.Else != nil {
			return checker.checkStatement(ctx, stm.Else)
		}
		return nil
	case *WhileStatementAst:
		if err := checker.checkReads(stm.Condition); err != nil {
			return err
		}
		ctx.openLoops++
		return checker.checkStatement(ctx, stm.Body)
	case *ForStatementAst:
		if err := checker.checkReads(stm.Lower, stm.Upper); err != nil {
			return err
		}
		if stm.Step != nil {
			if err := checker.checkReads(stm.Step); err != nil {
				return err
			}
		}
		checker.table.enter(stm)
		defer checker.table.leave()
		ctx.openLoops++
		return checker.checkStatements(ctx, stm.Body.Statements)
	case *BreakStatementAst:
		if ctx.openLoops == 0 {
			return newDiagnostic(ContextError, stm.Pos, "attempted to break but was not inside a loop")
		}
		return nil
	case *ContinueStatementAst:
		if ctx.openLoops == 0 {
			return newDiagnostic(ContextError, stm.Pos, "attempted to continue but was not inside a loop")
		}
		return nil
	case *ReturnStatementAst:
		if !ctx.inFunction {
			return newDiagnostic(ContextError, stm.Pos, "return out of function declaration")
		}
		if stm.Value == nil {
			return nil
		}
		return checker.checkReads(stm.Value)
	case *DelayStatementAst:
		if err := checker.checkModuleOnly(ctx, stm.Pos); err != nil {
			return err
		}
		return checker.checkReads(stm.Duration)
	case *DelayUntilStatementAst:
		if err := checker.checkModuleOnly(ctx, stm.Pos); err != nil {
			return err
		}
		return checker.checkReads(stm.Condition)
	case *StartStatementAst:
		return checker.checkModuleOnly(ctx, stm.Pos)
	case *StopStatementAst:
		return checker.checkModuleOnly(ctx, stm.Pos)
	case *SetStatementAst:
		return checker.checkReads(stm.Pin, stm.Value)
	case *SleepStatementAst:
		return checker.checkReads(stm.Duration)
	case *USleepStatementAst:
		return checker.checkReads(stm.Duration)
	case *CallStatementAst:
		return checker.checkReads(stm.Call)
	case *EveryStatementAst:
		if err := checker.checkModuleOnly(ctx, stm.Pos); err != nil {
			return err
		}
		if err := checker.checkReads(stm.Period); err != nil {
			return err
		}
		return checker.checkStatement(ctx, stm.Body)
	case *OnStatementAst:
		if err := checker.checkModuleOnly(ctx, stm.Pos); err != nil {
			return err
		}
		if err := checker.checkReads(stm.Condition); err != nil {
			return err
		}
		return checker.checkStatement(ctx, stm.Body)
	}
	internalError("unknown statement %T", stm)
	return nil
}

func (checker *constraintChecker) checkModuleOnly(ctx constraintContext, pos Pos) error {
	if !ctx.inModule {
		return newDiagnostic(ContextError, pos, "statement only usable inside a module declaration")
	}
	return nil
}

// A plain assignment initializes its target, a compound one reads it first. Writing one element of
// an array counts as initializing the array.
func (checker *constraintChecker) checkAssign(stm *AssignStatementAst) error {
	if stm.Index != nil {
		if err := checker.checkReads(stm.Index); err != nil {
			return err
		}
	}
	if err := checker.checkReads(stm.Value); err != nil {
		return err
	}
	if stm.Op != PlainAssign {
		if err := checker.checkReads(stm.Target); err != nil {
			return err
		}
	}
	checker.table.Resolved(stm.Target).Initialized = true
	return nil
}

// checkReads verifies every variable read by exprs has been assigned.
func (checker *constraintChecker) checkReads(exprs ...ExpressionAst) error {
	for _, expr := range exprs {
		if err := checker.checkRead(expr); err != nil {
			return err
		}
	}
	return nil
}

func (checker *constraintChecker) checkRead(expr ExpressionAst) error {
	switch expr := expr.(type) {
	case *VariableAst:
		if !checker.table.Resolved(expr).Initialized {
			return newDiagnostic(DeclarationError, expr.Pos, "identifier %s used before being assigned", expr.VarName)
		}
		return nil
	case *BinaryExpressionAst:
		return checker.checkReads(expr.Left, expr.Right)
	case *UnaryExpressionAst:
		return checker.checkRead(expr.Operand)
	case *CallAst:
		return checker.checkReads(expr.Params...)
	case *IndexExpressionAst:
		return checker.checkReads(expr.Array, expr.Index)
	case *ArrayLiteralAst:
		return checker.checkReads(expr.Elements...)
	case *ReadExpressionAst:
		return checker.checkRead(expr.Pin)
	}
	return nil
}
