package internal

// An expression is parsed as a flat list of unary terms separated by binary operators, then folded
// into a tree by precedence climbing.

func buildExpressionsTree(ops []*OpAst, exprTerms []ExpressionAst) ExpressionAst {
	if len(ops) == 0 {
		return exprTerms[0]
	}
	expressionStack := make([]ExpressionAst, len(exprTerms))
	copy(expressionStack, exprTerms)
	ret, _ := buildExpressionsTree0(ops, expressionStack, 0, 0)
	return ret
}

// buildExpressionsTree0 folds ops[loc:] whose priority is at least minPriority. All binary
// operators are left associative.
func buildExpressionsTree0(ops []*OpAst, exprTerms []ExpressionAst, loc int, minPriority int) (ExpressionAst, int) {
	lhs := exprTerms[loc]
	i := loc
	for i < len(ops) && ops[i].priority >= minPriority {
		op := ops[i]
		rhs := exprTerms[i+1]
		j := i + 1
		for j < len(ops) && ops[j].priority > op.priority {
			rhs, j = buildExpressionsTree0(ops, exprTerms, j, ops[j].priority)
		}
		lhs = makeNewExpression(lhs, rhs, op)
		exprTerms[j] = lhs
		i = j
	}
	return lhs, i
}

func makeNewExpression(leftExpr ExpressionAst, rightExpr ExpressionAst, op *OpAst) *BinaryExpressionAst {
	return &BinaryExpressionAst{Pos: leftExpr.Position(), Op: op, Left: leftExpr, Right: rightExpr}
}

var binaryOpTokenMap = map[TokenType]*OpAst{
	OrTP:           &OrOpAst,
	AndTP:          &AndOpAst,
	EqualTP:        &EqualOpAst,
	NotEqualTP:     &NotEqualOpAst,
	LessTP:         &LessOpAst,
	LessEqualTP:    &LessEqualOpAst,
	GreaterTP:      &GreatOpAst,
	GreaterEqualTP: &GreatEqualOpAst,
	AddTP:          &AddOpAst,
	MinusTP:        &MinusOpAst,
	MultiplyTP:     &MultipleOpAst,
	DivideTP:       &DivideOpAst,
	ModTP:          &ModOpAst,
}

var unaryOpTokenMap = map[TokenType]*OpAst{
	MinusTP:           &NegationOpAst,
	AddTP:             &PlusOpAst,
	BooleanNegativeTP: &BooleanNegationOp,
}

func (parser *Parser) matchOp() (*OpAst, bool) {
	if !parser.hasRemainTokens() {
		return nil, false
	}
	op, ok := binaryOpTokenMap[parser.currentTokens[parser.currentTokenPos].tp]
	return op, ok
}

// parseArguments reads '(' (expr (',' expr)*)? ')'.
func (parser *Parser) parseArguments() (exprs []ExpressionAst, err error) {
	if _, match := parser.expectToken(LeftParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); match {
		return nil, nil
	}
	exprs, err = parser.parseExpressions()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	return exprs, nil
}

func (parser *Parser) parseExpressions() (exprs []ExpressionAst, err error) {
	for parser.hasRemainTokens() {
		expression, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expression)
		_, match := parser.expectToken(CommaTP, false)
		if !match {
			break
		}
		parser.stepForward()
	}
	return
}

func (parser *Parser) parseExpression() (ExpressionAst, error) {
	leftExprTerm, err := parser.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	var ops []*OpAst
	exprTerms := []ExpressionAst{leftExprTerm}
	for {
		op, match := parser.matchOp()
		if !match {
			break
		}
		parser.stepForward()
		exprTerm, err := parser.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		exprTerms = append(exprTerms, exprTerm)
	}
	return buildExpressionsTree(ops, exprTerms), nil
}

func (parser *Parser) parseUnaryExpression() (ExpressionAst, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	op, isUnary := unaryOpTokenMap[token.tp]
	if !isUnary {
		return parser.parsePostfixExpression()
	}
	parser.stepForward()
	operand, err := parser.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	return &UnaryExpressionAst{Pos: token.Pos(), Op: op, Operand: operand}, nil
}

// primary ('[' expr ']')*
func (parser *Parser) parsePostfixExpression() (ExpressionAst, error) {
	expr, err := parser.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}
	for {
		if _, match := parser.expectToken(LeftSquareBracketTP, true); !match {
			return expr, nil
		}
		index, err := parser.parseArrayIndexExpression()
		if err != nil {
			return nil, err
		}
		expr = &IndexExpressionAst{Pos: expr.Position(), Array: expr, Index: index}
	}
}

func (parser *Parser) parsePrimaryExpression() (ExpressionAst, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	pos := token.Pos()
	switch token.tp {
	case IntegerTP:
		parser.stepForward()
		return &IntegerConstantAst{Pos: pos, Value: token.content}, nil
	case FloatTP:
		parser.stepForward()
		return &FloatConstantAst{Pos: pos, Value: token.content}, nil
	case StringTP:
		parser.stepForward()
		return &StringConstantAst{Pos: pos, Value: token.content}, nil
	case TimeTP:
		parser.stepForward()
		return &TimeConstantAst{Pos: pos, Value: token.content}, nil
	case PinTP:
		parser.stepForward()
		return &PinConstantAst{Pos: pos, Analog: token.content[0] == 'A', Number: token.content[1:]}, nil
	case TrueTP, FalseTP:
		parser.stepForward()
		return &BoolConstantAst{Pos: pos, Value: token.tp == TrueTP}, nil
	case IdentifierTP:
		return parser.parseCallOrVarExpression()
	case ReadTP:
		parser.stepForward()
		args, err := parser.parseArguments()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, parser.makeErrorAt(pos)
		}
		return &ReadExpressionAst{Pos: pos, Pin: args[0]}, nil
	case LeftParentThesesTP:
		return parser.parseSubExpression()
	case LeftSquareBracketTP:
		return parser.parseArrayLiteral()
	}
	return nil, parser.makeError(true)
}

// Could be varName or funcName(args).
func (parser *Parser) parseCallOrVarExpression() (ExpressionAst, error) {
	nameToken, _ := parser.expectToken(IdentifierTP, true)
	if _, isCall := parser.expectToken(LeftParentThesesTP, false); !isCall {
		return &VariableAst{Pos: nameToken.Pos(), VarName: nameToken.content}, nil
	}
	args, err := parser.parseArguments()
	if err != nil {
		return nil, err
	}
	return &CallAst{Pos: nameToken.Pos(), FuncName: nameToken.content, Params: args}, nil
}

func (parser *Parser) parseSubExpression() (ExpressionAst, error) {
	parser.stepForward()
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	return expr, nil
}

// '[' expr (',' expr)* ']', the empty literal [] is accepted here and rejected by the type checker.
func (parser *Parser) parseArrayLiteral() (ExpressionAst, error) {
	leftBracket, _ := parser.expectToken(LeftSquareBracketTP, true)
	literal := &ArrayLiteralAst{Pos: leftBracket.Pos()}
	if _, match := parser.expectToken(RightSquareBracketTP, true); match {
		return literal, nil
	}
	elements, err := parser.parseExpressions()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightSquareBracketTP, true); !match {
		return nil, parser.makeError(true)
	}
	literal.Elements = elements
	return literal, nil
}
