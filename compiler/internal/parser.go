package internal

import (
	"io"
	"strings"
)

type Parser struct {
	currentTokenPos int
	currentTokens   []*Token
}

// Parse tokenizes and parses a whole tick source.
func Parse(rd io.Reader) (*ProgramAst, error) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(rd)
	if err != nil {
		return nil, err
	}
	parser := &Parser{currentTokens: tokens}
	return parser.ParseProgram()
}

// ParseString is Parse over an in-memory source.
func ParseString(source string) (*ProgramAst, error) {
	return Parse(strings.NewReader(source))
}

// program := item*
func (parser *Parser) ParseProgram() (*ProgramAst, error) {
	program := &ProgramAst{}
	for parser.hasRemainTokens() {
		item, err := parser.parseItem()
		if err != nil {
			return nil, err
		}
		program.Items = append(program.Items, item)
	}
	return program, nil
}

func (parser *Parser) parseItem() (ItemAst, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case TypeNameTP:
		return parser.parseVarOrFuncDeclaration()
	case TemplateTP:
		return parser.parseTemplateDeclaration()
	case ModuleTP:
		return parser.parseModuleDeclaration()
	case InitTP:
		parser.stepForward()
		body, err := parser.parseBlock()
		if err != nil {
			return nil, err
		}
		return &InitBlockAst{Pos: token.Pos(), Body: body}, nil
	case EveryTP:
		return parser.parseEveryStatement()
	case OnTP:
		return parser.parseOnStatement()
	}
	return nil, parser.makeError(true)
}

// Type IDENT ( '=' expr )? ';' or Type IDENT '(' params ')' block.
func (parser *Parser) parseVarOrFuncDeclaration() (ItemAst, error) {
	varType, err := parser.parseVariableType()
	if err != nil {
		return nil, err
	}
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	if _, isFunc := parser.expectToken(LeftParentThesesTP, false); !isFunc {
		return parser.parseVarDeclarationRest(varType, nameToken)
	}
	if varType.Size != nil {
		return nil, parser.makeErrorAt(varType.Size.Position())
	}
	params, err := parser.parseFuncParamList()
	if err != nil {
		return nil, err
	}
	body, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDeclareAst{
		Pos:      varType.Pos,
		ReturnTP: varType,
		FuncName: nameToken.content,
		Params:   params,
		Body:     body,
	}, nil
}

func (parser *Parser) parseVarDeclaration() (*VarDeclareAst, error) {
	varType, err := parser.parseVariableType()
	if err != nil {
		return nil, err
	}
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	return parser.parseVarDeclarationRest(varType, nameToken)
}

func (parser *Parser) parseVarDeclarationRest(varType *TypeAst, nameToken *Token) (*VarDeclareAst, error) {
	decl := &VarDeclareAst{Pos: varType.Pos, VarType: varType, VarName: nameToken.content}
	if _, match := parser.expectToken(AssignTP, true); match {
		value, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Value = value
	}
	if _, match := parser.expectToken(SemiColonTP, true); !match {
		return nil, parser.makeError(true)
	}
	return decl, nil
}

// Type := TypeName ( '[' expr? ']' )?
func (parser *Parser) parseVariableType() (*TypeAst, error) {
	token, match := parser.expectToken(TypeNameTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	typeAst := &TypeAst{Pos: token.Pos(), Kind: typeKeywords[token.content]}
	if _, match := parser.expectToken(LeftSquareBracketTP, true); !match {
		return typeAst, nil
	}
	typeAst.IsArray = true
	if _, match := parser.expectToken(RightSquareBracketTP, true); match {
		return typeAst, nil
	}
	size, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	typeAst.Size = size
	if _, match := parser.expectToken(RightSquareBracketTP, true); !match {
		return nil, parser.makeError(true)
	}
	return typeAst, nil
}

// '(' (Type IDENT (',' Type IDENT)*)? ')'
func (parser *Parser) parseFuncParamList() (params []*ParamAst, err error) {
	if _, match := parser.expectToken(LeftParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); match {
		return nil, nil
	}
	for {
		paramType, err := parser.parseVariableType()
		if err != nil {
			return nil, err
		}
		if paramType.Size != nil {
			return nil, parser.makeErrorAt(paramType.Size.Position())
		}
		nameToken, match := parser.expectToken(IdentifierTP, true)
		if !match {
			return nil, parser.makeError(true)
		}
		params = append(params, &ParamAst{Pos: paramType.Pos, ParamTP: paramType, ParamName: nameToken.content})
		if _, match := parser.expectToken(CommaTP, true); !match {
			break
		}
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	return params, nil
}

// template IDENT '(' params ')' block
func (parser *Parser) parseTemplateDeclaration() (*TemplateDeclareAst, error) {
	templateToken, _ := parser.expectToken(TemplateTP, true)
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	params, err := parser.parseFuncParamList()
	if err != nil {
		return nil, err
	}
	body, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	return &TemplateDeclareAst{
		Pos:          templateToken.Pos(),
		TemplateName: nameToken.content,
		Params:       params,
		Body:         body,
	}, nil
}

// module block
// module IDENT block
// module IDENT '=' IDENT '(' args ')' ';'
// module IDENT '(' args ')' ';'
func (parser *Parser) parseModuleDeclaration() (*ModuleDeclareAst, error) {
	moduleToken, _ := parser.expectToken(ModuleTP, true)
	module := &ModuleDeclareAst{Pos: moduleToken.Pos()}
	nameToken, named := parser.expectToken(IdentifierTP, true)
	if !named {
		body, err := parser.parseBlock()
		if err != nil {
			return nil, err
		}
		module.Body = body
		return module, nil
	}
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case LeftBraceTP:
		module.Name = nameToken.content
		module.Body, err = parser.parseBlock()
		if err != nil {
			return nil, err
		}
		return module, nil
	case AssignTP:
		parser.stepForward()
		templateToken, match := parser.expectToken(IdentifierTP, true)
		if !match {
			return nil, parser.makeError(true)
		}
		module.Name, module.Template = nameToken.content, templateToken.content
	case LeftParentThesesTP:
		module.Template = nameToken.content
	default:
		return nil, parser.makeError(true)
	}
	module.Args, err = parser.parseArguments()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(SemiColonTP, true); !match {
		return nil, parser.makeError(true)
	}
	return module, nil
}

// {
//    statements
// }
func (parser *Parser) parseBlock() (*BlockAst, error) {
	leftBrace, match := parser.expectToken(LeftBraceTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	block := &BlockAst{Pos: leftBrace.Pos()}
	for {
		if !parser.hasRemainTokens() {
			return nil, parser.makeError(false)
		}
		if _, match := parser.expectToken(RightBraceTP, true); match {
			return block, nil
		}
		stm, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stm)
	}
}

func (parser *Parser) parseStatement() (StatementAst, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case TypeNameTP:
		return parser.parseVarDeclaration()
	case IdentifierTP:
		return parser.parseAssignOrCallStatement()
	case IfTP:
		return parser.parseIfStatement()
	case WhileTP:
		return parser.parseWhileStatement()
	case ForTP:
		return parser.parseForStatement()
	case BreakTP:
		parser.stepForward()
		return &BreakStatementAst{Pos: token.Pos()}, parser.expectSemiColon()
	case ContinueTP:
		parser.stepForward()
		return &ContinueStatementAst{Pos: token.Pos()}, parser.expectSemiColon()
	case ReturnTP:
		return parser.parseReturnStatement()
	case LeftBraceTP:
		return parser.parseBlock()
	case DelayTP:
		return parser.parseDelayStatement()
	case StartTP, StopTP:
		return parser.parseStartOrStopStatement()
	case SetTP:
		return parser.parseSetStatement()
	case SleepTP, USleepTP:
		return parser.parseSleepStatement()
	case EveryTP:
		return parser.parseEveryStatement()
	case OnTP:
		return parser.parseOnStatement()
	}
	return nil, parser.makeError(true)
}

func (parser *Parser) expectSemiColon() error {
	if _, match := parser.expectToken(SemiColonTP, true); !match {
		return parser.makeError(true)
	}
	return nil
}

var assignOpTokenMap = map[TokenType]AssignOp{
	AssignTP:         PlainAssign,
	AddAssignTP:      AddAssign,
	MinusAssignTP:    MinusAssign,
	MultiplyAssignTP: MultipleAssign,
	DivideAssignTP:   DivideAssign,
	ModAssignTP:      ModAssign,
}

// IDENT ('[' expr ']')? op expr ';' or IDENT '(' args ')' ';'
func (parser *Parser) parseAssignOrCallStatement() (StatementAst, error) {
	nameToken, _ := parser.expectToken(IdentifierTP, true)
	if _, isCall := parser.expectToken(LeftParentThesesTP, false); isCall {
		args, err := parser.parseArguments()
		if err != nil {
			return nil, err
		}
		call := &CallAst{Pos: nameToken.Pos(), FuncName: nameToken.content, Params: args}
		return &CallStatementAst{Pos: nameToken.Pos(), Call: call}, parser.expectSemiColon()
	}
	stm := &AssignStatementAst{
		Pos:    nameToken.Pos(),
		Target: &VariableAst{Pos: nameToken.Pos(), VarName: nameToken.content},
	}
	if _, match := parser.expectToken(LeftSquareBracketTP, true); match {
		index, err := parser.parseArrayIndexExpression()
		if err != nil {
			return nil, err
		}
		stm.Index = index
	}
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	op, ok := assignOpTokenMap[token.tp]
	if !ok {
		return nil, parser.makeError(true)
	}
	parser.stepForward()
	stm.Op = op
	stm.Value, err = parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return stm, parser.expectSemiColon()
}

// The '[' is already consumed, reads expr ']'.
func (parser *Parser) parseArrayIndexExpression() (ExpressionAst, error) {
	index, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightSquareBracketTP, true); !match {
		return nil, parser.makeError(true)
	}
	return index, nil
}

// if expr block (else (if | block))?
func (parser *Parser) parseIfStatement() (*IfStatementAst, error) {
	ifToken, _ := parser.expectToken(IfTP, true)
	condition, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	stm := &IfStatementAst{Pos: ifToken.Pos(), Condition: condition, Then: then}
	if _, match := parser.expectToken(ElseTP, true); !match {
		return stm, nil
	}
	if _, match := parser.expectToken(IfTP, false); match {
		stm.Else, err = parser.parseIfStatement()
	} else {
		stm.Else, err = parser.parseBlock()
	}
	if err != nil {
		return nil, err
	}
	return stm, nil
}

func (parser *Parser) parseWhileStatement() (*WhileStatementAst, error) {
	whileToken, _ := parser.expectToken(WhileTP, true)
	condition, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStatementAst{Pos: whileToken.Pos(), Condition: condition, Body: body}, nil
}

// for IDENT from expr to expr (step expr)? block
func (parser *Parser) parseForStatement() (*ForStatementAst, error) {
	forToken, _ := parser.expectToken(ForTP, true)
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	stm := &ForStatementAst{Pos: forToken.Pos(), VarName: nameToken.content}
	var err error
	if _, match := parser.expectToken(FromTP, true); !match {
		return nil, parser.makeError(true)
	}
	if stm.Lower, err = parser.parseExpression(); err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(ToTP, true); !match {
		return nil, parser.makeError(true)
	}
	if stm.Upper, err = parser.parseExpression(); err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(StepTP, true); match {
		if stm.Step, err = parser.parseExpression(); err != nil {
			return nil, err
		}
	}
	if stm.Body, err = parser.parseBlock(); err != nil {
		return nil, err
	}
	return stm, nil
}

func (parser *Parser) parseReturnStatement() (*ReturnStatementAst, error) {
	returnToken, _ := parser.expectToken(ReturnTP, true)
	stm := &ReturnStatementAst{Pos: returnToken.Pos()}
	if _, match := parser.expectToken(SemiColonTP, true); match {
		return stm, nil
	}
	value, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	stm.Value = value
	return stm, parser.expectSemiColon()
}

// delay expr ';' or delay until expr ';'
func (parser *Parser) parseDelayStatement() (StatementAst, error) {
	delayToken, _ := parser.expectToken(DelayTP, true)
	_, until := parser.expectToken(UntilTP, true)
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if until {
		return &DelayUntilStatementAst{Pos: delayToken.Pos(), Condition: expr}, parser.expectSemiColon()
	}
	return &DelayStatementAst{Pos: delayToken.Pos(), Duration: expr}, parser.expectSemiColon()
}

func (parser *Parser) parseStartOrStopStatement() (StatementAst, error) {
	token, _ := parser.getCurrentToken()
	parser.stepForward()
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	module := &VariableAst{Pos: nameToken.Pos(), VarName: nameToken.content}
	if token.tp == StartTP {
		return &StartStatementAst{Pos: token.Pos(), Module: module}, parser.expectSemiColon()
	}
	return &StopStatementAst{Pos: token.Pos(), Module: module}, parser.expectSemiColon()
}

// set '(' expr ',' expr ')' ';'
func (parser *Parser) parseSetStatement() (*SetStatementAst, error) {
	setToken, _ := parser.expectToken(SetTP, true)
	args, err := parser.parseArguments()
	if err != nil {
		return nil, err
	}
	if len(args) != 2 {
		return nil, parser.makeErrorAt(setToken.Pos())
	}
	return &SetStatementAst{Pos: setToken.Pos(), Pin: args[0], Value: args[1]}, parser.expectSemiColon()
}

func (parser *Parser) parseSleepStatement() (StatementAst, error) {
	token, _ := parser.getCurrentToken()
	parser.stepForward()
	duration, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if token.tp == SleepTP {
		return &SleepStatementAst{Pos: token.Pos(), Duration: duration}, parser.expectSemiColon()
	}
	return &USleepStatementAst{Pos: token.Pos(), Duration: duration}, parser.expectSemiColon()
}

func (parser *Parser) parseEveryStatement() (*EveryStatementAst, error) {
	everyToken, _ := parser.expectToken(EveryTP, true)
	period, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	return &EveryStatementAst{Pos: everyToken.Pos(), Period: period, Body: body}, nil
}

func (parser *Parser) parseOnStatement() (*OnStatementAst, error) {
	onToken, _ := parser.expectToken(OnTP, true)
	condition, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	return &OnStatementAst{Pos: onToken.Pos(), Condition: condition, Body: body}, nil
}

func (parser *Parser) getCurrentToken() (*Token, error) {
	if !parser.hasRemainTokens() {
		return nil, parser.makeError(true)
	}
	return parser.currentTokens[parser.currentTokenPos], nil
}

func (parser *Parser) stepForward() {
	parser.currentTokenPos++
}

func (parser *Parser) hasRemainTokens() bool {
	return parser.currentTokenPos < len(parser.currentTokens)
}

func (parser *Parser) expectToken(expectedTokenTp TokenType, walk bool) (*Token, bool) {
	if parser.currentTokenPos >= len(parser.currentTokens) || parser.currentTokens[parser.currentTokenPos].tp !=
		expectedTokenTp {
		return nil, false
	}
	token := parser.currentTokens[parser.currentTokenPos]
	if walk {
		parser.currentTokenPos++
	}
	return token, true
}

func (parser *Parser) makeError(useCurrentPos bool) error {
	currentPos := parser.currentTokenPos
	if !useCurrentPos {
		currentPos--
	}
	if currentPos < 0 || currentPos >= len(parser.currentTokens) {
		var pos Pos
		if len(parser.currentTokens) > 0 {
			pos = parser.currentTokens[len(parser.currentTokens)-1].Pos()
		}
		return newDiagnostic(SyntaxError, pos, "unexpected end of input")
	}
	currentToken := parser.currentTokens[currentPos]
	return newDiagnostic(SyntaxError, currentToken.Pos(), "syntax error near %s", currentToken.content)
}

func (parser *Parser) makeErrorAt(pos Pos) error {
	return newDiagnostic(SyntaxError, pos, "syntax error")
}
