package internal

// In this file, we define the program tree of tick. A tick source file is a flat list of
// top-level items: global variables, functions, module templates, module instances, the init
// block and every/on handlers. Every stage walks the tree with type switches over these nodes.

// Pos is a 1-based source position. The zero Pos means the position is unknown.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsValid() bool {
	return p.Line > 0
}

type Node interface {
	Position() Pos
}

// ItemAst is a top-level item of a program.
type ItemAst interface {
	Node
	itemNode()
}

// StatementAst is a statement inside a block.
type StatementAst interface {
	Node
	statementNode()
}

// ExpressionAst is any expression. Expressions are the keys of the type table.
type ExpressionAst interface {
	Node
	expressionNode()
}

type ProgramAst struct {
	Items []ItemAst
}

type TypeAst struct {
	Pos
	Kind Kind
	// Set for array types: Int[] or Int[4].
	IsArray bool
	// Optional explicit array size.
	Size ExpressionAst
}

// Type returns the semantic type this type annotation denotes.
func (t *TypeAst) Type() Type {
	if t.IsArray {
		return ArrayOf(Type{Kind: t.Kind})
	}
	return Type{Kind: t.Kind}
}

type ParamAst struct {
	Pos
	ParamTP   *TypeAst
	ParamName string
}

// VarDeclareAst is a variable declaration, both at top level and inside blocks.
type VarDeclareAst struct {
	Pos
	VarType *TypeAst
	VarName string
	Value   ExpressionAst
}

type FuncDeclareAst struct {
	Pos
	ReturnTP *TypeAst
	FuncName string
	Params   []*ParamAst
	Body     *BlockAst
}

// TemplateDeclareAst is a reusable module: template Blinker(DigitalOutputPin led) { ... }.
type TemplateDeclareAst struct {
	Pos
	TemplateName string
	Params       []*ParamAst
	Body         *BlockAst
}

// ModuleDeclareAst is a module instance. It is either a direct module with its own Body, or an
// instantiation of Template with Args. Name is empty for anonymous instances.
type ModuleDeclareAst struct {
	Pos
	Name     string
	Template string
	Args     []ExpressionAst
	Body     *BlockAst
}

func (m *ModuleDeclareAst) IsTemplateInstance() bool {
	return m.Template != ""
}

type InitBlockAst struct {
	Pos
	Body *BlockAst
}

type EveryStatementAst struct {
	Pos
	Period ExpressionAst
	Body   *BlockAst
}

type OnStatementAst struct {
	Pos
	Condition ExpressionAst
	Body      *BlockAst
}

type BlockAst struct {
	Pos
	Statements []StatementAst
}

type AssignStatementAst struct {
	Pos
	Target *VariableAst
	// Index is set for a[i] = v.
	Index ExpressionAst
	Op    AssignOp
	Value ExpressionAst
}

type AssignOp int

const (
	PlainAssign AssignOp = iota
	AddAssign
	MinusAssign
	MultipleAssign
	DivideAssign
	ModAssign
)

var assignOpNames = map[AssignOp]string{
	PlainAssign:    "=",
	AddAssign:      "+=",
	MinusAssign:    "-=",
	MultipleAssign: "*=",
	DivideAssign:   "/=",
	ModAssign:      "%=",
}

func (op AssignOp) String() string {
	return assignOpNames[op]
}

// BinaryOp returns the arithmetic operator of a compound assignment.
func (op AssignOp) BinaryOp() OpCode {
	switch op {
	case AddAssign:
		return AddOpTP
	case MinusAssign:
		return MinusOpTP
	case MultipleAssign:
		return MultipleOpTP
	case DivideAssign:
		return DivideOpTP
	case ModAssign:
		return ModOpTP
	}
	return InvalidOpTP
}

type IfStatementAst struct {
	Pos
	Condition ExpressionAst
	Then      *BlockAst
	// Else is nil, a *BlockAst or an *IfStatementAst.
	Else StatementAst
}

type WhileStatementAst struct {
	Pos
	Condition ExpressionAst
	Body      *BlockAst
}

// ForStatementAst is for i from lower to upper [step s] { ... }, upper inclusive.
type ForStatementAst struct {
	Pos
	VarName string
	Lower   ExpressionAst
	Upper   ExpressionAst
	Step    ExpressionAst
	Body    *BlockAst
}

type BreakStatementAst struct {
	Pos
}

type ContinueStatementAst struct {
	Pos
}

type ReturnStatementAst struct {
	Pos
	Value ExpressionAst
}

type DelayStatementAst struct {
	Pos
	Duration ExpressionAst
}

type DelayUntilStatementAst struct {
	Pos
	Condition ExpressionAst
}

type StartStatementAst struct {
	Pos
	Module *VariableAst
}

type StopStatementAst struct {
	Pos
	Module *VariableAst
}

// SetStatementAst writes Value to Pin.
type SetStatementAst struct {
	Pos
	Pin   ExpressionAst
	Value ExpressionAst
}

type SleepStatementAst struct {
	Pos
	Duration ExpressionAst
}

type USleepStatementAst struct {
	Pos
	Duration ExpressionAst
}

type CallStatementAst struct {
	Pos
	Call *CallAst
}

// Expressions.

type IntegerConstantAst struct {
	Pos
	Value string
}

type FloatConstantAst struct {
	Pos
	Value string
}

type StringConstantAst struct {
	Pos
	Value string
}

type BoolConstantAst struct {
	Pos
	Value bool
}

// TimeConstantAst keeps the raw literal, e.g. "1000ms" or "1.5s".
type TimeConstantAst struct {
	Pos
	Value string
}

// PinConstantAst is D<n> or A<n>.
type PinConstantAst struct {
	Pos
	Analog bool
	Number string
}

// VariableAst is a use of a variable name.
type VariableAst struct {
	Pos
	VarName string
}

type BinaryExpressionAst struct {
	Pos
	Op    *OpAst
	Left  ExpressionAst
	Right ExpressionAst
}

type UnaryExpressionAst struct {
	Pos
	Op      *OpAst
	Operand ExpressionAst
}

type CallAst struct {
	Pos
	FuncName string
	Params   []ExpressionAst
}

type IndexExpressionAst struct {
	Pos
	Array ExpressionAst
	Index ExpressionAst
}

type ArrayLiteralAst struct {
	Pos
	Elements []ExpressionAst
}

type ReadExpressionAst struct {
	Pos
	Pin ExpressionAst
}

type OpAst struct {
	OpTP     OpType
	Op       OpCode
	priority int
	Name     string
}

func (op OpAst) String() string {
	return op.Name
}

type OpType int

const (
	UnaryOPTP OpType = iota
	BinaryOPTP
)

type OpCode int

const (
	InvalidOpTP OpCode = iota
	AddOpTP
	MinusOpTP
	MultipleOpTP
	DivideOpTP
	ModOpTP
	AndOpTP
	OrOpTP
	LessOpTP
	LessEqualOpTP
	GreaterOpTP
	GreaterEqualOpTP
	EqualOpTP
	NotEqualOpTP

	// Unary Op
	NegationOpTP
	PlusOpTP
	BooleanNegationOpTP
)

var (
	OrOpAst           = OpAst{OpTP: BinaryOPTP, Op: OrOpTP, priority: 1, Name: "||"}
	AndOpAst          = OpAst{OpTP: BinaryOPTP, Op: AndOpTP, priority: 2, Name: "&&"}
	EqualOpAst        = OpAst{OpTP: BinaryOPTP, Op: EqualOpTP, priority: 3, Name: "=="}
	NotEqualOpAst     = OpAst{OpTP: BinaryOPTP, Op: NotEqualOpTP, priority: 3, Name: "!="}
	LessOpAst         = OpAst{OpTP: BinaryOPTP, Op: LessOpTP, priority: 4, Name: "<"}
	LessEqualOpAst    = OpAst{OpTP: BinaryOPTP, Op: LessEqualOpTP, priority: 4, Name: "<="}
	GreatOpAst        = OpAst{OpTP: BinaryOPTP, Op: GreaterOpTP, priority: 4, Name: ">"}
	GreatEqualOpAst   = OpAst{OpTP: BinaryOPTP, Op: GreaterEqualOpTP, priority: 4, Name: ">="}
	AddOpAst          = OpAst{OpTP: BinaryOPTP, Op: AddOpTP, priority: 5, Name: "+"}
	MinusOpAst        = OpAst{OpTP: BinaryOPTP, Op: MinusOpTP, priority: 5, Name: "-"}
	MultipleOpAst     = OpAst{OpTP: BinaryOPTP, Op: MultipleOpTP, priority: 6, Name: "*"}
	DivideOpAst       = OpAst{OpTP: BinaryOPTP, Op: DivideOpTP, priority: 6, Name: "/"}
	ModOpAst          = OpAst{OpTP: BinaryOPTP, Op: ModOpTP, priority: 6, Name: "%"}
	NegationOpAst     = OpAst{OpTP: UnaryOPTP, Op: NegationOpTP, Name: "-"}
	PlusOpAst         = OpAst{OpTP: UnaryOPTP, Op: PlusOpTP, Name: "+"}
	BooleanNegationOp = OpAst{OpTP: UnaryOPTP, Op: BooleanNegationOpTP, Name: "!"}
)

func (p Pos) Position() Pos { return p }

func (*VarDeclareAst) itemNode()      {}
func (*FuncDeclareAst) itemNode()     {}
func (*TemplateDeclareAst) itemNode() {}
func (*ModuleDeclareAst) itemNode()   {}
func (*InitBlockAst) itemNode()       {}
func (*EveryStatementAst) itemNode()  {}
func (*OnStatementAst) itemNode()     {}

func (*VarDeclareAst) statementNode()          {}
func (*EveryStatementAst) statementNode()      {}
func (*OnStatementAst) statementNode()         {}
func (*BlockAst) statementNode()               {}
func (*AssignStatementAst) statementNode()     {}
func (*IfStatementAst) statementNode()         {}
func (*WhileStatementAst) statementNode()      {}
func (*ForStatementAst) statementNode()        {}
func (*BreakStatementAst) statementNode()      {}
func (*ContinueStatementAst) statementNode()   {}
func (*ReturnStatementAst) statementNode()     {}
func (*DelayStatementAst) statementNode()      {}
func (*DelayUntilStatementAst) statementNode() {}
func (*StartStatementAst) statementNode()      {}
func (*StopStatementAst) statementNode()       {}
func (*SetStatementAst) statementNode()        {}
func (*SleepStatementAst) statementNode()      {}
func (*USleepStatementAst) statementNode()     {}
func (*CallStatementAst) statementNode()       {}

func (*IntegerConstantAst) expressionNode()  {}
func (*FloatConstantAst) expressionNode()    {}
func (*StringConstantAst) expressionNode()   {}
func (*BoolConstantAst) expressionNode()     {}
func (*TimeConstantAst) expressionNode()     {}
func (*PinConstantAst) expressionNode()      {}
func (*VariableAst) expressionNode()         {}
func (*BinaryExpressionAst) expressionNode() {}
func (*UnaryExpressionAst) expressionNode()  {}
func (*CallAst) expressionNode()             {}
func (*IndexExpressionAst) expressionNode()  {}
func (*ArrayLiteralAst) expressionNode()     {}
func (*ReadExpressionAst) expressionNode()   {}
