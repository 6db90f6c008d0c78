package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestSymbolTable(t *testing.T, source string) (*ProgramAst, *SymbolTable, error) {
	program, err := ParseString(source)
	require.Nil(t, err, source)
	table, err := BuildSymbolTable(program)
	return program, table, err
}

func TestBuildSymbolTable_ForwardReferences(t *testing.T) {
	source := `
every 1s { Int x = twice(2); }
Int twice(Int a) { return a * 2; }
module left = Blinker(D12);
template Blinker(DigitalOutputPin led) { every 1s { set(led, true); } }
module Ticker { start left; }
`
	_, table, err := buildTestSymbolTable(t, source)
	assert.Nil(t, err)
	assert.Equal(t, ScopeID(0), table.CurrentScope())
	template, ok := table.InstanceTemplate("left")
	assert.True(t, ok)
	assert.Equal(t, "Blinker", template)
}

func TestBuildSymbolTable_Errors(t *testing.T) {
	testData := []struct {
		Content string
		Message string
		Pos     Pos
	}{
		{Content: "Int a; Int a;", Message: "identifier a already declared", Pos: Pos{Line: 1, Col: 8}},
		{Content: "every 1s { Int b = c; }", Message: "identifier c used before declaration", Pos: Pos{Line: 1, Col: 20}},
		{Content: "every 1s { foo(); }", Message: "identifier foo used before declaration", Pos: Pos{Line: 1, Col: 12}},
		{Content: "module m = Missing();", Message: "identifier Missing not declared", Pos: Pos{Line: 1, Col: 1}},
		{
			Content: "Int f(Int a) { return a; }\nInt f(Int b) { return b; }",
			Message: "identifier f already declared",
			Pos:     Pos{Line: 2, Col: 1},
		},
		{Content: "Int f(Int a, Int a) { return a; }", Message: "identifier a already declared", Pos: Pos{Line: 1, Col: 14}},
		{Content: "Int print(Int a) { return a; }", Message: "identifier print already declared", Pos: Pos{Line: 1, Col: 1}},
		{Content: "Int setup() { return 1; }", Message: "identifier setup already declared", Pos: Pos{Line: 1, Col: 1}},
		{Content: "module m { } Int m;", Message: "identifier m already declared", Pos: Pos{Line: 1, Col: 14}},
		{Content: "module m { } module m { }", Message: "identifier m already declared", Pos: Pos{Line: 1, Col: 14}},
		{
			Content: "template T() { } template T() { }",
			Message: "identifier T already declared",
			Pos:     Pos{Line: 1, Col: 18},
		},
		{Content: "every 1s { Int x = x; }", Message: "identifier x used before declaration", Pos: Pos{Line: 1, Col: 20}},
		{Content: "every 1s { { Int y = 1; } y = 2; }", Message: "identifier y used before declaration", Pos: Pos{Line: 1, Col: 27}},
		{Content: "every 1s { for i from 0 to 3 { } i = 1; }", Message: "identifier i used before declaration", Pos: Pos{Line: 1, Col: 34}},
		{Content: "every 1s { stop nothing; }", Message: "identifier nothing used before declaration", Pos: Pos{Line: 1, Col: 17}},
		{
			Content: "template T(Int p) { Int p = 1; }",
			Message: "identifier p already declared",
			Pos:     Pos{Line: 1, Col: 21},
		},
		{Content: "Int a__b = 1;", Message: `identifier a__b must not contain "__" or end with "_"`, Pos: Pos{Line: 1, Col: 1}},
		{Content: "module g_ { }", Message: `identifier g_ must not contain "__" or end with "_"`, Pos: Pos{Line: 1, Col: 1}},
		{Content: "template T__() { }", Message: `identifier T__ must not contain "__" or end with "_"`, Pos: Pos{Line: 1, Col: 1}},
		{Content: "Void run__m() { }", Message: `identifier run__m must not contain "__" or end with "_"`, Pos: Pos{Line: 1, Col: 1}},
		{
			Content: "Int f(Int class) { return class; }",
			Message: "identifier class is reserved in the generated sketch",
			Pos:     Pos{Line: 1, Col: 7},
		},
		{Content: "every 1s { Int new = 1; }", Message: "identifier new is reserved in the generated sketch", Pos: Pos{Line: 1, Col: 12}},
		{Content: "every 1s { for int from 0 to 1 { } }", Message: "identifier int is reserved in the generated sketch", Pos: Pos{Line: 1, Col: 12}},
		{Content: "Void pinMode() { }", Message: "identifier pinMode is reserved in the generated sketch", Pos: Pos{Line: 1, Col: 1}},
	}
	for _, data := range testData {
		_, _, err := buildTestSymbolTable(t, data.Content)
		if !assert.NotNil(t, err, data.Content) {
			continue
		}
		diag, ok := AsDiagnostic(err)
		assert.True(t, ok, data.Content)
		assert.Equal(t, DeclarationError, diag.Kind, data.Content)
		assert.Equal(t, data.Message, diag.Message, data.Content)
		assert.Equal(t, data.Pos, diag.Pos, data.Content)
	}
}

func TestBuildSymbolTable_DuplicatePointsAtFirstDeclaration(t *testing.T) {
	_, _, err := buildTestSymbolTable(t, "Int a;\nFloat a;")
	diag, ok := AsDiagnostic(err)
	require.True(t, ok)
	require.NotNil(t, diag.Other)
	assert.Equal(t, Pos{Line: 1, Col: 1}, diag.Other.Pos)
	assert.Equal(t, "a is first declared here", diag.Other.Message)
}

func TestBuildSymbolTable_Overloads(t *testing.T) {
	source := `
Int f(Int a) { return a; }
Float f(Float a) { return a; }
`
	program, table, err := buildTestSymbolTable(t, source)
	require.Nil(t, err)
	fn := table.LookUpFunction("f", []Type{FloatType})
	require.NotNil(t, fn)
	assert.Equal(t, FloatType, fn.ReturnTP)
	fn = table.LookUpFunction("f", []Type{{Kind: Int8Kind}})
	require.NotNil(t, fn)
	assert.Equal(t, IntType, fn.ReturnTP)
	assert.Nil(t, table.LookUpFunction("f", []Type{StringType}))
	assert.Nil(t, table.LookUpFunction("f", nil))

	functions := table.Functions(program)
	require.Len(t, functions, 2)
	assert.Equal(t, program.Items[0], functions[0].Decl)
	assert.False(t, functions[0].IsBuiltin())
	assert.True(t, table.LookUpFunction("println", []Type{StringType}).IsBuiltin())
}

func TestBuildSymbolTable_Shadowing(t *testing.T) {
	source := "Int a = 1; every 1s { Int a = 2; a = 3; }"
	program, table, err := buildTestSymbolTable(t, source)
	require.Nil(t, err)
	global := table.Declared(program.Items[0])
	assert.Equal(t, "g__a", global.EmittedName())
	every := program.Items[1].(*EveryStatementAst)
	local := table.Declared(every.Body.Statements[0].(*VarDeclareAst))
	assert.NotEqual(t, global, local)
	assert.Equal(t, "a", local.EmittedName())
	assign := every.Body.Statements[1].(*AssignStatementAst)
	assert.Equal(t, local, table.Resolved(assign.Target))
}

func TestBuildSymbolTable_InstancesAndPrefixes(t *testing.T) {
	source := `
template Blinker(DigitalOutputPin led) { Bool lit = false; }
module Blinker(D12);
module Ticker { Int count = 0; }
module { Int n = 0; }
Int g = 0;
module other = Blinker(D13);
`
	program, table, err := buildTestSymbolTable(t, source)
	require.Nil(t, err)
	assert.Equal(t, []string{"0", "Ticker", "1", "other"}, table.Instances())

	testData := []struct {
		Instance string
		Template string
	}{
		{Instance: "0", Template: "Blinker"},
		{Instance: "Ticker", Template: "Ticker"},
		{Instance: "1", Template: "1"},
		{Instance: "other", Template: "Blinker"},
	}
	for _, data := range testData {
		template, ok := table.InstanceTemplate(data.Instance)
		assert.True(t, ok, data.Instance)
		assert.Equal(t, data.Template, template, data.Instance)
	}
	_, ok := table.InstanceTemplate("Blinker")
	assert.False(t, ok)

	blinker := program.Items[0].(*TemplateDeclareAst)
	assert.Equal(t, "t__Blinker__led", table.Declared(blinker.Params[0]).EmittedName())
	assert.Equal(t, "t__Blinker__lit", table.Declared(blinker.Body.Statements[0]).EmittedName())

	anonymous := program.Items[1].(*ModuleDeclareAst)
	assert.Equal(t, "0", table.InstanceName(anonymous))
	assert.Equal(t, ModuleType, table.Declared(anonymous).Type)

	ticker := program.Items[2].(*ModuleDeclareAst)
	assert.Equal(t, "m__Ticker__count", table.Declared(ticker.Body.Statements[0]).EmittedName())
	direct := program.Items[3].(*ModuleDeclareAst)
	assert.Equal(t, "m__1__n", table.Declared(direct.Body.Statements[0]).EmittedName())
	assert.Equal(t, "g__g", table.Declared(program.Items[4]).EmittedName())
}

func TestBuildSymbolTable_Scopes(t *testing.T) {
	source := `
Int f(Int a) { for i from 0 to a { { Int x = i; } } return a; }
every 1s { if true { Int y = 1; } }
`
	program, table, err := buildTestSymbolTable(t, source)
	require.Nil(t, err)
	assert.Equal(t, ScopeID(0), table.CurrentScope())
	global := table.Scope(0)
	assert.Equal(t, GlobalScope, global.Kind)
	var kinds []ScopeKind
	for _, child := range global.Children {
		kinds = append(kinds, table.Scope(child).Kind)
	}
	assert.Equal(t, []ScopeKind{FunctionScope, BlockScope}, kinds)

	fn := program.Items[0].(*FuncDeclareAst)
	loop := fn.Body.Statements[0].(*ForStatementAst)
	loopVar := table.Declared(loop)
	assert.Equal(t, IntType, loopVar.Type)
	assert.True(t, loopVar.Initialized)
	assert.Equal(t, ForScope, table.Scope(loopVar.Scope).Kind)
	assert.Equal(t, FunctionScope, table.Scope(table.Scope(loopVar.Scope).Parent).Kind)
	param := table.Declared(fn.Params[0])
	assert.True(t, param.Initialized)
	assert.Equal(t, "a", param.EmittedName())
}

func TestSymbolTable_InternalErrors(t *testing.T) {
	assert.PanicsWithError(t, "internal compiler error: attempted to close the global scope", func() {
		NewSymbolTable().closeScope()
	})
	assert.Panics(t, func() {
		table := NewSymbolTable()
		block := &BlockAst{Pos: Pos{Line: 1, Col: 1}}
		table.openScope(BlockScope, block, "")
		table.openScope(BlockScope, block, "")
	})
	assert.Panics(t, func() {
		table := NewSymbolTable()
		table.openScope(BlockScope, &BlockAst{Pos: Pos{Line: 1, Col: 1}}, "")
		table.finish()
	})
	assert.Panics(t, func() {
		NewSymbolTable().Resolved(&VariableAst{VarName: "a"})
	})
}
