package internal

import "strings"

// ScopeID addresses a scope in the arena of a SymbolTable.
type ScopeID int

const noScope ScopeID = -1

type ScopeKind int

const (
	GlobalScope ScopeKind = iota
	FunctionScope
	TemplateScope
	ModuleScope
	ForScope
	BlockScope
)

type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Children []ScopeID
	// Owner is the node that opened this scope.
	Owner Node
	// Prefix is prepended to the emitted name of every variable declared here.
	Prefix    string
	Variables map[string]*Identifier
}

// Identifier is a declared variable or parameter.
type Identifier struct {
	Name   string
	Type   Type
	Prefix string
	Pos    Pos
	Scope  ScopeID
	// Initialized is set once the variable has been assigned and is never reset.
	Initialized bool
}

func (ident *Identifier) EmittedName() string {
	return ident.Prefix + ident.Name
}

type FuncSymbol struct {
	Name     string
	Params   []Type
	ReturnTP Type
	Decl     *FuncDeclareAst
	// builtin is set for functions of the standard library.
	builtin *builtinFunc
}

func (fn *FuncSymbol) IsBuiltin() bool {
	return fn.builtin != nil
}

type TemplateSymbol struct {
	Name   string
	Params []Type
	Decl   *TemplateDeclareAst
}

type SymbolTable struct {
	scopes  []*Scope
	current ScopeID
	// scopeOf maps every scope opening node to its scope, so later stages can enter the same scope.
	scopeOf map[Node]ScopeID

	functions map[string][]*FuncSymbol
	templates map[string]*TemplateSymbol
	// instances maps an instance name to its template, a direct module maps to itself.
	instances     map[string]string
	instanceOrder []string
	instanceNames map[*ModuleDeclareAst]string

	resolutions  map[*VariableAst]*Identifier
	declarations map[Node]*Identifier
}

// NewSymbolTable returns a table holding only the global scope and the standard library.
func NewSymbolTable() *SymbolTable {
	table := &SymbolTable{
		scopeOf:       map[Node]ScopeID{},
		functions:     map[string][]*FuncSymbol{},
		templates:     map[string]*TemplateSymbol{},
		instances:     map[string]string{},
		instanceNames: map[*ModuleDeclareAst]string{},
		resolutions:   map[*VariableAst]*Identifier{},
		declarations:  map[Node]*Identifier{},
	}
	table.scopes = append(table.scopes, &Scope{
		Kind:      GlobalScope,
		Parent:    noScope,
		Prefix:    globalPrefix,
		Variables: map[string]*Identifier{},
	})
	table.current = 0
	table.initStandardLibrary()
	return table
}

func (table *SymbolTable) Scope(id ScopeID) *Scope {
	return table.scopes[id]
}

func (table *SymbolTable) CurrentScope() ScopeID {
	return table.current
}

// openScope creates a child of the current scope owned by owner and makes it current.
func (table *SymbolTable) openScope(kind ScopeKind, owner Node, prefix string) ScopeID {
	if _, ok := table.scopeOf[owner]; ok {
		internalError("scope of node at %d:%d opened twice", owner.Position().Line, owner.Position().Col)
	}
	id := ScopeID(len(table.scopes))
	table.scopes = append(table.scopes, &Scope{
		Kind:      kind,
		Parent:    table.current,
		Owner:     owner,
		Prefix:    prefix,
		Variables: map[string]*Identifier{},
	})
	parent := table.scopes[table.current]
	parent.Children = append(parent.Children, id)
	table.scopeOf[owner] = id
	table.current = id
	return id
}

func (table *SymbolTable) closeScope() {
	if table.current == 0 {
		internalError("attempted to close the global scope")
	}
	table.current = table.scopes[table.current].Parent
}

// enter makes the scope opened by owner current again. It must be a child of the current scope.
func (table *SymbolTable) enter(owner Node) {
	id, ok := table.scopeOf[owner]
	if !ok {
		internalError("no scope was opened for node at %d:%d", owner.Position().Line, owner.Position().Col)
	}
	if table.scopes[id].Parent != table.current {
		internalError("scope of node at %d:%d entered from a foreign scope", owner.Position().Line,
			owner.Position().Col)
	}
	table.current = id
}

func (table *SymbolTable) leave() {
	table.closeScope()
}

// Generated names contain "__", which declared names cannot, so the two never collide.
const globalPrefix = "g__"

func templatePrefix(template string) string {
	return "t__" + template + "__"
}

func modulePrefix(instance string) string {
	return "m__" + instance + "__"
}

func runningFlag(instance string) string {
	return "run__" + instance
}

// checkName rejects names that could clash with generated ones. Names emitted without a prefix
// must also avoid the reserved words of the sketch.
func checkName(name string, pos Pos, unprefixed bool) error {
	if strings.Contains(name, "__") || strings.HasSuffix(name, "_") {
		return newDiagnostic(DeclarationError, pos, `identifier %s must not contain "__" or end with "_"`, name)
	}
	if unprefixed && sketchReservedWords[name] {
		return newDiagnostic(DeclarationError, pos, "identifier %s is reserved in the generated sketch", name)
	}
	return nil
}

// finish checks that every opened scope was closed.
func (table *SymbolTable) finish() {
	if table.current != 0 {
		internalError("unbalanced scopes, %d is still open", table.current)
	}
}

// declare binds name in the current scope.
func (table *SymbolTable) declare(name string, tp Type, pos Pos) (*Identifier, error) {
	scope := table.scopes[table.current]
	if err := checkName(name, pos, scope.Prefix == ""); err != nil {
		return nil, err
	}
	if first, ok := scope.Variables[name]; ok {
		return nil, newDiagnostic(DeclarationError, pos, "identifier %s already declared", name).
			withOther(first.Pos, "%s is first declared here", name)
	}
	ident := &Identifier{Name: name, Type: tp, Prefix: scope.Prefix, Pos: pos, Scope: table.current}
	scope.Variables[name] = ident
	return ident, nil
}

func (table *SymbolTable) lookUp(name string) *Identifier {
	for id := table.current; id != noScope; id = table.scopes[id].Parent {
		if ident, ok := table.scopes[id].Variables[name]; ok {
			return ident
		}
	}
	return nil
}

// resolve binds a variable use to the declaration visible from the current scope.
func (table *SymbolTable) resolve(use *VariableAst) (*Identifier, error) {
	ident := table.lookUp(use.VarName)
	if ident == nil {
		return nil, newDiagnostic(DeclarationError, use.Pos, "identifier %s used before declaration", use.VarName)
	}
	table.resolutions[use] = ident
	return ident, nil
}

// Resolved returns the identifier a variable use was bound to by the builder.
func (table *SymbolTable) Resolved(use *VariableAst) *Identifier {
	ident, ok := table.resolutions[use]
	if !ok {
		internalError("variable %s at %d:%d was never resolved", use.VarName, use.Line, use.Col)
	}
	return ident
}

// Declared returns the identifier introduced by a declaration node, a parameter or a for loop.
func (table *SymbolTable) Declared(node Node) *Identifier {
	ident, ok := table.declarations[node]
	if !ok {
		internalError("node at %d:%d declares nothing", node.Position().Line, node.Position().Col)
	}
	return ident
}

func (table *SymbolTable) addFunction(fn *FuncSymbol, pos Pos) error {
	for _, other := range table.functions[fn.Name] {
		if sameParams(other.Params, fn.Params) {
			diag := newDiagnostic(DeclarationError, pos, "identifier %s already declared", fn.Name)
			if other.Decl != nil {
				diag.withOther(other.Decl.Pos, "%s(%s) is first declared here", fn.Name, typesString(fn.Params))
			}
			return diag
		}
	}
	table.functions[fn.Name] = append(table.functions[fn.Name], fn)
	return nil
}

func sameParams(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].ExactEqual(b[i]) {
			return false
		}
	}
	return true
}

func (table *SymbolTable) hasFunction(name string) bool {
	return len(table.functions[name]) > 0
}

// LookUpFunction returns the first overload of name accepting args.
func (table *SymbolTable) LookUpFunction(name string, args []Type) *FuncSymbol {
	for _, fn := range table.functions[name] {
		if len(fn.Params) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if !fn.Params[i].Equal(args[i]) {
				match = false
				break
			}
		}
		if match {
			return fn
		}
	}
	return nil
}

func (table *SymbolTable) functionOf(decl *FuncDeclareAst) *FuncSymbol {
	for _, fn := range table.functions[decl.FuncName] {
		if fn.Decl == decl {
			return fn
		}
	}
	internalError("function %s was never registered", decl.FuncName)
	return nil
}

// Functions returns the user declared functions in declaration order.
func (table *SymbolTable) Functions(program *ProgramAst) []*FuncSymbol {
	var ret []*FuncSymbol
	for _, item := range program.Items {
		decl, ok := item.(*FuncDeclareAst)
		if !ok {
			continue
		}
		ret = append(ret, table.functionOf(decl))
	}
	return ret
}

func (table *SymbolTable) addTemplate(template *TemplateSymbol) error {
	if first, ok := table.templates[template.Name]; ok {
		return newDiagnostic(DeclarationError, template.Decl.Pos, "identifier %s already declared", template.Name).
			withOther(first.Decl.Pos, "template %s is first declared here", template.Name)
	}
	table.templates[template.Name] = template
	return nil
}

func (table *SymbolTable) LookUpTemplate(name string) *TemplateSymbol {
	return table.templates[name]
}

func (table *SymbolTable) addInstance(decl *ModuleDeclareAst, name string) error {
	if _, ok := table.instances[name]; ok {
		return newDiagnostic(DeclarationError, decl.Pos, "identifier %s already declared", name)
	}
	template := name
	if decl.IsTemplateInstance() {
		template = decl.Template
	}
	table.instances[name] = template
	table.instanceOrder = append(table.instanceOrder, name)
	table.instanceNames[decl] = name
	return nil
}

// InstanceName returns the name of a module instance, generated for anonymous ones.
func (table *SymbolTable) InstanceName(decl *ModuleDeclareAst) string {
	name, ok := table.instanceNames[decl]
	if !ok {
		internalError("module at %d:%d was never registered", decl.Line, decl.Col)
	}
	return name
}

// InstanceTemplate returns the template an instance was created from, or the instance name itself for
// direct modules.
func (table *SymbolTable) InstanceTemplate(name string) (string, bool) {
	template, ok := table.instances[name]
	return template, ok
}

func (table *SymbolTable) Instances() []string {
	return table.instanceOrder
}
