package internal

import "fmt"

// builtinFunc describes how a standard library call is lowered to the target.
type builtinFunc struct {
	// format receives the generated arguments in order.
	format string
	// usesSerial asks the generator to open the serial port in setup.
	usesSerial bool
}

func (fn *builtinFunc) lower(args []string) string {
	values := make([]interface{}, len(args))
	for i, arg := range args {
		values[i] = arg
	}
	return fmt.Sprintf(fn.format, values...)
}

func (table *SymbolTable) initStandardLibrary() {
	printable := []Type{StringType, IntType, FloatType, BoolType}
	for _, tp := range printable {
		table.addStandardFuncs(
			[]string{"print", "println"},
			[][]Type{{tp}, {tp}},
			[]Type{VoidType, VoidType},
			[]*builtinFunc{
				{format: "Serial.print(%s)", usesSerial: true},
				{format: "Serial.println(%s)", usesSerial: true},
			},
		)
	}
	table.addStandardFuncs(
		[]string{"millis", "micros", "abs", "abs", "min", "max", "random", "toFloat", "toInt"},
		[][]Type{
			nil, nil, {IntType}, {FloatType}, {IntType, IntType}, {IntType, IntType}, {IntType, IntType},
			{IntType}, {FloatType},
		},
		[]Type{TimeType, IntType, IntType, FloatType, IntType, IntType, IntType, FloatType, IntType},
		[]*builtinFunc{
			{format: "millis()"}, {format: "((long)micros())"}, {format: "abs(%s)"}, {format: "fabs(%s)"},
			{format: "min(%s, %s)"}, {format: "max(%s, %s)"}, {format: "random(%s, %s)"},
			{format: "((float)(%s))"}, {format: "((int)(%s))"},
		},
	)
}

func (table *SymbolTable) addStandardFuncs(funcNames []string, params [][]Type, returnTP []Type,
	lowerings []*builtinFunc) {
	for i, funcName := range funcNames {
		fn := &FuncSymbol{Name: funcName, Params: params[i], ReturnTP: returnTP[i], builtin: lowerings[i]}
		if err := table.addFunction(fn, Pos{}); err != nil {
			internalError("standard library: %v", err)
		}
	}
}

// reservedFuncNames are the entry points of the generated sketch.
var reservedFuncNames = map[string]bool{
	"setup": true,
	"loop":  true,
	"main":  true,
}

func isReservedFuncName(name string) bool {
	return reservedFuncNames[name]
}

// sketchReservedWords are C++ keywords and Arduino names the generated sketch relies on. Names
// emitted without a prefix must avoid them.
var sketchReservedWords = wordSet(
	"alignas", "alignof", "and", "and_eq", "asm", "auto", "bitand", "bitor", "bool", "break", "case",
	"catch", "char", "char16_t", "char32_t", "class", "compl", "const", "constexpr", "const_cast",
	"continue", "decltype", "default", "delete", "do", "double", "dynamic_cast", "else", "enum",
	"explicit", "export", "extern", "false", "float", "for", "friend", "goto", "if", "inline", "int",
	"long", "mutable", "namespace", "new", "noexcept", "not", "not_eq", "nullptr", "operator", "or",
	"or_eq", "private", "protected", "public", "register", "reinterpret_cast", "return", "short",
	"signed", "sizeof", "static", "static_assert", "static_cast", "struct", "switch", "template",
	"this", "thread_local", "throw", "true", "try", "typedef", "typeid", "typename", "union",
	"unsigned", "using", "virtual", "void", "volatile", "wchar_t", "while", "xor", "xor_eq",
	"boolean", "byte", "word", "uint8_t", "size_t", "String", "Serial", "HIGH", "LOW", "INPUT",
	"OUTPUT", "pinMode", "digitalRead", "digitalWrite", "analogRead", "analogWrite", "delay",
	"delayMicroseconds", "millis", "micros", "abs", "fabs", "fmod", "min", "max", "random",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[word] = true
	}
	return set
}
