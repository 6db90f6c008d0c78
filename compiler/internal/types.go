package internal

import "strings"

// Kind is the closed set of semantic type tags of tick.
type Kind int

const (
	InvalidKind Kind = iota
	IntKind
	Int8Kind
	Int16Kind
	Int32Kind
	Int64Kind
	FloatKind
	Float32Kind
	Float64Kind
	StringKind
	BoolKind
	TimeKind
	VoidKind
	ModuleKind
	DigitalInputPinKind
	DigitalOutputPinKind
	AnalogInputPinKind
	AnalogOutputPinKind
	// A pin literal like D13 has not been given a direction yet.
	DigitalPinKind
	AnalogPinKind
	ArrayKind
)

var kindNames = map[Kind]string{
	IntKind:              "Int",
	Int8Kind:             "Int8",
	Int16Kind:            "Int16",
	Int32Kind:            "Int32",
	Int64Kind:            "Int64",
	FloatKind:            "Float",
	Float32Kind:          "Float32",
	Float64Kind:          "Float64",
	StringKind:           "String",
	BoolKind:             "Bool",
	TimeKind:             "Time",
	VoidKind:             "Void",
	ModuleKind:           "Module",
	DigitalInputPinKind:  "DigitalInputPin",
	DigitalOutputPinKind: "DigitalOutputPin",
	AnalogInputPinKind:   "AnalogInputPin",
	AnalogOutputPinKind:  "AnalogOutputPin",
	DigitalPinKind:       "DigitalPin",
	AnalogPinKind:        "AnalogPin",
}

// typeKeywords maps the type keywords of the language to their kind.
var typeKeywords = func() map[string]Kind {
	ret := make(map[string]Kind, len(kindNames))
	for kind, name := range kindNames {
		if kind == ModuleKind {
			continue
		}
		ret[name] = kind
	}
	return ret
}()

// Type is a value type. Elem is only set for arrays.
type Type struct {
	Kind Kind
	Elem *Type
}

var (
	IntType              = Type{Kind: IntKind}
	FloatType            = Type{Kind: FloatKind}
	StringType           = Type{Kind: StringKind}
	BoolType             = Type{Kind: BoolKind}
	TimeType             = Type{Kind: TimeKind}
	VoidType             = Type{Kind: VoidKind}
	ModuleType           = Type{Kind: ModuleKind}
	DigitalPinType       = Type{Kind: DigitalPinKind}
	AnalogPinType        = Type{Kind: AnalogPinKind}
	DigitalInputPinType  = Type{Kind: DigitalInputPinKind}
	DigitalOutputPinType = Type{Kind: DigitalOutputPinKind}
	AnalogInputPinType   = Type{Kind: AnalogInputPinKind}
	AnalogOutputPinType  = Type{Kind: AnalogOutputPinKind}
)

func ArrayOf(elem Type) Type {
	return Type{Kind: ArrayKind, Elem: &elem}
}

func (t Type) String() string {
	if t.Kind == ArrayKind {
		if t.Elem == nil {
			return "[]"
		}
		return t.Elem.String() + "[]"
	}
	if name, ok := kindNames[t.Kind]; ok {
		return name
	}
	return "invalid"
}

func (t Type) IsInt() bool {
	switch t.Kind {
	case IntKind, Int8Kind, Int16Kind, Int32Kind, Int64Kind:
		return true
	}
	return false
}

func (t Type) IsFloat() bool {
	switch t.Kind {
	case FloatKind, Float32Kind, Float64Kind:
		return true
	}
	return false
}

func (t Type) IsNumeric() bool {
	return t.IsInt() || t.IsFloat()
}

func (t Type) IsArray() bool {
	return t.Kind == ArrayKind
}

func (t Type) IsDigitalPin() bool {
	switch t.Kind {
	case DigitalPinKind, DigitalInputPinKind, DigitalOutputPinKind:
		return true
	}
	return false
}

func (t Type) IsAnalogPin() bool {
	switch t.Kind {
	case AnalogPinKind, AnalogInputPinKind, AnalogOutputPinKind:
		return true
	}
	return false
}

func (t Type) IsPin() bool {
	return t.IsDigitalPin() || t.IsAnalogPin()
}

// IsInputCapable reports whether read can be applied to a pin of this type.
func (t Type) IsInputCapable() bool {
	switch t.Kind {
	case DigitalPinKind, AnalogPinKind, DigitalInputPinKind, AnalogInputPinKind:
		return true
	}
	return false
}

// IsOutputCapable reports whether set can be applied to a pin of this type.
func (t Type) IsOutputCapable() bool {
	switch t.Kind {
	case DigitalPinKind, AnalogPinKind, DigitalOutputPinKind, AnalogOutputPinKind:
		return true
	}
	return false
}

// family folds the integer and float widths into one tag each.
func (t Type) family() Kind {
	switch {
	case t.IsInt():
		return IntKind
	case t.IsFloat():
		return FloatKind
	}
	return t.Kind
}

// Equal is the general type equality: integer widths are compatible with each other, float
// widths too, and a generic pin equals either directional pin of the same electrical class.
func (t Type) Equal(other Type) bool {
	if t.Kind == ArrayKind || other.Kind == ArrayKind {
		if t.Kind != other.Kind || t.Elem == nil || other.Elem == nil {
			return false
		}
		return t.Elem.Equal(*other.Elem)
	}
	if t.family() == other.family() {
		return true
	}
	switch {
	case t.Kind == DigitalPinKind || other.Kind == DigitalPinKind:
		return t.IsDigitalPin() && other.IsDigitalPin()
	case t.Kind == AnalogPinKind || other.Kind == AnalogPinKind:
		return t.IsAnalogPin() && other.IsAnalogPin()
	}
	return false
}

// ExactEqual never conflates widths or generic and directional pins.
func (t Type) ExactEqual(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind != ArrayKind {
		return true
	}
	if t.Elem == nil || other.Elem == nil {
		return t.Elem == other.Elem
	}
	return t.Elem.ExactEqual(*other.Elem)
}

func typesString(types []Type) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

// binaryRule is one row of the operator table. Int and Float stand for their whole family.
type binaryRule struct {
	left   Kind
	op     OpCode
	right  Kind
	result Type
}

var binaryRules = buildBinaryRules()

func buildBinaryRules() []binaryRule {
	var rules []binaryRule
	add := func(l Kind, r Kind, result Type, ops ...OpCode) {
		for _, op := range ops {
			rules = append(rules, binaryRule{left: l, op: op, right: r, result: result})
		}
	}
	arithmetic := []OpCode{AddOpTP, MinusOpTP, MultipleOpTP, DivideOpTP, ModOpTP}
	comparison := []OpCode{LessOpTP, LessEqualOpTP, GreaterOpTP, GreaterEqualOpTP}
	equality := []OpCode{EqualOpTP, NotEqualOpTP}

	add(IntKind, IntKind, IntType, arithmetic...)
	add(FloatKind, FloatKind, FloatType, arithmetic...)
	add(TimeKind, TimeKind, TimeType, AddOpTP, MinusOpTP)
	add(StringKind, StringKind, StringType, AddOpTP)
	add(TimeKind, IntKind, TimeType, MultipleOpTP, DivideOpTP)
	add(TimeKind, TimeKind, IntType, DivideOpTP, ModOpTP)

	for _, k := range []Kind{IntKind, FloatKind, TimeKind} {
		add(k, k, BoolType, comparison...)
	}
	for _, k := range []Kind{IntKind, FloatKind, TimeKind, BoolKind, StringKind} {
		add(k, k, BoolType, equality...)
	}
	add(BoolKind, BoolKind, BoolType, AndOpTP, OrOpTP)
	return rules
}

// lookUpBinaryRule returns the result type of `l op r`. When the result stays in the family
// of the left operand its width is kept.
func lookUpBinaryRule(l Type, op OpCode, r Type) (Type, bool) {
	if l.IsArray() || r.IsArray() {
		return Type{}, false
	}
	for _, rule := range binaryRules {
		if rule.op != op || rule.left != l.family() || rule.right != r.family() {
			continue
		}
		if rule.result.family() == l.family() && rule.result.Kind != BoolKind {
			return l, true
		}
		return rule.result, true
	}
	return Type{}, false
}
