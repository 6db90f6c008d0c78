package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Equal(t *testing.T) {
	testData := []struct {
		Left  Type
		Right Type
		Equal bool
		Exact bool
	}{
		{Left: IntType, Right: IntType, Equal: true, Exact: true},
		{Left: IntType, Right: Type{Kind: Int8Kind}, Equal: true},
		{Left: Type{Kind: Int64Kind}, Right: Type{Kind: Int16Kind}, Equal: true},
		{Left: FloatType, Right: Type{Kind: Float32Kind}, Equal: true},
		{Left: IntType, Right: FloatType},
		{Left: DigitalPinType, Right: DigitalOutputPinType, Equal: true},
		{Left: DigitalInputPinType, Right: DigitalPinType, Equal: true},
		{Left: DigitalInputPinType, Right: DigitalOutputPinType},
		{Left: AnalogPinType, Right: AnalogInputPinType, Equal: true},
		{Left: AnalogPinType, Right: DigitalPinType},
		{Left: ArrayOf(IntType), Right: ArrayOf(Type{Kind: Int32Kind}), Equal: true},
		{Left: ArrayOf(IntType), Right: ArrayOf(IntType), Equal: true, Exact: true},
		{Left: ArrayOf(IntType), Right: IntType},
		{Left: StringType, Right: BoolType},
	}
	for _, data := range testData {
		assert.Equal(t, data.Equal, data.Left.Equal(data.Right), "%s == %s", data.Left, data.Right)
		assert.Equal(t, data.Equal, data.Right.Equal(data.Left), "%s == %s", data.Right, data.Left)
		assert.Equal(t, data.Exact, data.Left.ExactEqual(data.Right), "%s === %s", data.Left, data.Right)
	}
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "Int", IntType.String())
	assert.Equal(t, "DigitalOutputPin", DigitalOutputPinType.String())
	assert.Equal(t, "Float[]", ArrayOf(FloatType).String())
	assert.Equal(t, "Int, Bool", typesString([]Type{IntType, BoolType}))
}

func TestType_PinCapabilities(t *testing.T) {
	testData := []struct {
		Type   Type
		Input  bool
		Output bool
	}{
		{Type: DigitalPinType, Input: true, Output: true},
		{Type: AnalogPinType, Input: true, Output: true},
		{Type: DigitalInputPinType, Input: true},
		{Type: AnalogInputPinType, Input: true},
		{Type: DigitalOutputPinType, Output: true},
		{Type: AnalogOutputPinType, Output: true},
		{Type: IntType},
	}
	for _, data := range testData {
		assert.Equal(t, data.Input, data.Type.IsInputCapable(), data.Type.String())
		assert.Equal(t, data.Output, data.Type.IsOutputCapable(), data.Type.String())
	}
}

func TestLookUpBinaryRule(t *testing.T) {
	testData := []struct {
		Left   Type
		Op     OpCode
		Right  Type
		Result Type
		Ok     bool
	}{
		{Left: IntType, Op: AddOpTP, Right: IntType, Result: IntType, Ok: true},
		{Left: Type{Kind: Int8Kind}, Op: MultipleOpTP, Right: IntType, Result: Type{Kind: Int8Kind}, Ok: true},
		{Left: Type{Kind: Float32Kind}, Op: MinusOpTP, Right: FloatType, Result: Type{Kind: Float32Kind}, Ok: true},
		{Left: IntType, Op: AddOpTP, Right: FloatType},
		{Left: Type{Kind: Int16Kind}, Op: LessOpTP, Right: IntType, Result: BoolType, Ok: true},
		{Left: TimeType, Op: AddOpTP, Right: TimeType, Result: TimeType, Ok: true},
		{Left: TimeType, Op: MultipleOpTP, Right: IntType, Result: TimeType, Ok: true},
		{Left: TimeType, Op: DivideOpTP, Right: TimeType, Result: IntType, Ok: true},
		{Left: IntType, Op: MultipleOpTP, Right: TimeType},
		{Left: StringType, Op: AddOpTP, Right: StringType, Result: StringType, Ok: true},
		{Left: StringType, Op: MinusOpTP, Right: StringType},
		{Left: BoolType, Op: AndOpTP, Right: BoolType, Result: BoolType, Ok: true},
		{Left: BoolType, Op: LessOpTP, Right: BoolType},
		{Left: StringType, Op: EqualOpTP, Right: StringType, Result: BoolType, Ok: true},
		{Left: DigitalPinType, Op: EqualOpTP, Right: DigitalPinType},
		{Left: ArrayOf(IntType), Op: AddOpTP, Right: ArrayOf(IntType)},
	}
	for _, data := range testData {
		result, ok := lookUpBinaryRule(data.Left, data.Op, data.Right)
		assert.Equal(t, data.Ok, ok, "%s %d %s", data.Left, data.Op, data.Right)
		if data.Ok {
			assert.Equal(t, data.Result, result, "%s %d %s", data.Left, data.Op, data.Right)
		}
	}
}
