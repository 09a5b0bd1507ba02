package dsl

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icode/ameba/internal/i18n"
)

type testExpr struct{ name string }

type testValue = Value[*testExpr]

func num(s string) testValue {
	return NumberValue[*testExpr](decimal.RequireFromString(s))
}

func TestValue_AsString(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name  string
		value testValue
		want  string
	}{
		{"string", StringValue[*testExpr]("abc"), "abc"},
		{"number", num("1.50"), "1.5"},
		{"bool", BoolValue[*testExpr](true), "true"},
		{"time", TimeValue[*testExpr](when), "2024-01-02T03:04:05Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.value.AsString()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NullValue[*testExpr]().AsString()
	assert.ErrorIs(t, err, ErrSyntax)
	_, err = ExprValue(&testExpr{}).AsString()
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestValue_AsBool(t *testing.T) {
	tests := []struct {
		value   testValue
		want    bool
		wantErr bool
	}{
		{BoolValue[*testExpr](false), false, false},
		{StringValue[*testExpr]("TRUE"), true, false},
		{StringValue[*testExpr]("0"), false, false},
		{num("2"), true, false},
		{num("0"), false, false},
		{StringValue[*testExpr]("yes"), false, true},
		{NullValue[*testExpr](), false, true},
	}
	for _, tt := range tests {
		got, err := tt.value.AsBool()
		if tt.wantErr {
			assert.Error(t, err, tt.value.String())
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.value.String())
	}
}

func TestValue_Numbers(t *testing.T) {
	f, err := num("2.5").AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	i, err := num("-7.9").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), i)

	i, err = StringValue[*testExpr](" 42 ").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	_, err = num("99999999999999999999").AsInt()
	assert.Error(t, err)

	_, err = StringValue[*testExpr]("abc").AsFloat()
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, i18n.KeyValueType, se.Key)
	assert.Equal(t, []interface{}{"abc", "number"}, se.Args)
}

func TestValue_AsTime(t *testing.T) {
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := TimeValue[*testExpr](when).AsTime()
	require.NoError(t, err)
	assert.Equal(t, when, got)

	_, err = StringValue[*testExpr]("2024-01-01").AsTime()
	assert.Error(t, err)
}

func TestValue_AsExpr(t *testing.T) {
	e := &testExpr{name: "x"}
	v := ExprValue(e)
	assert.True(t, v.IsExpr())

	got, err := v.AsExpr()
	require.NoError(t, err)
	assert.Same(t, e, got)

	_, err = StringValue[*testExpr]("x").AsExpr()
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestValue_AccessorsAreIdempotent(t *testing.T) {
	v := StringValue[*testExpr]("12")
	for i := 0; i < 3; i++ {
		s, err := v.AsString()
		require.NoError(t, err)
		assert.Equal(t, "12", s)
		n, err := v.AsInt()
		require.NoError(t, err)
		assert.Equal(t, int64(12), n)
		assert.Equal(t, KindString, v.Kind())
	}
}

func TestValue_Object(t *testing.T) {
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	big := decimal.RequireFromString("123456789012345678901234")

	assert.Nil(t, NullValue[*testExpr]().Object())
	assert.Equal(t, "s", StringValue[*testExpr]("s").Object())
	assert.Equal(t, int64(18), num("18").Object())
	assert.Equal(t, 0.25, num("0.25").Object())
	assert.True(t, big.Equal(NumberValue[*testExpr](big).Object().(decimal.Decimal)))
	assert.Equal(t, true, BoolValue[*testExpr](true).Object())
	assert.Equal(t, when, TimeValue[*testExpr](when).Object())
}

type sortOrder string

func TestAsEnum(t *testing.T) {
	got, err := AsEnum(StringValue[*testExpr]("DESC"), sortOrder("asc"), sortOrder("desc"))
	require.NoError(t, err)
	assert.Equal(t, sortOrder("desc"), got)

	_, err = AsEnum(StringValue[*testExpr]("up"), sortOrder("asc"), sortOrder("desc"))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "one of [asc, desc]", se.Args[1])
}

func TestLiteralValue(t *testing.T) {
	v, err := LiteralValue[*testExpr](&Literal{Kind: LiteralNumber, Text: "1e3"})
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(1000), n)

	v, err = LiteralValue[*testExpr](&Literal{Kind: LiteralIdent, Text: "a.b"})
	require.NoError(t, err)
	assert.Equal(t, "a.b", v.Object())

	v, err = LiteralValue[*testExpr](&Literal{Kind: LiteralNull, Text: "null"})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}
