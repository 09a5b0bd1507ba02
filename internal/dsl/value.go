package dsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/icode/ameba/internal/i18n"
)

// Kind tags the content of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	KindExpr
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindTime:
		return "date"
	case KindExpr:
		return "expression"
	default:
		return "unknown"
	}
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Value is a transformer argument or result: a raw scalar or an expression
// of type E built by a nested call. The zero Value is null. Accessors coerce
// on demand, never modify the value and fail with a *SyntaxError.
type Value[E any] struct {
	kind Kind
	str  string
	num  decimal.Decimal
	b    bool
	t    time.Time
	expr E
}

func NullValue[E any]() Value[E] { return Value[E]{} }

func StringValue[E any](s string) Value[E] { return Value[E]{kind: KindString, str: s} }

func NumberValue[E any](d decimal.Decimal) Value[E] { return Value[E]{kind: KindNumber, num: d} }

func BoolValue[E any](b bool) Value[E] { return Value[E]{kind: KindBool, b: b} }

func TimeValue[E any](t time.Time) Value[E] { return Value[E]{kind: KindTime, t: t} }

func ExprValue[E any](e E) Value[E] { return Value[E]{kind: KindExpr, expr: e} }

// LiteralValue converts a parsed literal.
func LiteralValue[E any](l *Literal) (Value[E], error) {
	switch l.Kind {
	case LiteralString, LiteralIdent:
		return StringValue[E](l.Text), nil
	case LiteralNumber:
		d, err := decimal.NewFromString(l.Text)
		if err != nil {
			return Value[E]{}, NewSyntaxError(i18n.KeyParse, l.Pos, "invalid number "+l.Text)
		}
		return NumberValue[E](d), nil
	case LiteralBool:
		return BoolValue[E](l.Text == "true"), nil
	default:
		return NullValue[E](), nil
	}
}

// Kind reports what the value holds.
func (v Value[E]) Kind() Kind { return v.kind }

func (v Value[E]) IsNull() bool { return v.kind == KindNull }

func (v Value[E]) IsExpr() bool { return v.kind == KindExpr }

func (v Value[E]) typeError(target string) error {
	return NewSyntaxError(i18n.KeyValueType, v.String(), target)
}

// AsExpr returns the expression built by a nested call.
func (v Value[E]) AsExpr() (E, error) {
	if v.kind != KindExpr {
		var zero E
		return zero, v.typeError("expression")
	}
	return v.expr, nil
}

// AsString coerces scalars to their textual form.
func (v Value[E]) AsString() (string, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		return v.num.String(), nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindTime:
		return v.t.Format(time.RFC3339Nano), nil
	default:
		return "", v.typeError("string")
	}
}

// AsBool accepts booleans, "true"/"false"/"1"/"0" and numbers (non-zero is true).
func (v Value[E]) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindNumber:
		return !v.num.IsZero(), nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return false, v.typeError("boolean")
}

// AsDecimal accepts numbers and numeric strings.
func (v Value[E]) AsDecimal() (decimal.Decimal, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.str))
		if err == nil {
			return d, nil
		}
	}
	return decimal.Zero, v.typeError("number")
}

func (v Value[E]) AsFloat() (float64, error) {
	d, err := v.AsDecimal()
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// AsInt truncates toward zero.
func (v Value[E]) AsInt() (int64, error) {
	d, err := v.AsDecimal()
	if err != nil {
		return 0, err
	}
	if d.Cmp(minInt64) < 0 || d.Cmp(maxInt64) > 0 {
		return 0, v.typeError("integer")
	}
	return d.IntPart(), nil
}

// AsTime returns the time held by a date value.
func (v Value[E]) AsTime() (time.Time, error) {
	if v.kind != KindTime {
		return time.Time{}, v.typeError("date")
	}
	return v.t, nil
}

// Object returns the raw value for binding into a backend query. Integral
// numbers become int64 when they fit and decimal.Decimal otherwise; fractional
// numbers become float64.
func (v Value[E]) Object() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.num.IsInteger() {
			if v.num.Cmp(minInt64) >= 0 && v.num.Cmp(maxInt64) <= 0 {
				return v.num.IntPart()
			}
			return v.num
		}
		return v.num.InexactFloat64()
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindExpr:
		return v.expr
	default:
		return nil
	}
}

func (v Value[E]) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindExpr:
		return fmt.Sprintf("%v", v.expr)
	default:
		s, _ := v.AsString()
		return s
	}
}

// AsEnum matches the value case-insensitively against allowed and returns
// the canonical spelling.
func AsEnum[T ~string, E any](v Value[E], allowed ...T) (T, error) {
	s, err := v.AsString()
	if err == nil {
		for _, candidate := range allowed {
			if strings.EqualFold(s, string(candidate)) {
				return candidate, nil
			}
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", v.typeError("one of [" + strings.Join(names, ", ") + "]")
}
