package automation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"time"
)

// Converter maps host values to Variants and back. It holds no state
// beyond its settings and is safe to share.
type Converter struct {
	tr  *Transcoder
	loc *time.Location
	log *slog.Logger
}

// NewConverter returns a Converter that encodes strings with tr and reads
// dates as wall-clock time in loc.
func NewConverter(tr *Transcoder, loc *time.Location, log *slog.Logger) *Converter {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Converter{tr: tr, loc: loc, log: log}
}

// Location returns the location used for VT_DATE conversions.
func (c *Converter) Location() *time.Location {
	return c.loc
}

// ToVariant converts a host value to a new Variant owned by the caller.
//
// nil and Null both become VT_EMPTY, and integers that do not fit in 32
// bits become VT_R8. Arrays fail with ErrNotImplemented; functions and other
// unrecognised shapes fail with ErrUnsupported.
func (c *Converter) ToVariant(v any) (*Variant, error) {
	switch val := v.(type) {
	case nil, NullValue:
		return NewEmpty(), nil
	case bool:
		return NewBool(val), nil
	case int:
		return c.fromInt(int64(val)), nil
	case int8:
		return NewInt32(int32(val)), nil
	case int16:
		return NewInt32(int32(val)), nil
	case int32:
		return NewInt32(val), nil
	case int64:
		return c.fromInt(val), nil
	case uint8:
		return NewInt32(int32(val)), nil
	case uint16:
		return NewInt32(int32(val)), nil
	case uint32:
		return c.fromUint(uint64(val)), nil
	case uint:
		return c.fromUint(uint64(val)), nil
	case uint64:
		return c.fromUint(val), nil
	case float32:
		return NewDouble(float64(val)), nil
	case float64:
		return NewDouble(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, c.fail(v, fmt.Errorf("%w: %v", ErrUnsupported, err))
		}
		return NewDouble(f), nil
	case time.Time:
		vr, err := NewTime(val, c.loc)
		if err != nil {
			return nil, c.fail(v, err)
		}
		return vr, nil
	case string:
		return c.fromString(val), nil
	case *Object:
		if val == nil || val.value == nil {
			return nil, c.fail(v, fmt.Errorf("%w: object may not be valid", ErrUnsupported))
		}
		return val.value.Copy(), nil
	case *Variant:
		if val == nil {
			return NewEmpty(), nil
		}
		return val.Copy(), nil
	case error:
		return nil, c.fail(v, ErrUnsupported)
	case fmt.Stringer:
		return c.fromString(val.String()), nil
	}
	return c.reflectToVariant(v)
}

// reflectToVariant handles named types, boxed numbers and the shapes that
// are rejected.
func (c *Converter) reflectToVariant(v any) (*Variant, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return NewBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return c.fromInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return c.fromUint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return NewDouble(rv.Float()), nil
	case reflect.String:
		return c.fromString(rv.String()), nil
	case reflect.Ptr:
		if !rv.IsNil() && isNumericKind(rv.Elem().Kind()) {
			return c.reflectToVariant(rv.Elem().Interface())
		}
	case reflect.Slice, reflect.Array:
		return nil, c.fail(v, fmt.Errorf("%w: array", ErrNotImplemented))
	}
	return nil, c.fail(v, ErrUnsupported)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (c *Converter) fromInt(n int64) *Variant {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return NewInt32(int32(n))
	}
	return NewDouble(float64(n))
}

func (c *Converter) fromUint(n uint64) *Variant {
	if n <= math.MaxInt32 {
		return NewInt32(int32(n))
	}
	return NewDouble(float64(n))
}

func (c *Converter) fromString(s string) *Variant {
	w, err := c.tr.ProviderString(s)
	if err != nil {
		c.log.Warn("string transcoding failed", "error", err)
	}
	return &Variant{vt: VT_BSTR, str: w}
}

func (c *Converter) fail(v any, err error) error {
	c.log.Warn("cannot convert host value", "type", fmt.Sprintf("%T", v), "error", err)
	return &ConversionError{Value: v, Err: err}
}

// ToHost reduces a Variant to a host value. A live VT_DISPATCH reduces to
// self, so that the caller can keep chaining member access. ToHost never
// fails: arrays and unknown tags are logged and reduce to nil.
func (c *Converter) ToHost(v *Variant, self any) any {
	switch vt := v.Type(); vt {
	case VT_EMPTY:
		return nil
	case VT_NULL:
		return Null
	case VT_DISPATCH:
		if v.disp == nil {
			return Null
		}
		return self
	case VT_BOOL:
		b, _ := v.AsBool()
		return b
	case VT_I4, VT_INT, VT_UI4, VT_UINT:
		n, _ := v.AsInt32()
		return n
	case VT_I8, VT_UI8:
		n, _ := v.AsInt64()
		return n
	case VT_R8:
		f, _ := v.AsDouble()
		return f
	case VT_DATE:
		t, err := v.AsDate(c.loc)
		if err != nil {
			c.log.Warn("date may not be valid", "value", v.String(), "error", err)
			return nil
		}
		return t
	case VT_BSTR:
		s, ok, _ := v.AsString()
		if !ok {
			return nil
		}
		return s
	default:
		if vt.IsArray() {
			c.log.Warn("array values are not implemented", "vt", vt.String())
		} else {
			c.log.Warn("unknown type is not implemented", "vt", vt.String())
		}
		return nil
	}
}
