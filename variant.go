package automation

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// VARIANT_TRUE and VARIANT_FALSE are the VT_BOOL payloads.
const (
	VARIANT_TRUE  = -1
	VARIANT_FALSE = 0
)

// Variant is one Automation-typed value: a type tag and the payload that
// belongs to it. The zero Variant is VT_EMPTY.
//
// A Variant owns its string storage and holds one provider reference on a
// Dispatch. Clear releases both; Copy duplicates both. A Variant is not safe
// for concurrent use.
type Variant struct {
	vt   VarType
	num  int64    // VT_BOOL and integer tags
	dbl  float64  // VT_R8, VT_DATE
	str  []uint16 // VT_BSTR; nil is a null BSTR
	disp Dispatch // VT_DISPATCH; nil is a null pointer
}

// NewEmpty returns a VT_EMPTY value.
func NewEmpty() *Variant {
	return &Variant{}
}

// NewNull returns a VT_NULL value.
func NewNull() *Variant {
	return &Variant{vt: VT_NULL}
}

// NewBool returns a VT_BOOL value.
func NewBool(b bool) *Variant {
	v := &Variant{vt: VT_BOOL, num: VARIANT_FALSE}
	if b {
		v.num = VARIANT_TRUE
	}
	return v
}

// NewInt32 returns a VT_I4 value.
func NewInt32(n int32) *Variant {
	return &Variant{vt: VT_I4, num: int64(n)}
}

// NewInt64 returns a VT_I8 value.
func NewInt64(n int64) *Variant {
	return &Variant{vt: VT_I8, num: n}
}

// NewInteger returns an integer value tagged vt, which must be one of
// VT_I4, VT_INT, VT_UI4, VT_UINT, VT_I8 or VT_UI8. For VT_UI8, n holds the
// bit pattern of the unsigned value.
func NewInteger(vt VarType, n int64) (*Variant, error) {
	switch vt {
	case VT_I4, VT_INT:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%d out of range for %s", n, vt)
		}
	case VT_UI4, VT_UINT:
		if n < 0 || n > math.MaxUint32 {
			return nil, fmt.Errorf("%d out of range for %s", n, vt)
		}
	case VT_I8, VT_UI8:
	default:
		return nil, fmt.Errorf("%s is not an integer type", vt)
	}
	return &Variant{vt: vt, num: n}, nil
}

// NewDouble returns a VT_R8 value.
func NewDouble(f float64) *Variant {
	return &Variant{vt: VT_R8, dbl: f}
}

// NewDate returns a VT_DATE value holding a date serial.
func NewDate(serial float64) *Variant {
	return &Variant{vt: VT_DATE, dbl: serial}
}

// NewTime returns a VT_DATE value for t's wall-clock time in loc.
func NewTime(t time.Time, loc *time.Location) (*Variant, error) {
	serial, err := SerialFromTime(t, loc)
	if err != nil {
		return nil, err
	}
	return NewDate(serial), nil
}

// NewBSTR returns a VT_BSTR value owning a copy of the UTF-16 units.
// A nil slice produces a null BSTR.
func NewBSTR(units []uint16) *Variant {
	v := &Variant{vt: VT_BSTR}
	if units != nil {
		v.str = append(make([]uint16, 0, len(units)), units...)
	}
	return v
}

// NewString returns a VT_BSTR value for s, without code page translation.
func NewString(s string) *Variant {
	w, err := utf8ToWide(s)
	if err != nil {
		w = mustWide(ErrorString)
	}
	if w == nil {
		w = []uint16{}
	}
	return &Variant{vt: VT_BSTR, str: w}
}

// NewDispatch returns a VT_DISPATCH value. The Variant takes over one
// reference on d: it does not call AddRef, and Clear calls Release.
func NewDispatch(d Dispatch) *Variant {
	return &Variant{vt: VT_DISPATCH, disp: d}
}

// NewRaw returns a value with a tag this package carries but cannot
// extract, such as VT_ARRAY|VT_VARIANT or VT_CY.
func NewRaw(vt VarType) *Variant {
	return &Variant{vt: vt}
}

// Type returns the type tag. A nil Variant is VT_EMPTY.
func (v *Variant) Type() VarType {
	if v == nil {
		return VT_EMPTY
	}
	return v.vt
}

// TagName returns the VT_ name of the type tag.
func (v *Variant) TagName() string {
	return v.Type().String()
}

func (v *Variant) check(op string, want ...VarType) error {
	got := v.Type()
	for _, vt := range want {
		if got == vt {
			return nil
		}
	}
	return &TypeMismatchError{Op: op, Want: want, Got: got}
}

// AsBool extracts a VT_BOOL.
func (v *Variant) AsBool() (bool, error) {
	if err := v.check("AsBool", VT_BOOL); err != nil {
		return false, err
	}
	return v.num != VARIANT_FALSE, nil
}

// AsInt32 extracts VT_I4, VT_INT, VT_UI4 or VT_UINT. Unsigned values are
// reinterpreted as signed 32-bit.
func (v *Variant) AsInt32() (int32, error) {
	if err := v.check("AsInt32", VT_I4, VT_INT, VT_UI4, VT_UINT); err != nil {
		return 0, err
	}
	return int32(uint32(v.num)), nil
}

// AsInt64 extracts VT_I8 or VT_UI8. Unsigned values are reinterpreted as
// signed 64-bit.
func (v *Variant) AsInt64() (int64, error) {
	if err := v.check("AsInt64", VT_I8, VT_UI8); err != nil {
		return 0, err
	}
	return v.num, nil
}

// AsDouble extracts a VT_R8.
func (v *Variant) AsDouble() (float64, error) {
	if err := v.check("AsDouble", VT_R8); err != nil {
		return 0, err
	}
	return v.dbl, nil
}

// DateSerial extracts the raw serial of a VT_DATE.
func (v *Variant) DateSerial() (float64, error) {
	if err := v.check("DateSerial", VT_DATE); err != nil {
		return 0, err
	}
	return v.dbl, nil
}

// AsDate extracts a VT_DATE as an instant in loc (time.Local when nil).
func (v *Variant) AsDate(loc *time.Location) (time.Time, error) {
	if err := v.check("AsDate", VT_DATE); err != nil {
		return time.Time{}, err
	}
	return TimeFromSerial(v.dbl, loc)
}

// AsString extracts a VT_BSTR as UTF-8. For a null BSTR ok is false and err
// is nil: a null string is still a string.
func (v *Variant) AsString() (s string, ok bool, err error) {
	if err := v.check("AsString", VT_BSTR); err != nil {
		return "", false, err
	}
	if v.str == nil {
		return "", false, nil
	}
	s, err = wideToUTF8(v.str)
	if err != nil {
		return ErrorString, true, nil
	}
	return s, true, nil
}

// BSTR returns the UTF-16 units of a VT_BSTR without copying. The slice is
// owned by the Variant.
func (v *Variant) BSTR() ([]uint16, error) {
	if err := v.check("BSTR", VT_BSTR); err != nil {
		return nil, err
	}
	return v.str, nil
}

// AsDispatch extracts the handle of a VT_DISPATCH without adding a
// reference. A null dispatch returns nil and no error.
func (v *Variant) AsDispatch() (Dispatch, error) {
	if err := v.check("AsDispatch", VT_DISPATCH); err != nil {
		return nil, err
	}
	return v.disp, nil
}

// Copy returns an independent copy: string storage is duplicated and a held
// Dispatch gets another reference.
func (v *Variant) Copy() *Variant {
	if v == nil {
		return NewEmpty()
	}
	c := *v
	if v.str != nil {
		c.str = append(make([]uint16, 0, len(v.str)), v.str...)
	}
	if v.disp != nil {
		v.disp.AddRef()
	}
	return &c
}

// Clear frees string storage, releases a held Dispatch and resets the value
// to VT_EMPTY. Clearing twice is a no-op.
func (v *Variant) Clear() {
	if v == nil {
		return
	}
	d := v.disp
	*v = Variant{}
	if d != nil {
		d.Release()
	}
}

// String formats the value for diagnostics, e.g. VT_I4(5).
func (v *Variant) String() string {
	vt := v.Type()
	switch vt {
	case VT_EMPTY, VT_NULL:
		return vt.String()
	case VT_BOOL:
		return fmt.Sprintf("%s(%t)", vt, v.num != VARIANT_FALSE)
	case VT_I4, VT_INT:
		return fmt.Sprintf("%s(%d)", vt, int32(v.num))
	case VT_UI4, VT_UINT:
		return fmt.Sprintf("%s(%d)", vt, uint32(v.num))
	case VT_I8:
		return fmt.Sprintf("%s(%d)", vt, v.num)
	case VT_UI8:
		return fmt.Sprintf("%s(%d)", vt, uint64(v.num))
	case VT_R8:
		return fmt.Sprintf("%s(%s)", vt, strconv.FormatFloat(v.dbl, 'g', -1, 64))
	case VT_DATE:
		if st, err := SerialToSystemTime(v.dbl); err == nil {
			return fmt.Sprintf("%s(%04d-%02d-%02d %02d:%02d:%02d.%03d)", vt,
				st.Year, st.Month, st.Day, st.Hour, st.Minute, st.Second, st.Millisecond)
		}
		return fmt.Sprintf("%s(%v)", vt, v.dbl)
	case VT_BSTR:
		if v.str == nil {
			return vt.String() + "(null)"
		}
		s, _, _ := v.AsString()
		return fmt.Sprintf("%s(%q)", vt, s)
	case VT_DISPATCH:
		if v.disp == nil {
			return vt.String() + "(null)"
		}
		return fmt.Sprintf("%s(%p)", vt, v.disp)
	}
	return vt.String()
}
