package automation

// Host values are plain Go values. The shapes the Converter understands:
//
//	nil                      undefined
//	Null                     null
//	bool                     boolean
//	int, int8 ... uint64     number (VT_I4 when it fits in 32 bits)
//	float32, float64         number
//	json.Number, *float64    boxed number
//	time.Time                date
//	string, fmt.Stringer     string
//	*Object, *Variant        wrapped Automation value
//	[]T, [N]T                array (not implemented)
//
// Anything else (funcs, channels, unsafe pointers, structs, maps) is
// unsupported.

// NullValue is the type of Null.
type NullValue struct{}

// Null is the host null value. Undefined is represented by nil.
var Null = NullValue{}

func (NullValue) String() string {
	return "null"
}

// IsNull reports whether v is the host null value.
func IsNull(v any) bool {
	_, ok := v.(NullValue)
	return ok
}
