package automation

import (
	"fmt"
	"sort"
)

// Intrinsic members are answered by the Object itself, without a provider
// round-trip. Besides the Object's own accessors the table reserves the names
// a host runtime probes on any object (stringification, inspection,
// prototype checks), so generic host handling never reaches the provider.

type intrinsicFunc func(o *Object, args []any) (any, error)

type intrinsic struct {
	obsolete bool
	fn       intrinsicFunc
}

var intrinsics = map[string]intrinsic{
	"call":   {fn: func(o *Object, args []any) (any, error) { return callIntrinsic(o, "call", args, o.Call) }},
	"get":    {fn: func(o *Object, args []any) (any, error) { return callIntrinsic(o, "get", args, o.Get) }},
	"set":    {fn: setIntrinsic},
	"isA":    {fn: isAIntrinsic},
	"vtName": {fn: func(o *Object, _ []any) (any, error) { return o.VTName() }},

	"toBoolean": {obsolete: true, fn: func(o *Object, _ []any) (any, error) { return o.ToBoolean() }},
	"toInt32":   {obsolete: true, fn: func(o *Object, _ []any) (any, error) { return o.ToInt32() }},
	"toInt64":   {obsolete: true, fn: func(o *Object, _ []any) (any, error) { return o.ToInt64() }},
	"toNumber":  {obsolete: true, fn: func(o *Object, _ []any) (any, error) { return o.ToNumber() }},
	"toDate":    {obsolete: true, fn: func(o *Object, _ []any) (any, error) { return o.ToDate() }},
	"toUtf8":    {obsolete: true, fn: func(o *Object, _ []any) (any, error) { return o.ToUtf8() }},
	"toValue":   {fn: func(o *Object, _ []any) (any, error) { return o.ToValue() }},

	"inspect":        {fn: primitiveIntrinsic},
	"valueOf":        {fn: primitiveIntrinsic},
	"toString":       {fn: primitiveIntrinsic},
	"toLocaleString": {fn: primitiveIntrinsic},
	"toJSON":         {fn: primitiveIntrinsic},

	"constructor":          {fn: noopIntrinsic},
	"hasOwnProperty":       {fn: noopIntrinsic},
	"isPrototypeOf":        {fn: noopIntrinsic},
	"propertyIsEnumerable": {fn: noopIntrinsic},
}

// IsIntrinsic reports whether name is handled locally by every Object.
func IsIntrinsic(name string) bool {
	_, ok := intrinsics[name]
	return ok
}

// IntrinsicNames returns the reserved member names in sorted order.
func IntrinsicNames() []string {
	names := make([]string, 0, len(intrinsics))
	for name := range intrinsics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isAIntrinsic(o *Object, _ []any) (any, error) {
	vt, err := o.IsA()
	if err != nil {
		return nil, err
	}
	return int32(vt), nil
}

func primitiveIntrinsic(o *Object, _ []any) (any, error) {
	return o.Primitive()
}

func noopIntrinsic(*Object, []any) (any, error) {
	return nil, nil
}

func callIntrinsic(o *Object, op string, args []any, call func(string, ...any) (any, error)) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("%s takes 1 or 2 argument(s), got %d", op, len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s: the first argument is not a string", op)
	}
	var list []any
	if len(args) == 2 && args[1] != nil {
		list, ok = args[1].([]any)
		if !ok {
			return nil, fmt.Errorf("%s: the second argument is not an array", op)
		}
	}
	return call(name, list...)
}

func setIntrinsic(o *Object, args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("set takes exactly 2 argument(s), got %d", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("set: the first argument is not a string")
	}
	if err := o.Set(name, args[1]); err != nil {
		return nil, err
	}
	return true, nil
}
