// Package starhost exposes Automation objects to Starlark scripts.
//
// Attribute reads, calls and assignments on a wrapped object go through the
// automation carry-over protocol, so
//
//	app.Visible = True
//	n = app.Workbooks.Count
//	wb = app.Workbooks.Add()
//
// resolve members the way the provider expects. A placeholder used as a
// value (printed, tested for truth, passed as an argument) is resolved as a
// property read.
package starhost

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"

	"github.com/feather-lang/automation"
)

// Value is a Starlark value wrapping an automation.Object.
type Value struct {
	h   *Host
	obj *automation.Object
}

var (
	_ starlark.HasSetField = (*Value)(nil)
	_ starlark.Callable    = (*Value)(nil)
)

// Object returns the wrapped object.
func (v *Value) Object() *automation.Object {
	return v.obj
}

func (v *Value) String() string {
	p, err := v.obj.Primitive()
	if err != nil {
		return fmt.Sprintf("<automation error: %v>", err)
	}
	if s, ok := p.(string); ok {
		return s
	}
	sv, err := v.h.toStarlark(p, v)
	if err != nil || sv == v {
		// Primitive settled the object, so the name is available
		name, _ := v.obj.VTName()
		return "<automation " + name + ">"
	}
	return sv.String()
}

func (v *Value) Type() string { return "automation" }

func (v *Value) Freeze() {}

// Truth coerces the value. Errors count as false; provider failures have
// already been logged by the invoker.
func (v *Value) Truth() starlark.Bool {
	p, err := v.obj.Primitive()
	if err != nil {
		return starlark.False
	}
	sv, err := v.h.toStarlark(p, v)
	if err != nil || sv == v {
		return starlark.True
	}
	return sv.Truth()
}

func (v *Value) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", v.Type())
}

// Name returns the pending member name, for error messages and tracebacks.
func (v *Value) Name() string {
	if name, ok := v.obj.Pending(); ok {
		return name
	}
	return "automation"
}

func (v *Value) Attr(name string) (starlark.Value, error) {
	a, err := v.obj.Attr(name)
	if err != nil {
		return nil, err
	}
	switch a := a.(type) {
	case *automation.Method:
		return v.builtin(a), nil
	case *automation.Object:
		return v.h.Wrap(a), nil
	}
	return nil, fmt.Errorf("unexpected attribute %T", a)
}

// AttrNames lists the intrinsics and, for a live dispatch, its members.
func (v *Value) AttrNames() []string {
	names := automation.IntrinsicNames()
	if _, pending := v.obj.Pending(); pending {
		return names
	}
	members := automation.DescribeMembers(v.obj.Variant(), v.h.log)
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *Value) SetField(name string, val starlark.Value) error {
	g, err := v.h.toGo(val)
	if err != nil {
		return err
	}
	return v.obj.SetAttr(name, g)
}

func (v *Value) CallInternal(thread *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", v.Name())
	}
	gargs, err := v.h.toGoArgs(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Name(), err)
	}
	res, err := v.obj.Invoke(gargs...)
	if err != nil {
		return nil, err
	}
	return v.h.toStarlark(res, v)
}

func (v *Value) builtin(m *automation.Method) *starlark.Builtin {
	h := v.h
	return starlark.NewBuiltin(m.Name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		gargs, err := h.toGoArgs(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		res, err := m.Call(gargs...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return h.toStarlark(res, v)
	})
}
