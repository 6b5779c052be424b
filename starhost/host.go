package starhost

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"

	"github.com/feather-lang/automation"
)

// Host owns the objects handed to Starlark. Starlark has no destructors, so
// every object wrapped by a Host is released by Host.Close, which must run
// on the goroutine that owns the provider.
type Host struct {
	log     *slog.Logger
	objects []*automation.Object
}

// NewHost returns an empty Host. log may be nil.
func NewHost(log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	return &Host{log: log}
}

// Wrap makes o available to Starlark. The Host takes ownership of o.
func (h *Host) Wrap(o *automation.Object) *Value {
	h.objects = append(h.objects, o)
	return &Value{h: h, obj: o}
}

// Len returns how many objects the Host currently holds.
func (h *Host) Len() int {
	return len(h.objects)
}

// Close releases every wrapped object, newest first.
func (h *Host) Close() error {
	for i := len(h.objects) - 1; i >= 0; i-- {
		h.objects[i].Finalize()
	}
	h.objects = nil
	return nil
}

// Predeclared returns the globals a script sees: the root object under
// name and the time module.
func (h *Host) Predeclared(root *automation.Object, name string) starlark.StringDict {
	return starlark.StringDict{
		name:   h.Wrap(root),
		"time": starlarktime.Module,
	}
}

// Exec runs a script. src may be a string, []byte, io.Reader or nil to
// read filename.
func (h *Host) Exec(thread *starlark.Thread, filename string, src any, predeclared starlark.StringDict) (starlark.StringDict, error) {
	globals, err := starlark.ExecFile(thread, filename, src, predeclared)
	if err != nil {
		h.log.Debug("script failed", "file", filename, "error", err)
	}
	return globals, err
}

// Eval evaluates a single expression.
func (h *Host) Eval(thread *starlark.Thread, expr string, env starlark.StringDict) (starlark.Value, error) {
	return starlark.Eval(thread, "<expr>", expr, env)
}

func (h *Host) toGoArgs(args starlark.Tuple) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		g, err := h.toGo(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = g
	}
	return out, nil
}

// toGo converts a Starlark value to the host shapes the automation
// converter accepts.
func (h *Host) toGo(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case nil, starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		if n, ok := x.Int64(); ok {
			return n, nil
		}
		return float64(x.Float()), nil
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return string(x), nil
	case starlarktime.Time:
		return time.Time(x), nil
	case *Value:
		return x.obj, nil
	case starlark.Indexable:
		items := make([]any, x.Len())
		for i := range items {
			g, err := h.toGo(x.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = g
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: %s", automation.ErrUnsupported, v.Type())
}

// toStarlark converts a host value. self is returned when the value is the
// object self wraps.
func (h *Host) toStarlark(g any, self *Value) (starlark.Value, error) {
	switch x := g.(type) {
	case nil, automation.NullValue:
		return starlark.None, nil
	case bool:
		return starlark.Bool(x), nil
	case int32:
		return starlark.MakeInt64(int64(x)), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		return starlark.Float(x), nil
	case string:
		return starlark.String(x), nil
	case time.Time:
		return starlarktime.Time(x), nil
	case *automation.Object:
		if self != nil && x == self.obj {
			return self, nil
		}
		return h.Wrap(x), nil
	case map[string]automation.MemberKind:
		names := make([]string, 0, len(x))
		for name := range x {
			names = append(names, name)
		}
		sort.Strings(names)
		d := starlark.NewDict(len(names))
		for _, name := range names {
			if err := d.SetKey(starlark.String(name), starlark.String(x[name])); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	return nil, fmt.Errorf("cannot convert %T to a Starlark value", g)
}
