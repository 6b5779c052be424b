// Package fixture provides an in-memory Automation Provider. Objects are
// built in Go or loaded from YAML, record every call made on them and count
// their references, which makes them suitable both as test doubles and as a
// stand-in object model for the olesh command.
package fixture

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf16"

	"github.com/feather-lang/automation"
)

// ErrUnknownName is returned for a member the object does not define
// (DISP_E_UNKNOWNNAME).
var ErrUnknownName = errors.New("unknown name")

// MethodFunc implements a method. args are in provider order and owned by
// the caller; copy any argument that must outlive the call.
type MethodFunc func(args []*automation.Variant) (*automation.Variant, error)

// Call is one recorded provider call.
type Call struct {
	Object string
	Op     string // "invoke", "get" or "put"
	Member string
	Args   []*automation.Variant // copies, provider order
}

// Recorder collects calls across an object tree.
type Recorder struct {
	calls []Call
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []Call {
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of op on member were recorded.
func (r *Recorder) Count(op, member string) int {
	n := 0
	for _, c := range r.calls {
		if c.Op == op && c.Member == member {
			n++
		}
	}
	return n
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	for _, c := range r.calls {
		for _, a := range c.Args {
			a.Clear()
		}
	}
	r.calls = nil
}

// Object is a scriptable Automation object.
type Object struct {
	name         string
	props        map[string]*automation.Variant
	methods      map[string]MethodFunc
	rec          *Recorder
	refs         int
	overReleases int

	// NoTypeInfo makes GetTypeInfo fail.
	NoTypeInfo bool
}

var (
	_ automation.Dispatch         = (*Object)(nil)
	_ automation.TypeInfoProvider = (*Object)(nil)
)

// New returns an object holding one reference, which belongs to the caller
// (typically handed straight to automation.NewDispatch).
func New(name string) *Object {
	return &Object{
		name:    name,
		props:   make(map[string]*automation.Variant),
		methods: make(map[string]MethodFunc),
		rec:     &Recorder{},
		refs:    1,
	}
}

// Name returns the object's name.
func (o *Object) Name() string {
	return o.name
}

// Recorder returns the call recorder shared by the object's tree.
func (o *Object) Recorder() *Recorder {
	return o.rec
}

// Refs returns the current reference count.
func (o *Object) Refs() int {
	return o.refs
}

// OverReleases returns how many times Release was called with no
// reference left.
func (o *Object) OverReleases() int {
	return o.overReleases
}

// SetProperty defines or replaces a property, taking ownership of v.
func (o *Object) SetProperty(name string, v *automation.Variant) *Object {
	if old, ok := o.props[name]; ok {
		old.Clear()
	}
	o.props[name] = v
	return o
}

// Property returns the current value of a property without copying it.
func (o *Object) Property(name string) (*automation.Variant, bool) {
	v, ok := o.props[name]
	return v, ok
}

// DefineMethod defines or replaces a method.
func (o *Object) DefineMethod(name string, fn MethodFunc) *Object {
	o.methods[name] = fn
	return o
}

// AddChild stores child as a VT_DISPATCH property. The property holds its
// own reference and child joins this object's recorder.
func (o *Object) AddChild(name string, child *Object) *Object {
	child.AddRef()
	child.share(o.rec)
	return o.SetProperty(name, automation.NewDispatch(child))
}

func (o *Object) share(rec *Recorder) {
	o.rec = rec
	for _, v := range o.props {
		if d, _ := v.AsDispatch(); d != nil {
			if child, ok := d.(*Object); ok && child.rec != rec {
				child.share(rec)
			}
		}
	}
}

// Returns is a method that returns a copy of v on every call.
func Returns(v *automation.Variant) MethodFunc {
	return func([]*automation.Variant) (*automation.Variant, error) {
		return v.Copy(), nil
	}
}

// Echo is a method that returns a copy of its first provider-order
// argument, or VT_EMPTY without arguments.
func Echo() MethodFunc {
	return func(args []*automation.Variant) (*automation.Variant, error) {
		if len(args) == 0 {
			return automation.NewEmpty(), nil
		}
		return args[0].Copy(), nil
	}
}

// Fails is a method that always fails with msg.
func Fails(msg string) MethodFunc {
	return func([]*automation.Variant) (*automation.Variant, error) {
		return nil, errors.New(msg)
	}
}

// -----------------------------------------------------------------------------
// automation.Dispatch
// -----------------------------------------------------------------------------

func (o *Object) record(op, member string, args []*automation.Variant) {
	copies := make([]*automation.Variant, len(args))
	for i, a := range args {
		copies[i] = a.Copy()
	}
	o.rec.calls = append(o.rec.calls, Call{Object: o.name, Op: op, Member: member, Args: copies})
}

func (o *Object) unknown(member string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownName, o.name, member)
}

// Invoke calls a method. A name with no method and no arguments falls back
// to the property of that name, as providers accepting
// DISPATCH_METHOD|DISPATCH_PROPERTYGET do.
func (o *Object) Invoke(name []uint16, args []*automation.Variant, wantResult bool) (*automation.Variant, error) {
	member := decodeName(name)
	o.record("invoke", member, args)
	var rv *automation.Variant
	if fn, ok := o.methods[member]; ok {
		var err error
		if rv, err = fn(args); err != nil {
			return nil, err
		}
	} else if p, ok := o.props[member]; ok && len(args) == 0 {
		rv = p.Copy()
	} else {
		return nil, o.unknown(member)
	}
	if !wantResult {
		rv.Clear()
		return nil, nil
	}
	return rv, nil
}

// GetProperty reads a property. Index arguments are recorded but not
// interpreted; a parameterised "property" can be modelled as a method.
func (o *Object) GetProperty(name []uint16, args []*automation.Variant) (*automation.Variant, error) {
	member := decodeName(name)
	o.record("get", member, args)
	if p, ok := o.props[member]; ok {
		return p.Copy(), nil
	}
	if fn, ok := o.methods[member]; ok {
		return fn(args)
	}
	return nil, o.unknown(member)
}

// PutProperty writes a property from its single argument.
func (o *Object) PutProperty(name []uint16, args []*automation.Variant) error {
	member := decodeName(name)
	o.record("put", member, args)
	if len(args) == 0 {
		return fmt.Errorf("put %s: missing value", member)
	}
	if _, ok := o.methods[member]; ok {
		return fmt.Errorf("put %s: member is a method", member)
	}
	o.SetProperty(member, args[0].Copy())
	return nil
}

// AddRef adds a reference.
func (o *Object) AddRef() {
	o.refs++
}

// Release drops a reference. When the last one goes the object's
// properties are cleared, releasing any children.
func (o *Object) Release() {
	if o.refs == 0 {
		o.overReleases++
		return
	}
	o.refs--
	if o.refs == 0 {
		for _, v := range o.props {
			v.Clear()
		}
	}
}

func decodeName(name []uint16) string {
	return string(utf16.Decode(name))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
