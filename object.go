package automation

import (
	"time"
)

// Object is the host-visible handle on one Variant. It implements the
// carry-over protocol that lets plain attribute syntax drive Automation
// members that may or may not take arguments:
//
//	p, _ := app.Attr("Total")  // no provider call yet; p is Pending("Total")
//	v, _ := p.(*Object).Invoke()  // Invoke("Total") with the call's arguments
//
// or, when the placeholder is used as a value instead of being called,
//
//	v, _ := p.(*Object).Primitive()  // GetProperty("Total")
//
// An Object is not safe for concurrent use; confine it to the goroutine
// that owns the provider (the apartment thread). Call Close when done.
type Object struct {
	b         *Bridge
	value     *Variant
	pending   string
	finalized bool
}

// Attribute is the result of resolving a name on an Object: either a
// *Method (an intrinsic bound to the object) or a Pending *Object.
type Attribute interface {
	isAttribute()
}

// Method is an intrinsic member bound to its receiver.
type Method struct {
	Name     string
	Obsolete bool
	recv     *Object
	fn       intrinsicFunc
}

func (*Method) isAttribute() {}
func (*Object) isAttribute() {}

// Call runs the intrinsic. Arguments follow the host calling convention:
// call and get take (name, []any), set takes (name, value), the rest none.
func (m *Method) Call(args ...any) (any, error) {
	return m.fn(m.recv, args)
}

// Receiver returns the object the method is bound to.
func (m *Method) Receiver() *Object {
	return m.recv
}

func newObject(b *Bridge, v *Variant) *Object {
	if v == nil {
		v = NewEmpty()
	}
	return &Object{b: b, value: v}
}

// Variant returns the wrapped value. It is borrowed: it stays owned by the
// Object and is replaced when a pending member is resolved.
func (o *Object) Variant() *Variant {
	return o.value
}

// Pending returns the member awaiting resolution, if any.
func (o *Object) Pending() (string, bool) {
	return o.pending, o.pending != ""
}

// -----------------------------------------------------------------------------
// Attribute protocol
// -----------------------------------------------------------------------------

// Attr resolves an attribute read. Intrinsic names return a *Method and
// leave the object untouched. Any other name returns a new Object holding a
// copy of this object's value and Pending(name); the provider is not called
// until that placeholder is invoked or used as a value.
//
// Reading an attribute of a Pending object first resolves the pending member
// as a property read, so chains like app.Workbooks.Count work.
func (o *Object) Attr(name string) (Attribute, error) {
	if in, ok := intrinsics[name]; ok {
		if in.obsolete {
			o.b.log.Debug("accessor is obsolete", "name", name)
		}
		return &Method{Name: name, Obsolete: in.obsolete, recv: o, fn: in.fn}, nil
	}
	if err := o.settle(); err != nil {
		return nil, err
	}
	return &Object{b: o.b, value: o.value.Copy(), pending: name}, nil
}

// SetAttr is attribute assignment. It is never deferred: it always writes
// the property with exactly one argument.
func (o *Object) SetAttr(name string, v any) error {
	return o.Set(name, v)
}

// Invoke calls a Pending object with arguments given in script order. The
// pending member is invoked as a method, the result replaces the object's
// value and the object returns to Idle. Invoking an Idle object is a
// protocol misuse: it is logged and returns nil without calling the
// provider.
func (o *Object) Invoke(args ...any) (any, error) {
	return o.flush(true, args)
}

// Flush resolves a Pending object as a zero-argument property read. Like
// Invoke, flushing an Idle object is logged and returns nil.
func (o *Object) Flush() (any, error) {
	return o.flush(false, nil)
}

// Primitive coerces the object to a host primitive, as a host does for
// stringification or boolean contexts. A Pending member is resolved as a
// property read first. A live dispatch reduces to its member listing.
func (o *Object) Primitive() (any, error) {
	if err := o.settle(); err != nil {
		return nil, err
	}
	if d, _ := o.value.AsDispatch(); d != nil {
		return DescribeMembers(o.value, o.b.log), nil
	}
	return o.b.conv.ToHost(o.value, o), nil
}

func (o *Object) settle() error {
	if o.pending == "" {
		return nil
	}
	_, err := o.flush(false, nil)
	return err
}

func (o *Object) flush(isCall bool, args []any) (any, error) {
	if o.pending == "" {
		o.b.log.Warn("nothing to flush", "error", ErrProtocolMisuse, "vt", o.value.TagName())
		return nil, nil
	}
	// cleared first so the object passed as its own argument converts
	// without flushing
	name := o.pending
	o.pending = ""
	vargs, err := o.providerArgs(args)
	if err != nil {
		o.pending = name
		return nil, err
	}

	var rv *Variant
	if isCall {
		rv, err = o.b.inv.Invoke(o.value, name, vargs)
	} else {
		rv, err = o.b.inv.GetProperty(o.value, name, vargs)
	}
	if err != nil {
		return nil, err
	}
	o.value.Clear()
	o.value = rv
	return o.b.conv.ToHost(rv, o), nil
}

// providerArgs converts script-order arguments and reverses them into
// provider order. Pending objects passed as arguments are resolved first.
func (o *Object) providerArgs(args []any) ([]*Variant, error) {
	vargs := make([]*Variant, len(args))
	for i, a := range args {
		if ao, ok := a.(*Object); ok && ao != nil {
			if err := ao.settle(); err != nil {
				clearAll(vargs)
				return nil, err
			}
		}
		v, err := o.b.conv.ToVariant(a)
		if err != nil {
			clearAll(vargs)
			return nil, err
		}
		// providers take arguments last to first
		vargs[len(args)-1-i] = v
	}
	return vargs, nil
}

func clearAll(vs []*Variant) {
	for _, v := range vs {
		v.Clear()
	}
}

// -----------------------------------------------------------------------------
// Direct member access
// -----------------------------------------------------------------------------

// Call invokes method name with arguments in script order, bypassing the
// carry-over placeholder. A dispatch result is returned as a new Object the
// caller owns; other results are reduced to host values.
func (o *Object) Call(name string, args ...any) (any, error) {
	return o.member(true, name, args)
}

// Get reads property name, with optional index arguments in script order.
func (o *Object) Get(name string, args ...any) (any, error) {
	return o.member(false, name, args)
}

// Set writes property name.
func (o *Object) Set(name string, v any) error {
	if err := o.settle(); err != nil {
		return err
	}
	arg, err := o.b.conv.ToVariant(v)
	if err != nil {
		return err
	}
	return o.b.inv.PutProperty(o.value, name, []*Variant{arg})
}

func (o *Object) member(isCall bool, name string, args []any) (any, error) {
	if err := o.settle(); err != nil {
		return nil, err
	}
	vargs, err := o.providerArgs(args)
	if err != nil {
		return nil, err
	}
	var rv *Variant
	if isCall {
		rv, err = o.b.inv.Invoke(o.value, name, vargs)
	} else {
		rv, err = o.b.inv.GetProperty(o.value, name, vargs)
	}
	if err != nil {
		return nil, err
	}
	return o.b.reduce(rv), nil
}

// -----------------------------------------------------------------------------
// Typed accessors
// -----------------------------------------------------------------------------

// IsA returns the type code of the value.
func (o *Object) IsA() (VarType, error) {
	if err := o.settle(); err != nil {
		return VT_EMPTY, err
	}
	return o.value.Type(), nil
}

// VTName returns the VT_ name of the value's type.
func (o *Object) VTName() (string, error) {
	if err := o.settle(); err != nil {
		return "", err
	}
	return o.value.TagName(), nil
}

// ToBoolean extracts a VT_BOOL.
func (o *Object) ToBoolean() (bool, error) {
	if err := o.settle(); err != nil {
		return false, err
	}
	return o.value.AsBool()
}

// ToInt32 extracts a VT_I4, VT_INT, VT_UI4 or VT_UINT.
func (o *Object) ToInt32() (int32, error) {
	if err := o.settle(); err != nil {
		return 0, err
	}
	return o.value.AsInt32()
}

// ToInt64 extracts a VT_I8 or VT_UI8.
func (o *Object) ToInt64() (int64, error) {
	if err := o.settle(); err != nil {
		return 0, err
	}
	return o.value.AsInt64()
}

// ToNumber extracts a VT_R8.
func (o *Object) ToNumber() (float64, error) {
	if err := o.settle(); err != nil {
		return 0, err
	}
	return o.value.AsDouble()
}

// ToDate extracts a VT_DATE in the bridge's location.
func (o *Object) ToDate() (time.Time, error) {
	if err := o.settle(); err != nil {
		return time.Time{}, err
	}
	return o.value.AsDate(o.b.conv.Location())
}

// ToUtf8 extracts a VT_BSTR. A null BSTR yields nil.
func (o *Object) ToUtf8() (any, error) {
	if err := o.settle(); err != nil {
		return nil, err
	}
	s, ok, err := o.value.AsString()
	if err != nil || !ok {
		return nil, err
	}
	return s, nil
}

// ToValue reduces the value to a host value. A live dispatch reduces to the
// object itself.
func (o *Object) ToValue() (any, error) {
	if err := o.settle(); err != nil {
		return nil, err
	}
	return o.b.conv.ToHost(o.value, o), nil
}

// -----------------------------------------------------------------------------
// Lifetime
// -----------------------------------------------------------------------------

// Finalize releases the value. It runs at most once; later calls do
// nothing. No finalizer is installed: releasing a provider reference from
// the garbage collector's goroutine would cross apartments.
func (o *Object) Finalize() {
	if o.finalized {
		return
	}
	o.value.Clear()
	o.pending = ""
	o.finalized = true
}

// Close is Finalize for use with defer and io.Closer.
func (o *Object) Close() error {
	o.Finalize()
	return nil
}
