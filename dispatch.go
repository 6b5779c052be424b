package automation

import (
	"fmt"
	"log/slog"
)

// Dispatch is the Automation Provider: an IDispatch-style object that
// resolves members by name. Names arrive as UTF-16 code units.
//
// Argument slices are in provider order, which is the reverse of the order
// the script wrote them. The provider must copy any argument it wants to
// keep; the Invoker clears them once the call returns.
//
// Results are new values owned by the caller. A nil result is VT_EMPTY.
type Dispatch interface {
	Invoke(name []uint16, args []*Variant, wantResult bool) (*Variant, error)
	GetProperty(name []uint16, args []*Variant) (*Variant, error)
	PutProperty(name []uint16, args []*Variant) error

	AddRef()
	Release()
}

// Invoker performs member calls against the Dispatch held by a Variant.
type Invoker struct {
	tr  *Transcoder
	log *slog.Logger
}

// NewInvoker returns an Invoker that transcodes member names with tr and
// reports provider failures to log.
func NewInvoker(tr *Transcoder, log *slog.Logger) *Invoker {
	if log == nil {
		log = slog.Default()
	}
	return &Invoker{tr: tr, log: log}
}

// Invoke calls method name on target's Dispatch. args must already be in
// provider order; the Invoker takes ownership of them.
func (iv *Invoker) Invoke(target *Variant, name string, args []*Variant) (*Variant, error) {
	return iv.do("invoke", target, name, args, func(d Dispatch, wname []uint16) (*Variant, error) {
		return d.Invoke(wname, args, true)
	})
}

// GetProperty reads property name, with optional index arguments.
func (iv *Invoker) GetProperty(target *Variant, name string, args []*Variant) (*Variant, error) {
	return iv.do("get", target, name, args, func(d Dispatch, wname []uint16) (*Variant, error) {
		return d.GetProperty(wname, args)
	})
}

// PutProperty writes property name. The last argument in provider order is
// the first one the script wrote; for a plain assignment args has length 1.
func (iv *Invoker) PutProperty(target *Variant, name string, args []*Variant) error {
	rv, err := iv.do("put", target, name, args, func(d Dispatch, wname []uint16) (*Variant, error) {
		return nil, d.PutProperty(wname, args)
	})
	rv.Clear()
	return err
}

func (iv *Invoker) do(op string, target *Variant, name string, args []*Variant,
	call func(Dispatch, []uint16) (*Variant, error)) (*Variant, error) {
	defer func() {
		for _, a := range args {
			a.Clear()
		}
	}()

	d, err := target.AsDispatch()
	if err != nil || d == nil {
		return nil, iv.fail(op, name, fmt.Errorf("%w: %s", ErrNotDispatch, target))
	}
	wname, err := iv.tr.ToWide(name)
	if err != nil {
		return nil, iv.fail(op, name, err)
	}
	rv, err := call(d, wname)
	if err != nil {
		rv.Clear()
		return nil, iv.fail(op, name, err)
	}
	if rv == nil {
		rv = NewEmpty()
	}
	return rv, nil
}

func (iv *Invoker) fail(op, name string, err error) error {
	iv.log.Error("automation call failed", "op", op, "member", name, "error", err)
	return &ProviderError{Op: op, Member: name, Err: err}
}
