package automation

import (
	"log/slog"
	"time"
)

// Bridge holds what every Object shares: the value converter, the invoker
// and the logger. A Bridge is immutable once built and may be shared; the
// Objects it creates may not.
//
//	b, err := automation.New()
//	if err != nil { ... }
//	app := b.Wrap(automation.NewDispatch(provider))
//	defer app.Close()
type Bridge struct {
	conv *Converter
	inv  *Invoker
	log  *slog.Logger
}

type options struct {
	log      *slog.Logger
	codePage string
	tr       *Transcoder
	loc      *time.Location
}

// Option configures a Bridge.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithCodePage selects the provider's multibyte code page by name.
func WithCodePage(name string) Option {
	return func(o *options) { o.codePage = name }
}

// WithTranscoder sets the transcoder directly, overriding WithCodePage.
func WithTranscoder(tr *Transcoder) Option {
	return func(o *options) { o.tr = tr }
}

// WithLocation sets the location VT_DATE values are read in. The default is
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// New creates a Bridge. It fails only for an unknown code page.
func New(opts ...Option) (*Bridge, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.tr == nil {
		tr, err := NewTranscoder(o.codePage)
		if err != nil {
			return nil, err
		}
		o.tr = tr
	}
	return &Bridge{
		conv: NewConverter(o.tr, o.loc, o.log),
		inv:  NewInvoker(o.tr, o.log),
		log:  o.log,
	}, nil
}

// NewObject returns an Idle object holding VT_EMPTY.
func (b *Bridge) NewObject() *Object {
	return newObject(b, nil)
}

// Wrap returns an Idle object that takes ownership of v.
func (b *Bridge) Wrap(v *Variant) *Object {
	return newObject(b, v)
}

// Converter returns the bridge's value converter.
func (b *Bridge) Converter() *Converter {
	return b.conv
}

// Invoker returns the bridge's invoker.
func (b *Bridge) Invoker() *Invoker {
	return b.inv
}

// Logger returns the bridge's logger.
func (b *Bridge) Logger() *slog.Logger {
	return b.log
}

// reduce turns a call result into what Call and Get return: a new Object
// for a live dispatch, otherwise a host value. It takes ownership of rv.
func (b *Bridge) reduce(rv *Variant) any {
	if d, _ := rv.AsDispatch(); d != nil {
		return b.Wrap(rv)
	}
	h := b.conv.ToHost(rv, nil)
	rv.Clear()
	return h
}
