package automation_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/feather-lang/automation"
	"github.com/feather-lang/automation/fixture"
)

const appModel = `
name: Application
properties:
  Name:    {type: bstr, value: Excel}
  Visible: {type: bool, value: true}
  Nothing: {type: null}
methods:
  Add:   {echo: true}
  Total: {returns: {type: r8, value: 42}}
  Quit:  {fail: application busy}
objects:
  Workbooks:
    properties:
      Count: {type: i4, value: 2}
`

func newBridge(t *testing.T) (*automation.Bridge, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b, err := automation.New(
		automation.WithCodePage("utf-8"),
		automation.WithLogger(log),
		automation.WithLocation(time.UTC),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b, &buf
}

func newApp(t *testing.T) (*automation.Object, *fixture.Object, *bytes.Buffer) {
	t.Helper()
	root, err := fixture.Parse([]byte(appModel), time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	b, logs := newBridge(t)
	app := b.Wrap(automation.NewDispatch(root))
	t.Cleanup(func() { app.Close() })
	return app, root, logs
}

func attr(t *testing.T, o *automation.Object, name string) *automation.Object {
	t.Helper()
	a, err := o.Attr(name)
	if err != nil {
		t.Fatalf("Attr(%q) failed: %v", name, err)
	}
	p, ok := a.(*automation.Object)
	if !ok {
		t.Fatalf("Attr(%q) = %T; want *automation.Object", name, a)
	}
	return p
}

func TestAttrDefers(t *testing.T) {
	app, root, _ := newApp(t)

	p := attr(t, app, "Total")
	defer p.Close()
	if p == app {
		t.Fatal("Attr returned the receiver; want a new object")
	}
	if name, ok := p.Pending(); !ok || name != "Total" {
		t.Errorf("Pending() = %q, %v; want \"Total\", true", name, ok)
	}
	if _, ok := app.Pending(); ok {
		t.Error("receiver became pending")
	}
	if n := len(root.Recorder().Calls()); n != 0 {
		t.Errorf("provider saw %d calls before use; want 0", n)
	}
	if root.Refs() != 2 {
		t.Errorf("Refs() = %d; want 2 (receiver and placeholder)", root.Refs())
	}
}

func TestInvokeOnce(t *testing.T) {
	app, root, _ := newApp(t)

	p := attr(t, app, "Add")
	defer p.Close()
	got, err := p.Invoke("a", "b")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	calls := root.Recorder().Calls()
	if len(calls) != 1 {
		t.Fatalf("len(Calls()) = %d; want 1", len(calls))
	}
	c := calls[0]
	if c.Op != "invoke" || c.Member != "Add" || len(c.Args) != 2 {
		t.Fatalf("call = %+v; want invoke Add with 2 args", c)
	}
	// provider order is the reverse of script order
	first, _, _ := c.Args[0].AsString()
	second, _, _ := c.Args[1].AsString()
	if first != "b" || second != "a" {
		t.Errorf("provider args = [%s %s]; want [b a]", first, second)
	}
	if got != "b" {
		t.Errorf("Invoke() = %#v; want \"b\"", got)
	}
	if _, ok := p.Pending(); ok {
		t.Error("object is still pending after Invoke")
	}
}

func TestPrimitiveGets(t *testing.T) {
	app, root, _ := newApp(t)

	p := attr(t, app, "Name")
	defer p.Close()
	got, err := p.Primitive()
	if err != nil {
		t.Fatalf("Primitive failed: %v", err)
	}
	if got != "Excel" {
		t.Errorf("Primitive() = %#v; want \"Excel\"", got)
	}
	calls := root.Recorder().Calls()
	if len(calls) != 1 || calls[0].Op != "get" || calls[0].Member != "Name" || len(calls[0].Args) != 0 {
		t.Errorf("Calls() = %+v; want one get Name without args", calls)
	}

	// already resolved: no second call
	if got, err := p.Primitive(); err != nil || got != "Excel" {
		t.Errorf("second Primitive() = %#v, %v", got, err)
	}
	if n := len(root.Recorder().Calls()); n != 1 {
		t.Errorf("len(Calls()) = %d; want 1", n)
	}
}

func TestDoubleFlush(t *testing.T) {
	app, root, logs := newApp(t)

	p := attr(t, app, "Total")
	defer p.Close()
	if _, err := p.Invoke(); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	got, err := p.Invoke()
	if got != nil || err != nil {
		t.Errorf("second Invoke() = %#v, %v; want nil, nil", got, err)
	}
	got, err = p.Flush()
	if got != nil || err != nil {
		t.Errorf("Flush() = %#v, %v; want nil, nil", got, err)
	}
	if n := len(root.Recorder().Calls()); n != 1 {
		t.Errorf("len(Calls()) = %d; want 1", n)
	}
	if !strings.Contains(logs.String(), automation.ErrProtocolMisuse.Error()) {
		t.Errorf("protocol misuse was not logged: %s", logs.String())
	}
}

func TestCallForms(t *testing.T) {
	app, _, _ := newApp(t)

	p := attr(t, app, "Total")
	defer p.Close()
	viaInvoke, err := p.Invoke()
	if err != nil {
		t.Fatal(err)
	}
	viaGet, err := app.Get("Total")
	if err != nil {
		t.Fatal(err)
	}
	viaCall, err := app.Call("Total")
	if err != nil {
		t.Fatal(err)
	}
	if viaInvoke != 42.0 || viaGet != 42.0 || viaCall != 42.0 {
		t.Errorf("Total() = %v, Get(Total) = %v, Call(Total) = %v; want 42", viaInvoke, viaGet, viaCall)
	}
}

func TestSetAttr(t *testing.T) {
	app, root, _ := newApp(t)

	if err := app.SetAttr("Item", 5); err != nil {
		t.Fatalf("SetAttr failed: %v", err)
	}
	calls := root.Recorder().Calls()
	if len(calls) != 1 {
		t.Fatalf("len(Calls()) = %d; want 1", len(calls))
	}
	c := calls[0]
	if c.Op != "put" || c.Member != "Item" || len(c.Args) != 1 || c.Args[0].String() != "VT_I4(5)" {
		t.Errorf("call = %s %s %v; want put Item [VT_I4(5)]", c.Op, c.Member, c.Args)
	}
	v, ok := root.Property("Item")
	if !ok || v.String() != "VT_I4(5)" {
		t.Errorf("Item = %v; want VT_I4(5)", v)
	}
}

func TestSetAttrOnPending(t *testing.T) {
	app, root, _ := newApp(t)

	wbs := attr(t, app, "Workbooks")
	defer wbs.Close()
	if err := wbs.SetAttr("Count", 3); err != nil {
		t.Fatalf("SetAttr failed: %v", err)
	}
	if root.Recorder().Count("get", "Workbooks") != 1 || root.Recorder().Count("put", "Count") != 1 {
		t.Errorf("Calls() = %+v; want get Workbooks then put Count", root.Recorder().Calls())
	}
}

func TestChaining(t *testing.T) {
	app, root, _ := newApp(t)

	wbs := attr(t, app, "Workbooks")
	defer wbs.Close()
	count := attr(t, wbs, "Count")
	defer count.Close()
	if root.Recorder().Count("get", "Workbooks") != 1 {
		t.Error("reading an attribute of a placeholder did not resolve it")
	}
	got, err := count.Primitive()
	if err != nil {
		t.Fatalf("Primitive failed: %v", err)
	}
	if got != int32(2) {
		t.Errorf("Workbooks.Count = %#v; want int32(2)", got)
	}
	calls := root.Recorder().Calls()
	if len(calls) != 2 || calls[1].Object != "Workbooks" || calls[1].Member != "Count" {
		t.Errorf("Calls() = %+v; want get Workbooks, get Workbooks.Count", calls)
	}
}

func TestDispatchResult(t *testing.T) {
	app, _, _ := newApp(t)

	p := attr(t, app, "Workbooks")
	defer p.Close()
	got, err := p.Invoke()
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != p {
		t.Errorf("Invoke() = %#v; want the object itself", got)
	}
	if name, err := p.VTName(); err != nil || name != "VT_DISPATCH" {
		t.Errorf("VTName() = %q, %v; want VT_DISPATCH", name, err)
	}
	members, err := p.Primitive()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]automation.MemberKind{"Count": automation.MemberVariable}
	if m, ok := members.(map[string]automation.MemberKind); !ok || len(m) != 1 || m["Count"] != want["Count"] {
		t.Errorf("Primitive() = %#v; want %v", members, want)
	}

	wbs, err := app.Call("Workbooks")
	if err != nil {
		t.Fatal(err)
	}
	o, ok := wbs.(*automation.Object)
	if !ok {
		t.Fatalf("Call(Workbooks) = %T; want *automation.Object", wbs)
	}
	defer o.Close()
	if n, err := o.Get("Count"); err != nil || n != int32(2) {
		t.Errorf("Get(Count) = %#v, %v; want int32(2)", n, err)
	}
}

func TestPendingArgument(t *testing.T) {
	app, root, _ := newApp(t)

	name := attr(t, app, "Name")
	defer name.Close()
	add := attr(t, app, "Add")
	defer add.Close()
	got, err := add.Invoke(name)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != "Excel" {
		t.Errorf("Add(Name) = %#v; want \"Excel\"", got)
	}
	calls := root.Recorder().Calls()
	if len(calls) != 2 || calls[0].Member != "Name" || calls[1].Member != "Add" {
		t.Errorf("Calls() = %+v; want get Name, invoke Add", calls)
	}
}

func TestProviderFailure(t *testing.T) {
	app, _, logs := newApp(t)

	p := attr(t, app, "Quit")
	defer p.Close()
	_, err := p.Invoke()
	var pe *automation.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Invoke() error = %v; want *ProviderError", err)
	}
	if pe.Op != "invoke" || pe.Member != "Quit" {
		t.Errorf("ProviderError = %+v; want invoke Quit", pe)
	}
	if !strings.Contains(err.Error(), "application busy") {
		t.Errorf("Error() = %q; want provider message", err.Error())
	}
	if !strings.Contains(logs.String(), "member=Quit") {
		t.Errorf("provider failure was not logged: %s", logs.String())
	}

	_, err = app.Get("Nope")
	if !errors.Is(err, fixture.ErrUnknownName) {
		t.Errorf("Get(Nope) error = %v; want ErrUnknownName", err)
	}
}

func TestTypeQueryFailure(t *testing.T) {
	app, _, _ := newApp(t)

	p := attr(t, app, "Quit")
	defer p.Close()
	if vt, err := p.IsA(); !strings.Contains(fmt.Sprint(err), "application busy") {
		t.Errorf("IsA() = %s, %v; want the provider error", vt, err)
	}

	q := attr(t, app, "Quit")
	defer q.Close()
	var pe *automation.ProviderError
	if name, err := q.VTName(); !errors.As(err, &pe) || name != "" {
		t.Errorf("VTName() = %q, %v; want *ProviderError", name, err)
	}
}

func TestInvokeWithSelf(t *testing.T) {
	app, root, _ := newApp(t)

	p := attr(t, app, "Add")
	defer p.Close()
	got, err := p.Invoke(p)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != p {
		t.Errorf("Invoke(p) = %#v; want the object itself", got)
	}
	calls := root.Recorder().Calls()
	if len(calls) != 1 {
		t.Fatalf("Calls() = %+v; want one invoke", calls)
	}
	c := calls[0]
	if c.Op != "invoke" || c.Member != "Add" || len(c.Args) != 1 || c.Args[0].Type() != automation.VT_DISPATCH {
		t.Errorf("Calls()[0] = %+v; want invoke Add(VT_DISPATCH)", c)
	}
	if _, ok := p.Pending(); ok {
		t.Error("object is still pending after Invoke")
	}
}

func TestNotDispatch(t *testing.T) {
	b, _ := newBridge(t)
	o := b.Wrap(automation.NewInt32(1))
	defer o.Close()
	if _, err := o.Call("Foo"); !errors.Is(err, automation.ErrNotDispatch) {
		t.Errorf("Call() error = %v; want ErrNotDispatch", err)
	}
	n := b.NewObject()
	if vt, err := n.IsA(); err != nil || vt != automation.VT_EMPTY {
		t.Errorf("NewObject().IsA() = %s, %v; want VT_EMPTY", vt, err)
	}
}

func TestArgumentConversionError(t *testing.T) {
	app, root, _ := newApp(t)

	p := attr(t, app, "Add")
	defer p.Close()
	_, err := p.Invoke(1, func() {})
	if !errors.Is(err, automation.ErrUnsupported) {
		t.Errorf("Invoke() error = %v; want ErrUnsupported", err)
	}
	if n := len(root.Recorder().Calls()); n != 0 {
		t.Errorf("len(Calls()) = %d; want 0", n)
	}
	if _, ok := p.Pending(); !ok {
		t.Error("failed conversion cleared the pending member")
	}
}

func TestTypedAccessors(t *testing.T) {
	app, _, _ := newApp(t)

	visible := attr(t, app, "Visible")
	defer visible.Close()
	if b, err := visible.ToBoolean(); err != nil || !b {
		t.Errorf("ToBoolean() = %v, %v; want true, nil", b, err)
	}
	if _, err := visible.ToInt32(); !errors.Is(err, automation.ErrTypeMismatch) {
		t.Errorf("ToInt32() error = %v; want ErrTypeMismatch", err)
	}

	name := attr(t, app, "Name")
	defer name.Close()
	if s, err := name.ToUtf8(); err != nil || s != "Excel" {
		t.Errorf("ToUtf8() = %#v, %v; want \"Excel\"", s, err)
	}
	if vt, err := name.IsA(); err != nil || vt != automation.VT_BSTR {
		t.Errorf("IsA() = %s, %v; want VT_BSTR", vt, err)
	}

	total := attr(t, app, "Total")
	defer total.Close()
	if f, err := total.ToNumber(); err != nil || f != 42 {
		t.Errorf("ToNumber() = %v, %v; want 42, nil", f, err)
	}

	nothing := attr(t, app, "Nothing")
	defer nothing.Close()
	if v, err := nothing.ToValue(); err != nil || v != automation.Null {
		t.Errorf("ToValue() = %#v, %v; want Null", v, err)
	}
}

func TestFinalize(t *testing.T) {
	root := fixture.New("App")
	b, _ := newBridge(t)
	app := b.Wrap(automation.NewDispatch(root))

	p := attr(t, app, "Anything")
	if root.Refs() != 2 {
		t.Fatalf("Refs() = %d; want 2", root.Refs())
	}
	p.Finalize()
	p.Finalize()
	if root.Refs() != 1 {
		t.Errorf("Refs() after double Finalize = %d; want 1", root.Refs())
	}
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}
	app.Close()
	if root.Refs() != 0 || root.OverReleases() != 0 {
		t.Errorf("Refs() = %d, OverReleases() = %d; want 0, 0", root.Refs(), root.OverReleases())
	}
	if n := len(root.Recorder().Calls()); n != 0 {
		t.Errorf("finalizing a placeholder called the provider %d times", n)
	}
}

func TestReferenceBalance(t *testing.T) {
	root, err := fixture.Parse([]byte(appModel), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newBridge(t)
	app := b.Wrap(automation.NewDispatch(root))

	for _, name := range []string{"Name", "Total", "Workbooks"} {
		p := attr(t, app, name)
		if _, err := p.Primitive(); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		p.Close()
	}
	app.Close()
	if root.Refs() != 0 || root.OverReleases() != 0 {
		t.Errorf("Refs() = %d, OverReleases() = %d; want 0, 0", root.Refs(), root.OverReleases())
	}
}
