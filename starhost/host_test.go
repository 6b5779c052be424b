package starhost_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"

	"github.com/feather-lang/automation"
	"github.com/feather-lang/automation/fixture"
	"github.com/feather-lang/automation/starhost"
)

const model = `
name: Application
properties:
  Name:    {type: bstr, value: Excel}
  Visible: {type: bool, value: true}
  Empty:   {type: bstr, value: ""}
  Created: {type: date, value: "2024-03-01 12:34:56"}
methods:
  Add:   {echo: true}
  Total: {returns: {type: r8, value: 42}}
  Quit:  {fail: application busy}
objects:
  Workbooks:
    properties:
      Count: {type: i4, value: 2}
`

type session struct {
	root   *fixture.Object
	host   *starhost.Host
	thread *starlark.Thread
	env    starlark.StringDict
	out    *bytes.Buffer
}

func newSession(t *testing.T) *session {
	t.Helper()
	root, err := fixture.Parse([]byte(model), time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	b, err := automation.New(automation.WithCodePage("utf-8"), automation.WithLocation(time.UTC), automation.WithLogger(log))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s := &session{root: root, host: starhost.NewHost(log), out: &bytes.Buffer{}}
	s.thread = &starlark.Thread{
		Name:  "test",
		Print: func(_ *starlark.Thread, msg string) { s.out.WriteString(msg + "\n") },
	}
	s.env = s.host.Predeclared(b.Wrap(automation.NewDispatch(root)), "app")
	t.Cleanup(func() { s.host.Close() })
	return s
}

func (s *session) exec(t *testing.T, src string) starlark.StringDict {
	t.Helper()
	globals, err := s.host.Exec(s.thread, "test.star", src, s.env)
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	return globals
}

func TestScript(t *testing.T) {
	s := newSession(t)
	g := s.exec(t, `
app.Visible = False
name = app.Name.valueOf()
label = str(app.Name)
total = app.Total()
count = app.Workbooks.Count.valueOf()
echoed = app.Add("a", "b")
nested = app.Add(app.Name)
print(app.Name)
`)

	tests := []struct {
		name string
		want string
	}{
		{"name", `"Excel"`},
		{"label", `"Excel"`},
		{"total", "42.0"},
		{"count", "2"},
		{"echoed", `"b"`},
		{"nested", `"Excel"`},
	}
	for _, tt := range tests {
		if got := g[tt.name].String(); got != tt.want {
			t.Errorf("%s = %s; want %s", tt.name, got, tt.want)
		}
	}
	if s.out.String() != "Excel\n" {
		t.Errorf("print output = %q; want \"Excel\\n\"", s.out.String())
	}
	v, _ := s.root.Property("Visible")
	if v.String() != "VT_BOOL(false)" {
		t.Errorf("Visible = %s; want VT_BOOL(false)", v)
	}
	if n := s.root.Recorder().Count("invoke", "Add"); n != 2 {
		t.Errorf("invoke Add count = %d; want 2", n)
	}
}

func TestTruth(t *testing.T) {
	s := newSession(t)
	g := s.exec(t, `
visible = bool(app.Visible)
empty = bool(app.Empty)
live = bool(app.Workbooks)
`)
	for name, want := range map[string]starlark.Bool{"visible": true, "empty": false, "live": true} {
		if g[name] != want {
			t.Errorf("%s = %v; want %v", name, g[name], want)
		}
	}
}

func TestDates(t *testing.T) {
	s := newSession(t)
	g := s.exec(t, `
created = app.Created.valueOf()
app.Modified = time.time(year = 2024, month = 3, day = 2, location = "UTC")
`)
	created, ok := g["created"].(starlarktime.Time)
	if !ok {
		t.Fatalf("created is %T; want time.time", g["created"])
	}
	want := time.Date(2024, 3, 1, 12, 34, 56, 0, time.UTC)
	if !time.Time(created).Equal(want) {
		t.Errorf("created = %v; want %v", time.Time(created), want)
	}
	v, _ := s.root.Property("Modified")
	if v.String() != "VT_DATE(2024-03-02 00:00:00.000)" {
		t.Errorf("Modified = %s", v)
	}
}

func TestMembers(t *testing.T) {
	s := newSession(t)
	g := s.exec(t, `
members = app.Workbooks.valueOf()
names = dir(app)
`)
	d, ok := g["members"].(*starlark.Dict)
	if !ok {
		t.Fatalf("members is %T; want dict", g["members"])
	}
	kind, found, _ := d.Get(starlark.String("Count"))
	if !found || kind != starlark.String("Variable") {
		t.Errorf("members[Count] = %v; want \"Variable\"", kind)
	}
	names := g["names"].String()
	for _, want := range []string{`"Add"`, `"Visible"`, `"toString"`} {
		if !strings.Contains(names, want) {
			t.Errorf("dir(app) = %s; missing %s", names, want)
		}
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"ProviderFailure", "app.Quit()", "application busy"},
		{"Kwargs", "app.Add(x = 1)", "unexpected keyword arguments"},
		{"Unsupported", "app.Add(len)", "unsupported value"},
		{"Array", "app.Add([1, 2])", "not implemented"},
		{"Hash", "d = {app: 1}", "unhashable"},
		{"IntrinsicArgs", "app.call(1)", "the first argument is not a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			_, err := s.host.Exec(s.thread, "test.star", tt.src, s.env)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Exec(%q) error = %v; want %q", tt.src, err, tt.want)
			}
		})
	}
}

func TestCloseReleases(t *testing.T) {
	s := newSession(t)
	s.exec(t, `
a = app.Name.valueOf()
b = app.Workbooks.Count.valueOf()
c = app.Total()
`)
	if s.host.Len() == 0 {
		t.Fatal("host holds no objects")
	}
	s.host.Close()
	if s.root.Refs() != 0 || s.root.OverReleases() != 0 {
		t.Errorf("Refs() = %d, OverReleases() = %d; want 0, 0", s.root.Refs(), s.root.OverReleases())
	}
	if s.host.Len() != 0 {
		t.Errorf("Len() after Close = %d; want 0", s.host.Len())
	}
}

func TestEval(t *testing.T) {
	s := newSession(t)
	v, err := s.host.Eval(s.thread, "app.Total()", s.env)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if v != starlark.Float(42) {
		t.Errorf("Eval() = %v; want 42.0", v)
	}
}
