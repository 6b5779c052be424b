package fixture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"

	"github.com/feather-lang/automation"
)

// Model is the YAML form of an object tree.
//
//	name: Application
//	properties:
//	  Visible: {type: bool, value: true}
//	  Created: {type: date, value: "2024-03-01 12:34:56.789"}
//	methods:
//	  Calculate: {returns: {type: r8, value: 3.5}}
//	  Echo:      {echo: true}
//	  Quit:      {fail: "application busy"}
//	objects:
//	  Workbooks: {properties: {Count: {type: i4, value: 2}}}
type Model struct {
	Name       string                `yaml:"name"`
	Properties map[string]ValueSpec  `yaml:"properties"`
	Methods    map[string]MethodSpec `yaml:"methods"`
	Objects    map[string]Model      `yaml:"objects"`
	NoTypeInfo bool                  `yaml:"no_typeinfo"`
}

// ValueSpec is a typed literal. Type is one of empty, null, bool, i4, int,
// ui4, uint, i8, ui8, r8, date, bstr or array. A date value is either a
// serial or a string in any layout dateparse accepts.
type ValueSpec struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// MethodSpec describes a method: it returns a fixed value, echoes its first
// argument, or fails. A method with none of these returns VT_EMPTY.
type MethodSpec struct {
	Returns *ValueSpec `yaml:"returns"`
	Echo    bool       `yaml:"echo"`
	Fail    string     `yaml:"fail"`
}

// Load reads a model file and builds its object tree. Date strings are read
// as wall-clock time in loc (time.Local when nil).
func Load(path string, loc *time.Location) (*Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	o, err := Parse(data, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// Parse builds an object tree from YAML model data.
func Parse(data []byte, loc *time.Location) (*Object, error) {
	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if m.Name == "" {
		m.Name = "root"
	}
	return m.Build(loc)
}

// Build creates the object tree described by m.
func (m Model) Build(loc *time.Location) (*Object, error) {
	if loc == nil {
		loc = time.Local
	}
	o := New(m.Name)
	o.NoTypeInfo = m.NoTypeInfo
	for _, name := range sortedKeys(m.Properties) {
		v, err := m.Properties[name].Variant(loc)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Name, name, err)
		}
		o.SetProperty(name, v)
	}
	for _, name := range sortedKeys(m.Methods) {
		fn, err := m.Methods[name].method(loc)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Name, name, err)
		}
		o.DefineMethod(name, fn)
	}
	for _, name := range sortedKeys(m.Objects) {
		cm := m.Objects[name]
		if cm.Name == "" {
			cm.Name = name
		}
		child, err := cm.Build(loc)
		if err != nil {
			return nil, err
		}
		o.AddChild(name, child)
		// the property now holds the only reference
		child.Release()
	}
	return o, nil
}

func (ms MethodSpec) method(loc *time.Location) (MethodFunc, error) {
	switch {
	case ms.Fail != "":
		return Fails(ms.Fail), nil
	case ms.Echo:
		return Echo(), nil
	case ms.Returns != nil:
		v, err := ms.Returns.Variant(loc)
		if err != nil {
			return nil, err
		}
		return Returns(v), nil
	}
	return Returns(automation.NewEmpty()), nil
}

// Variant builds the described value.
func (vs ValueSpec) Variant(loc *time.Location) (*automation.Variant, error) {
	switch vs.Type {
	case "", "empty":
		return automation.NewEmpty(), nil
	case "null":
		return automation.NewNull(), nil
	case "bool":
		b, ok := vs.Value.(bool)
		if !ok {
			return nil, vs.mismatch()
		}
		return automation.NewBool(b), nil
	case "i4", "int", "ui4", "uint", "i8", "ui8":
		n, err := vs.integer()
		if err != nil {
			return nil, err
		}
		return automation.NewInteger(integerTypes[vs.Type], n)
	case "r8":
		f, err := vs.float()
		if err != nil {
			return nil, err
		}
		return automation.NewDouble(f), nil
	case "date":
		return vs.date(loc)
	case "bstr":
		switch s := vs.Value.(type) {
		case nil:
			return automation.NewBSTR(nil), nil
		case string:
			return automation.NewString(s), nil
		}
		return nil, vs.mismatch()
	case "array":
		return automation.NewRaw(automation.VT_ARRAY | automation.VT_VARIANT), nil
	}
	return nil, fmt.Errorf("unknown value type %q", vs.Type)
}

var integerTypes = map[string]automation.VarType{
	"i4":   automation.VT_I4,
	"int":  automation.VT_INT,
	"ui4":  automation.VT_UI4,
	"uint": automation.VT_UINT,
	"i8":   automation.VT_I8,
	"ui8":  automation.VT_UI8,
}

func (vs ValueSpec) mismatch() error {
	return fmt.Errorf("expected %s value but got %T", vs.Type, vs.Value)
}

func (vs ValueSpec) integer() (int64, error) {
	switch n := vs.Value.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if vs.Type != "ui8" {
			return 0, fmt.Errorf("%d out of range for %s", n, vs.Type)
		}
		return int64(n), nil
	}
	return 0, vs.mismatch()
}

func (vs ValueSpec) float() (float64, error) {
	switch n := vs.Value.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, nil
		}
	}
	return 0, vs.mismatch()
}

func (vs ValueSpec) date(loc *time.Location) (*automation.Variant, error) {
	switch d := vs.Value.(type) {
	case string:
		t, err := dateparse.ParseIn(d, loc)
		if err != nil {
			return nil, err
		}
		return automation.NewTime(t, loc)
	case time.Time:
		return automation.NewTime(d, loc)
	case int, int64, float64:
		serial, err := vs.float()
		if err != nil {
			return nil, err
		}
		if _, err := automation.SerialToSystemTime(serial); err != nil {
			return nil, err
		}
		return automation.NewDate(serial), nil
	}
	return nil, vs.mismatch()
}
