package fixture

import (
	"errors"
	"fmt"

	"github.com/feather-lang/automation"
)

// Property member IDs start here so they never collide with methods.
const firstVarID = 1000

var errNoTypeInfo = errors.New("type information not available")

type typeInfo struct {
	funcs []string
	vars  []string
}

// GetTypeInfo returns a snapshot of the object's members: methods as
// functions, properties as variables, each in name order.
func (o *Object) GetTypeInfo() (automation.TypeInfo, error) {
	if o.NoTypeInfo {
		return nil, errNoTypeInfo
	}
	return &typeInfo{
		funcs: sortedKeys(o.methods),
		vars:  sortedKeys(o.props),
	}, nil
}

func (ti *typeInfo) TypeAttr() (automation.TypeAttr, error) {
	return automation.TypeAttr{Funcs: len(ti.funcs), Vars: len(ti.vars)}, nil
}

func (ti *typeInfo) FuncDesc(index int) (automation.FuncDesc, error) {
	if index < 0 || index >= len(ti.funcs) {
		return automation.FuncDesc{}, fmt.Errorf("function index %d out of range", index)
	}
	return automation.FuncDesc{
		MemberID: automation.MemberID(index + 1),
		InvKind:  automation.InvokeFunc,
	}, nil
}

func (ti *typeInfo) VarDesc(index int) (automation.VarDesc, error) {
	if index < 0 || index >= len(ti.vars) {
		return automation.VarDesc{}, fmt.Errorf("variable index %d out of range", index)
	}
	return automation.VarDesc{MemberID: automation.MemberID(firstVarID + index)}, nil
}

func (ti *typeInfo) Names(id automation.MemberID) ([]string, error) {
	switch n := int(id); {
	case n >= 1 && n <= len(ti.funcs):
		return []string{ti.funcs[n-1]}, nil
	case n >= firstVarID && n < firstVarID+len(ti.vars):
		return []string{ti.vars[n-firstVarID]}, nil
	}
	return nil, fmt.Errorf("%w: member id %d", ErrUnknownName, id)
}

func (ti *typeInfo) Release() {}
