package automation

import (
	"errors"
	"log/slog"
)

// MemberID identifies a member in a provider's type information.
type MemberID int32

// InvokeKind is the FUNCDESC invkind.
type InvokeKind int

const (
	InvokeFunc           InvokeKind = 1
	InvokePropertyGet    InvokeKind = 2
	InvokePropertyPut    InvokeKind = 4
	InvokePropertyPutRef InvokeKind = 8
)

// TypeAttr holds the member counts of a type.
type TypeAttr struct {
	Funcs int
	Vars  int
}

// FuncDesc describes one function member.
type FuncDesc struct {
	MemberID MemberID
	InvKind  InvokeKind
}

// VarDesc describes one variable member.
type VarDesc struct {
	MemberID MemberID
}

// TypeInfo is the subset of ITypeInfo used for member listings.
type TypeInfo interface {
	TypeAttr() (TypeAttr, error)
	FuncDesc(index int) (FuncDesc, error)
	VarDesc(index int) (VarDesc, error)
	Names(id MemberID) ([]string, error)
	Release()
}

// TypeInfoProvider is implemented by Dispatch values that expose type
// information.
type TypeInfoProvider interface {
	GetTypeInfo() (TypeInfo, error)
}

// MemberKind labels an entry of a member listing.
type MemberKind string

const (
	MemberFunction MemberKind = "Function"
	MemberVariable MemberKind = "Variable"
)

var errNoTypeInfo = errors.New("no type information")

// DescribeMembers lists the members of v's Dispatch by name. It is a
// display aid: any failure yields an empty map, never an error.
func DescribeMembers(v *Variant, log *slog.Logger) map[string]MemberKind {
	if log == nil {
		log = slog.Default()
	}
	members := make(map[string]MemberKind)
	if err := describeMembers(v, members); err != nil {
		log.Debug("member listing unavailable", "value", v.String(), "error", err)
		return make(map[string]MemberKind)
	}
	return members
}

func describeMembers(v *Variant, members map[string]MemberKind) error {
	d, err := v.AsDispatch()
	if err != nil {
		return err
	}
	tp, ok := d.(TypeInfoProvider)
	if d == nil || !ok {
		return errNoTypeInfo
	}
	ti, err := tp.GetTypeInfo()
	if err != nil {
		return err
	}
	if ti == nil {
		return errNoTypeInfo
	}
	defer ti.Release()

	attr, err := ti.TypeAttr()
	if err != nil {
		return err
	}
	for i := 0; i < attr.Funcs; i++ {
		fd, err := ti.FuncDesc(i)
		if err != nil {
			return err
		}
		if name := memberName(ti, fd.MemberID); name != "" {
			members[name] = MemberFunction
		}
	}
	for i := 0; i < attr.Vars; i++ {
		vd, err := ti.VarDesc(i)
		if err != nil {
			return err
		}
		if name := memberName(ti, vd.MemberID); name != "" {
			members[name] = MemberVariable
		}
	}
	return nil
}

func memberName(ti TypeInfo, id MemberID) string {
	names, err := ti.Names(id)
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}
