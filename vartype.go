package automation

import (
	"fmt"
	"strings"
)

// VarType is an Automation variant type code (the VARIANT vt field).
type VarType uint16

// Variant type codes.
const (
	VT_EMPTY       VarType = 0
	VT_NULL        VarType = 1
	VT_I2          VarType = 2
	VT_I4          VarType = 3
	VT_R4          VarType = 4
	VT_R8          VarType = 5
	VT_CY          VarType = 6
	VT_DATE        VarType = 7
	VT_BSTR        VarType = 8
	VT_DISPATCH    VarType = 9
	VT_ERROR       VarType = 10
	VT_BOOL        VarType = 11
	VT_VARIANT     VarType = 12
	VT_UNKNOWN     VarType = 13
	VT_DECIMAL     VarType = 14
	VT_I1          VarType = 16
	VT_UI1         VarType = 17
	VT_UI2         VarType = 18
	VT_UI4         VarType = 19
	VT_I8          VarType = 20
	VT_UI8         VarType = 21
	VT_INT         VarType = 22
	VT_UINT        VarType = 23
	VT_VOID        VarType = 24
	VT_HRESULT     VarType = 25
	VT_PTR         VarType = 26
	VT_SAFEARRAY   VarType = 27
	VT_CARRAY      VarType = 28
	VT_USERDEFINED VarType = 29
	VT_LPSTR       VarType = 30
	VT_LPWSTR      VarType = 31
	VT_RECORD      VarType = 36

	VT_VECTOR   VarType = 0x1000
	VT_ARRAY    VarType = 0x2000
	VT_BYREF    VarType = 0x4000
	VT_RESERVED VarType = 0x8000

	vtTypeMask VarType = 0x0fff
)

// vtNames is indexed by type code. Gaps in the code space are empty.
var vtNames = [...]string{
	VT_EMPTY:       "VT_EMPTY",
	VT_NULL:        "VT_NULL",
	VT_I2:          "VT_I2",
	VT_I4:          "VT_I4",
	VT_R4:          "VT_R4",
	VT_R8:          "VT_R8",
	VT_CY:          "VT_CY",
	VT_DATE:        "VT_DATE",
	VT_BSTR:        "VT_BSTR",
	VT_DISPATCH:    "VT_DISPATCH",
	VT_ERROR:       "VT_ERROR",
	VT_BOOL:        "VT_BOOL",
	VT_VARIANT:     "VT_VARIANT",
	VT_UNKNOWN:     "VT_UNKNOWN",
	VT_DECIMAL:     "VT_DECIMAL",
	VT_I1:          "VT_I1",
	VT_UI1:         "VT_UI1",
	VT_UI2:         "VT_UI2",
	VT_UI4:         "VT_UI4",
	VT_I8:          "VT_I8",
	VT_UI8:         "VT_UI8",
	VT_INT:         "VT_INT",
	VT_UINT:        "VT_UINT",
	VT_VOID:        "VT_VOID",
	VT_HRESULT:     "VT_HRESULT",
	VT_PTR:         "VT_PTR",
	VT_SAFEARRAY:   "VT_SAFEARRAY",
	VT_CARRAY:      "VT_CARRAY",
	VT_USERDEFINED: "VT_USERDEFINED",
	VT_LPSTR:       "VT_LPSTR",
	VT_LPWSTR:      "VT_LPWSTR",
	VT_RECORD:      "VT_RECORD",
}

// VTNames returns the name table indexed by type code.
// Codes without a name map to the empty string.
func VTNames() []string {
	names := make([]string, len(vtNames))
	copy(names, vtNames[:])
	return names
}

// String returns the VT_ name of the type code, including modifier flags,
// e.g. "VT_ARRAY|VT_VARIANT".
func (vt VarType) String() string {
	var parts []string
	if vt&VT_VECTOR != 0 {
		parts = append(parts, "VT_VECTOR")
	}
	if vt&VT_ARRAY != 0 {
		parts = append(parts, "VT_ARRAY")
	}
	if vt&VT_BYREF != 0 {
		parts = append(parts, "VT_BYREF")
	}
	base := vt & vtTypeMask
	if int(base) < len(vtNames) && vtNames[base] != "" {
		parts = append(parts, vtNames[base])
	} else {
		parts = append(parts, fmt.Sprintf("VT_0x%04x", uint16(base)))
	}
	return strings.Join(parts, "|")
}

// IsArray reports whether the type carries the array or vector modifier.
func (vt VarType) IsArray() bool {
	return vt&(VT_ARRAY|VT_VECTOR) != 0 || vt == VT_SAFEARRAY || vt == VT_CARRAY
}

// describeTypes joins type names with " nor ", the way mismatch errors list
// the accepted tags.
func describeTypes(vts []VarType) string {
	names := make([]string, len(vts))
	for i, vt := range vts {
		names[i] = vt.String()
	}
	return strings.Join(names, " nor ")
}
