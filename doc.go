// Package automation lets a script host drive an Automation (IDispatch-style)
// object model with ordinary attribute and call syntax.
//
// # Overview
//
// Automation members come in two flavours a script cannot tell apart: a
// property may be read with or without index arguments, and a method may be
// called with or without arguments. A script attribute read carries no
// arguments and says nothing about whether a call follows. This package
// resolves the mismatch lazily:
//
//   - [Variant] is the tagged Automation value (VT_I4, VT_BSTR, VT_DISPATCH, ...)
//     with checked accessors that never coerce between tags.
//   - [Converter] maps Go host values to Variants and back.
//   - [Invoker] performs Invoke, GetProperty and PutProperty on a [Dispatch].
//   - [Object] wraps one Variant and implements the carry-over protocol.
//   - [DescribeMembers] lists a dispatch's members for display.
//
// # Quick Start
//
//	b, err := automation.New(automation.WithCodePage("windows-1252"))
//	if err != nil {
//	    return err
//	}
//	app := b.Wrap(automation.NewDispatch(provider))
//	defer app.Close()
//
//	// app.Visible = true
//	app.SetAttr("Visible", true)
//
//	// app.Workbooks.Add() - chained reads resolve as property gets,
//	// the final call as a method invoke.
//	wbs, _ := app.Attr("Workbooks")
//	add, _ := wbs.(*automation.Object).Attr("Add")
//	wb, _ := add.(*automation.Object).Invoke()
//
// # Carry-over
//
// [Object.Attr] never calls the provider for a plain member name. It returns
// a new Object in the Pending(name) state holding a copy of the receiver's
// value. What happens next decides how the member is resolved:
//
//	placeholder.Invoke(args...)   // Invoke(name, args), args reversed
//	placeholder.Primitive()       // GetProperty(name) with no arguments
//	placeholder.ToInt32() ...     // GetProperty(name), then extract
//	placeholder.Attr("Next")      // GetProperty(name), then a new placeholder
//
// Either way the result replaces the placeholder's value and it becomes Idle
// again. Assignments ([Object.SetAttr]) are never deferred.
//
// Names in the intrinsic table ([IntrinsicNames]) are answered locally, so
// host machinery that probes toString, valueOf, inspect and friends never
// reaches the provider.
//
// # Threading
//
// Nothing here locks. Automation providers usually live in a single-threaded
// apartment; keep every Object on the goroutine that owns its provider and
// release it with Close.
package automation
