// Package stdlib implements the standard library surface spec.md §4.5
// and §6 enumerate: the Std, Number, String, List, Map, Set, and Object
// scopes every script can call into without an explicit import.
//
// Grounded on the teacher's instance/eval/builtins.go dispatch style,
// generalized from one flat builtin table into library.Func values
// registered under per-scope names (see library.Registry). Per-function
// semantics are, as spec.md §1 says, "conventional... not the hard
// part" — each one is a thin adapter from library.Impl's unboxed
// value.Value arguments onto the corresponding value package method.
package stdlib

import (
	"io"
	"os"

	"github.com/stof-engine/stof/library"
)

// Register installs every standard library scope into reg, writing
// Std.print output to os.Stdout.
func Register(reg *library.Registry) {
	RegisterWithWriter(reg, os.Stdout)
}

// RegisterWithWriter is Register with an overridable print sink, used
// by host tests that capture output.
func RegisterWithWriter(reg *library.Registry, out io.Writer) {
	registerStd(reg, out)
	registerNumber(reg)
	registerString(reg)
	registerList(reg)
	registerMap(reg)
	registerSet(reg)
	registerObject(reg)
}
