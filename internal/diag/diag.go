// Package diag carries this module's diagnostics: coded, leveled messages
// for the precondition violations, undefined-use, and unsupported-operation
// failures described in spec §7. It mirrors kanso's internal/errors package
// (a coded CompilerError plus a colorized ErrorReporter) but is adapted from
// source-position diagnostics to compiler-invariant diagnostics, since this
// module has no source positions to point at.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code ranges, mirroring kanso's own E0001-E0099-style convention:
//
//	B01xx: precondition violations (missing pass prerequisite, etc.)
//	B02xx: undefined-use / internal invariant failures
//	B03xx: unsupported operation (no lowering for an IR shape)
const (
	CodeMissingPrerequisite = "B0101"
	CodeDuplicateTerminator = "B0102" // informational only — never fatal, see spec §7
	CodeUndefinedUse        = "B0201"
	CodeBrokenInvariant     = "B0202"
	CodeUnsupportedOp       = "B0301"
)

// Severity is the level of a Diagnostic.
type Severity string

const (
	Error Severity = "error"
	Note  Severity = "note"
)

// Diagnostic is a single coded, leveled message.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
}

// Fault is the panic payload for an internal invariant failure (spec §7:
// "internal invariant failures are fatal to the compilation — no partial
// output is emitted"). It carries a stack trace via pkg/errors so the
// single API boundary that recovers it (see Recover) can report exactly
// where the invariant broke.
type Fault struct {
	Diagnostic Diagnostic
	Cause      error
}

func (f *Fault) Error() string {
	return f.Diagnostic.String()
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// Raise panics with a *Fault built from code and a formatted message,
// stack-wrapped via pkg/errors.WithStack.
func Raise(code string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(&Fault{
		Diagnostic: Diagnostic{Severity: Error, Code: code, Message: msg},
		Cause:      errors.WithStack(fmt.Errorf("%s", msg)),
	})
}

// Recover turns a recovered *Fault panic into an error, and re-panics any
// other recovered value (it is not this package's job to swallow genuine
// programmer bugs such as nil-pointer derefs). Call as:
//
//	defer func() { err = diag.Recover(recover()) }()
func Recover(r any) error {
	if r == nil {
		return nil
	}
	if f, ok := r.(*Fault); ok {
		return f
	}
	panic(r)
}
