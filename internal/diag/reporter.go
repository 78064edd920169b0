package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter renders Diagnostics to a writer with rustc-style coloring,
// mirroring kanso's ErrorReporter.FormatError.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Report writes one formatted diagnostic line.
func (r *Reporter) Report(d Diagnostic) {
	levelColor := color.New(color.FgRed, color.Bold)
	if d.Severity == Note {
		levelColor = color.New(color.FgCyan, color.Bold)
	}
	fmt.Fprintf(r.w, "%s[%s]: %s\n", levelColor.Sprint(string(d.Severity)), d.Code, d.Message)
}

// ReportFault formats an internal Fault, including its cause chain.
func (r *Reporter) ReportFault(f *Fault) {
	r.Report(f.Diagnostic)
	if f.Cause != nil {
		dim := color.New(color.Faint)
		fmt.Fprintf(r.w, "  %s %v\n", dim.Sprint("caused by:"), f.Cause)
	}
}
