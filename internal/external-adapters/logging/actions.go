package logging

import (
	"fmt"
	"io"
	"strings"
)

// AnnotationWriter emits GitHub Actions workflow commands on stdout.
// These are the run's machine-readable signals, distinct from the log
// stream on stderr: the runner turns ::error:: into a red annotation on
// the job regardless of log verbosity.
type AnnotationWriter struct {
	out io.Writer
}

// NewAnnotationWriter creates an annotation writer
func NewAnnotationWriter(out io.Writer) *AnnotationWriter {
	return &AnnotationWriter{out: out}
}

// Error emits an ::error:: annotation carrying the failure message
func (w *AnnotationWriter) Error(msg string) {
	fmt.Fprintf(w.out, "::error::%s\n", escapeData(msg))
}

// Notice emits a ::notice:: annotation
func (w *AnnotationWriter) Notice(msg string) {
	fmt.Fprintf(w.out, "::notice::%s\n", escapeData(msg))
}

// Group opens a collapsible log group in the job output
func (w *AnnotationWriter) Group(name string) {
	fmt.Fprintf(w.out, "::group::%s\n", escapeData(name))
}

// EndGroup closes the current log group
func (w *AnnotationWriter) EndGroup() {
	fmt.Fprintln(w.out, "::endgroup::")
}

// escapeData applies the workflow-command data escaping rules
func escapeData(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		"\r", "%0D",
		"\n", "%0A",
	)
	return r.Replace(s)
}
