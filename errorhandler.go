// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "fmt"

// ErrorKind classifies an accumulated [ErrorHandler] record, see spec.md
// §7 ("Error taxonomy").
type ErrorKind int

const (
	// ErrParse marks malformed configuration text.
	ErrParse ErrorKind = iota + 1
	// ErrLink marks an unknown class, port count mismatch, push/pull
	// conflict, or orphan port.
	ErrLink
	// ErrConfigure marks an invalid element argument.
	ErrConfigure
	// ErrInitialize marks a failed resource acquisition.
	ErrInitialize
)

// String implements [fmt.Stringer].
func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "parse"
	case ErrLink:
		return "link"
	case ErrConfigure:
		return "configure"
	case ErrInitialize:
		return "initialize"
	default:
		return "unknown"
	}
}

// ErrorRecord is one accumulated message, see spec.md §7. Context
// identifies where the error occurred: a "file:line:column" triple for
// [ErrParse], an element name for [ErrConfigure]/[ErrInitialize], or a
// connection description for [ErrLink].
type ErrorRecord struct {
	Kind    ErrorKind
	Context string
	Message string
}

// Error implements the error interface so an [ErrorRecord] can be
// returned or wrapped on its own.
func (r ErrorRecord) Error() string {
	if r.Context == "" {
		return fmt.Sprintf("%s: %s", r.Kind, r.Message)
	}
	return fmt.Sprintf("%s: %s: %s", r.Kind, r.Context, r.Message)
}

// ErrorHandler accumulates link-time error records (categories 1-4 of
// spec.md §7) across a configure or link phase, so the linker can report
// every failing element in one pass rather than aborting at the first
// one (spec.md §4.3 step 6, "the linker collects all configure errors
// across elements before aborting").
//
// Categories 5-7 (runtime packet errors, resource exhaustion, LLRPC
// errors) never reach an ErrorHandler: they are local and statistical,
// surfaced through [SLogger.Debug] events classified by [ErrClassifier]
// and per-element counter handlers instead.
type ErrorHandler struct {
	records []ErrorRecord
}

// NewErrorHandler returns an empty [*ErrorHandler].
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Error appends a record of the given kind.
func (h *ErrorHandler) Error(kind ErrorKind, context, format string, args ...any) {
	h.records = append(h.records, ErrorRecord{
		Kind:    kind,
		Context: context,
		Message: fmt.Sprintf(format, args...),
	})
}

// Count returns the number of accumulated records.
func (h *ErrorHandler) Count() int { return len(h.records) }

// OK reports whether no errors have been accumulated.
func (h *ErrorHandler) OK() bool { return len(h.records) == 0 }

// Records returns the accumulated records in the order they were added.
func (h *ErrorHandler) Records() []ErrorRecord {
	return h.records
}

// Reset discards every accumulated record, for reuse across a live
// reconfigure attempt.
func (h *ErrorHandler) Reset() {
	h.records = h.records[:0]
}

// Err returns nil if no errors were accumulated, or an error
// summarizing every record otherwise.
func (h *ErrorHandler) Err() error {
	if h.OK() {
		return nil
	}
	return &MultiError{Records: h.records}
}

// MultiError wraps every record an [ErrorHandler] accumulated during one
// phase.
type MultiError struct {
	Records []ErrorRecord
}

// Error implements the error interface, reporting the count and the
// first failing record for a concise top-level message; callers that
// need the full list should inspect Records directly.
func (e *MultiError) Error() string {
	if len(e.Records) == 1 {
		return e.Records[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %s", len(e.Records), e.Records[0].Error())
}
