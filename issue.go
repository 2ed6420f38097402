package zonemeter

import "fmt"

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	SeverityError   Severity = iota // the affected write was refused
	SeverityWarning                 // the run continued with degraded data
)

// IssueKind classifies a diagnostic.
type IssueKind string

const (
	IssueUnresolvedColumn  IssueKind = "unresolved_column"
	IssueAmbiguousDate     IssueKind = "ambiguous_date"
	IssueDuplicateBlock    IssueKind = "duplicate_block"
	IssueStraddlingRegion  IssueKind = "straddling_region"
	IssueBlockConflict     IssueKind = "block_conflict"
	IssueResourceLocked    IssueKind = "resource_locked"
	IssueInvalidExpression IssueKind = "invalid_expression"
)

// Issue is a single diagnostic collected during a run. Issues accumulate
// alongside successful results; they never abort the run on their own.
type Issue struct {
	Severity Severity  `json:"severity"`
	Kind     IssueKind `json:"kind"`
	Ref      CellRef   `json:"-"`
	Cell     string    `json:"cell,omitempty"`
	Message  string    `json:"message"`
}

// NewIssue creates an Issue, filling Cell from ref when ref is set.
func NewIssue(sev Severity, kind IssueKind, ref CellRef, format string, args ...any) Issue {
	is := Issue{Severity: sev, Kind: kind, Ref: ref, Message: fmt.Sprintf(format, args...)}
	if ref.Row > 0 && ref.Col > 0 {
		is.Cell = ref.String()
	}
	return is
}

// String formats the issue as "[ERROR] Sheet1!A2: message" or "[WARN] ...".
func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	if i.Cell == "" {
		return fmt.Sprintf("[%s] %s", sev, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", sev, i.Cell, i.Message)
}

// MarshalText renders the severity for JSON outcomes.
func (s Severity) MarshalText() ([]byte, error) {
	if s == SeverityWarning {
		return []byte("warning"), nil
	}
	return []byte("error"), nil
}
