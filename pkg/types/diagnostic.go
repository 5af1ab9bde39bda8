package types

// Severity represents the severity level of a diagnostic
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Diagnostic represents a host-facing analysis finding for one file
type Diagnostic struct {
	URI      string
	Range    Range
	Severity Severity
	Message  string
	Source   string // Identifier of the producer, e.g. "mlint" or "parser"
	Code     string // Analyzer rule code if present, e.g. "NASGU"
}

// Validate checks that the diagnostic is well formed
func (d *Diagnostic) Validate() error {
	if d.URI == "" {
		return ErrMissingURI
	}
	if d.Range.Start.Line < 1 {
		return ErrInvalidPosition
	}
	if d.Message == "" {
		return ErrEmptyMessage
	}
	switch d.Severity {
	case SeverityError, SeverityWarning, SeverityInfo, SeverityHint:
		return nil
	default:
		return ErrInvalidSeverity
	}
}
