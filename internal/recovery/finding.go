package recovery

import "fmt"

// Severity classifies how blocking a finding is. Errors must be resolved
// before the dataset is trustworthy; warnings are advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"

	// SeverityInfo marks resolution-history entries that never were
	// rule violations, such as manual edits to clean fields.
	SeverityInfo Severity = "info"
)

// Rule identifiers for the fixed validation catalog.
const (
	RuleRequiredName = "required_name"
	RuleInvalidPrice = "invalid_price"
	RuleSKUType      = "sku_type"
	RuleInvalidStock = "invalid_stock"
	RuleInvalidEmail = "invalid_email"

	// RuleManualEdit labels history entries for fixes applied to a
	// field with no outstanding finding. It is never produced by the
	// rule catalog.
	RuleManualEdit = "manual_edit"
)

// FixActionReplace is the only auto-fix action in the catalog:
// replace the field's value with the proposed one.
const FixActionReplace = "replace"

// AutoFix is a rule-proposed correction. It is carried on a finding for
// the caller to apply explicitly; the engine never applies one on its
// own.
type AutoFix struct {
	Action     string `json:"action"`
	NewValue   Value  `json:"newValue"`
	Confidence int    `json:"confidence"` // 0-100
}

// Finding is a single validation problem tied to one record and field.
type Finding struct {
	RecordIndex int      `json:"recordIndex"`
	Field       string   `json:"field"`
	Value       Value    `json:"value"`
	Rule        string   `json:"rule"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Suggestion  string   `json:"suggestion,omitempty"`
	AutoFix     *AutoFix `json:"autoFix,omitempty"`
}

// Key returns the logical identity of a finding: one finding per
// (record, field) pair may be outstanding at a time.
func (f Finding) Key() string {
	return fmt.Sprintf("%d:%s", f.RecordIndex, f.Field)
}
