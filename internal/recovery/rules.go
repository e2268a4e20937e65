package recovery

// rules.go implements the validation rule catalog.
//
// The catalog is deliberately small and fixed: required name, sane
// price, string-typed SKU, sane stock count, well-formed email. Each
// rule is a pure function from (record, index) to at most one finding,
// so a full pass produces at most one finding per (record, field) pair.
// Malformed values are treated as invalid rather than rejected; a rule
// pass never fails.
//
// Rules run in catalog order, which fixes the order findings are
// reported in but carries no severity meaning.

import (
	"math"
	"regexp"
	"strings"
)

// emailPattern matches the local@domain.tld shape. Deliberately loose;
// the goal is catching obvious typos, not RFC 5322 conformance.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ruleFunc inspects one record and returns a finding or nil.
type ruleFunc func(rec *Record, index int) *Finding

// ruleCatalog is evaluated in order by ValidateRecord. Extending the
// catalog is an append here plus a rule identifier in finding.go; the
// engine contracts do not change.
var ruleCatalog = []ruleFunc{
	checkRequiredName,
	checkPrice,
	checkSKUType,
	checkStock,
	checkEmail,
}

// ValidateRecord runs the full rule catalog against a single record.
// Deterministic and side-effect free.
func ValidateRecord(rec *Record, index int) []Finding {
	var findings []Finding
	for _, rule := range ruleCatalog {
		if f := rule(rec, index); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

// ValidateAll runs the catalog over every record, in record order.
func ValidateAll(records []*Record) []Finding {
	var findings []Finding
	for i, rec := range records {
		findings = append(findings, ValidateRecord(rec, i)...)
	}
	return findings
}

// present reports whether a field value participates in validation:
// absent values and empty strings do not.
func present(v Value) bool {
	if v.IsAbsent() {
		return false
	}
	return !(v.Kind == KindString && strings.TrimSpace(v.Str) == "")
}

// checkRequiredName flags a missing or blank name. No auto-fix: only
// the user knows what the record should be called.
func checkRequiredName(rec *Record, index int) *Finding {
	v := rec.Get("name")
	if !v.IsBlank() {
		return nil
	}
	return &Finding{
		RecordIndex: index,
		Field:       "name",
		Value:       v,
		Rule:        RuleRequiredName,
		Severity:    SeverityError,
		Message:     "Name is required",
		Suggestion:  "Enter a name for this record",
	}
}

// checkPrice flags a price that does not read as a non-negative number.
// The auto-fix proposes the absolute value, or 0 when the value does not
// parse at all.
func checkPrice(rec *Record, index int) *Finding {
	v := rec.Get("price")
	if !present(v) {
		return nil
	}

	n, ok := v.AsNumber()
	if ok && n >= 0 {
		return nil
	}

	proposed := 0.0
	if ok {
		proposed = math.Abs(n)
	}

	return &Finding{
		RecordIndex: index,
		Field:       "price",
		Value:       v,
		Rule:        RuleInvalidPrice,
		Severity:    SeverityError,
		Message:     "Price must be a non-negative number",
		Suggestion:  "Remove currency symbols and use a plain decimal",
		AutoFix: &AutoFix{
			Action:     FixActionReplace,
			NewValue:   NumberValue(proposed),
			Confidence: 80,
		},
	}
}

// checkSKUType flags a SKU that arrived as a non-string scalar, which
// usually means a spreadsheet turned "1001" into a number and dropped
// leading zeros. The auto-fix proposes the string form.
func checkSKUType(rec *Record, index int) *Finding {
	v := rec.Get("sku")
	if v.IsAbsent() || v.Kind == KindString {
		return nil
	}

	return &Finding{
		RecordIndex: index,
		Field:       "sku",
		Value:       v,
		Rule:        RuleSKUType,
		Severity:    SeverityWarning,
		Message:     "SKU should be text",
		Suggestion:  "Store SKUs as text to preserve leading zeros",
		AutoFix: &AutoFix{
			Action:     FixActionReplace,
			NewValue:   StringValue(v.AsString()),
			Confidence: 90,
		},
	}
}

// checkStock flags a stock count that does not read as a non-negative
// number. The auto-fix proposes 0.
func checkStock(rec *Record, index int) *Finding {
	v := rec.Get("stock")
	if !present(v) {
		return nil
	}

	n, ok := v.AsNumber()
	if ok && n >= 0 {
		return nil
	}

	return &Finding{
		RecordIndex: index,
		Field:       "stock",
		Value:       v,
		Rule:        RuleInvalidStock,
		Severity:    SeverityWarning,
		Message:     "Stock must be a non-negative number",
		Suggestion:  "Use a whole number, or 0 if out of stock",
		AutoFix: &AutoFix{
			Action:     FixActionReplace,
			NewValue:   NumberValue(0),
			Confidence: 70,
		},
	}
}

// checkEmail flags a string-typed email that does not look like
// local@domain.tld. Non-string email values are left for the SKU-style
// type rules to grow into; this rule only reads strings. No auto-fix:
// guessing an address would invent data.
func checkEmail(rec *Record, index int) *Finding {
	v := rec.Get("email")
	if !present(v) || v.Kind != KindString {
		return nil
	}
	if emailPattern.MatchString(strings.TrimSpace(v.Str)) {
		return nil
	}

	return &Finding{
		RecordIndex: index,
		Field:       "email",
		Value:       v,
		Rule:        RuleInvalidEmail,
		Severity:    SeverityError,
		Message:     "Email address is not valid",
		Suggestion:  "Use the form name@example.com",
	}
}
