package recovery

import (
	"errors"
	"testing"

	"github.com/remedyhq/remedy/internal/store"
)

func fallbackSession() *Session {
	meta := store.SessionMeta{
		ID:        "sess-test",
		OwnerID:   "user-1",
		SourceRef: "imports/products.csv",
		FileName:  "products.csv",
		Status:    store.StatusAwaitingFix,
	}
	return newSession(meta, FallbackRecords(), false)
}

// ----------------------------------------------------------------------------
// Single fix Tests
// ----------------------------------------------------------------------------

func TestApplyFix_ResolvesOutstandingFinding(t *testing.T) {
	sess := fallbackSession()
	before := len(sess.Outstanding())

	res, err := sess.ApplyFix(1, "price", StringValue("12.00"))
	if err != nil {
		t.Fatalf("ApplyFix() error: %v", err)
	}

	if !res.Success {
		t.Error("result.Success = false, want true")
	}
	if !res.NewValue.Equal(NumberValue(12)) {
		t.Errorf("result.NewValue = %+v, want number 12", res.NewValue)
	}
	if !res.OldValue.Equal(StringValue("invalid_price")) {
		t.Errorf("result.OldValue = %+v, want the original string", res.OldValue)
	}
	if res.ResolvedRule != RuleInvalidPrice {
		t.Errorf("result.ResolvedRule = %q, want %q", res.ResolvedRule, RuleInvalidPrice)
	}

	after := sess.Outstanding()
	if len(after) != before-1 {
		t.Errorf("outstanding count = %d, want %d", len(after), before-1)
	}
	if res.RemainingErrors != before-1 {
		t.Errorf("result.RemainingErrors = %d, want %d", res.RemainingErrors, before-1)
	}

	resolved := sess.Resolved()
	if len(resolved) != 1 {
		t.Fatalf("resolved count = %d, want 1", len(resolved))
	}
	if resolved[0].Rule != RuleInvalidPrice || resolved[0].RecordIndex != 1 {
		t.Errorf("resolved[0] = %s on record %d, want %s on record 1",
			resolved[0].Rule, resolved[0].RecordIndex, RuleInvalidPrice)
	}

	// The corrected record is now clean, so the informational
	// revalidation comes back empty.
	if len(res.Revalidation) != 0 {
		t.Errorf("revalidation = %+v, want none", res.Revalidation)
	}
}

func TestApplyFix_RevalidationReportsLeftovers(t *testing.T) {
	sess := fallbackSession()

	// Fixing the price on record 2 leaves its blank name in place. The
	// fix succeeds and the revalidation surfaces the name problem, but
	// the outstanding list is unchanged beyond normal bookkeeping.
	res, err := sess.ApplyFix(2, "price", StringValue("50"))
	if err != nil {
		t.Fatalf("ApplyFix() error: %v", err)
	}

	if len(res.Revalidation) != 1 || res.Revalidation[0].Rule != RuleRequiredName {
		t.Errorf("revalidation = %+v, want the blank-name finding", res.Revalidation)
	}

	// The name finding stays outstanding; revalidation is display-only.
	for _, f := range sess.Outstanding() {
		if f.RecordIndex == 2 && f.Field == "name" {
			return
		}
	}
	t.Error("blank-name finding missing from outstanding after unrelated fix")
}

func TestApplyFix_Idempotent(t *testing.T) {
	sess := fallbackSession()

	first, err := sess.ApplyFix(1, "price", StringValue("12.00"))
	if err != nil {
		t.Fatalf("first ApplyFix() error: %v", err)
	}
	second, err := sess.ApplyFix(1, "price", StringValue("12.00"))
	if err != nil {
		t.Fatalf("second ApplyFix() error: %v", err)
	}

	if !first.NewValue.Equal(second.NewValue) {
		t.Errorf("repeat fix produced different value: %+v vs %+v", first.NewValue, second.NewValue)
	}
	if second.ResolvedRule != RuleManualEdit {
		t.Errorf("second fix ResolvedRule = %q, want %q", second.ResolvedRule, RuleManualEdit)
	}

	// History appends on every application; the dataset does not change.
	resolved := sess.Resolved()
	if len(resolved) != 2 {
		t.Errorf("resolved count after repeat fix = %d, want 2", len(resolved))
	}
	if first.RemainingErrors != second.RemainingErrors {
		t.Errorf("remaining errors drifted: %d vs %d", first.RemainingErrors, second.RemainingErrors)
	}

	records := sess.Finalize()
	if !records[1].Get("price").Equal(NumberValue(12)) {
		t.Errorf("finalized price = %+v, want 12", records[1].Get("price"))
	}
}

func TestApplyFix_OutOfRange(t *testing.T) {
	sess := fallbackSession()

	tests := []struct {
		name  string
		index int
	}{
		{name: "negative", index: -1},
		{name: "past end", index: FallbackRecordCount},
		{name: "far past end", index: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sess.ApplyFix(tt.index, "price", NumberValue(1))
			if !errors.Is(err, ErrRecordOutOfRange) {
				t.Fatalf("ApplyFix(%d) error = %v, want ErrRecordOutOfRange", tt.index, err)
			}
		})
	}

	// A rejected fix mutates nothing.
	status := sess.Status()
	if status.ModifiedCount != 0 || status.ResolvedCount != 0 || status.OutstandingCount != 3 {
		t.Errorf("session mutated by out-of-range fix: %+v", status)
	}
}

func TestApplyFix_ManualEditOfCleanField(t *testing.T) {
	sess := fallbackSession()

	res, err := sess.ApplyFix(0, "name", StringValue("Wireless Mouse v2"))
	if err != nil {
		t.Fatalf("ApplyFix() error: %v", err)
	}
	if res.ResolvedRule != RuleManualEdit {
		t.Errorf("ResolvedRule = %q, want %q", res.ResolvedRule, RuleManualEdit)
	}

	resolved := sess.Resolved()
	if len(resolved) != 1 || resolved[0].Severity != SeverityInfo {
		t.Errorf("resolved = %+v, want one info entry", resolved)
	}
	if len(sess.Outstanding()) != 3 {
		t.Errorf("outstanding count = %d, want 3 (untouched)", len(sess.Outstanding()))
	}
}

func TestApplyFix_CoercesPerField(t *testing.T) {
	sess := fallbackSession()

	tests := []struct {
		name  string
		field string
		value Value
		want  Value
	}{
		{name: "stock floors negatives", field: "stock", value: StringValue("-5"), want: NumberValue(0)},
		{name: "flag narrows by truthiness", field: "active", value: StringValue("yes"), want: BoolValue(true)},
		{name: "text field keeps string form", field: "notes", value: NumberValue(7), want: StringValue("7")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := sess.ApplyFix(0, tt.field, tt.value)
			if err != nil {
				t.Fatalf("ApplyFix() error: %v", err)
			}
			if !res.NewValue.Equal(tt.want) {
				t.Errorf("NewValue = %+v, want %+v", res.NewValue, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Bulk fix Tests
// ----------------------------------------------------------------------------

func TestApplyBulkFix_CountsOnlyAutoFixCarriers(t *testing.T) {
	sess := fallbackSession()

	// The fallback dataset yields two findings with auto-fixes (price,
	// stock) and one without (name).
	res := sess.ApplyBulkFix("", sess.Outstanding())

	if res.FixedCount != 2 {
		t.Errorf("FixedCount = %d, want 2", res.FixedCount)
	}
	if res.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1", res.SkippedCount)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("Applied length = %d, want 2", len(res.Applied))
	}
	if res.RemainingErrors != 1 {
		t.Errorf("RemainingErrors = %d, want 1 (the name finding)", res.RemainingErrors)
	}

	// The applied list names exactly which findings landed.
	wantApplied := map[string]bool{"1:price": true, "4:stock": true}
	for _, f := range res.Applied {
		if !wantApplied[f.Key()] {
			t.Errorf("unexpected applied finding %s", f.Key())
		}
		delete(wantApplied, f.Key())
	}
	for key := range wantApplied {
		t.Errorf("finding %s missing from applied list", key)
	}
}

func TestApplyBulkFix_HalfWithoutAutoFix(t *testing.T) {
	sess := fallbackSession()

	findings := []Finding{
		{RecordIndex: 0, Field: "price", Rule: RuleInvalidPrice,
			AutoFix: &AutoFix{Action: FixActionReplace, NewValue: NumberValue(10), Confidence: 80}},
		{RecordIndex: 0, Field: "name", Rule: RuleRequiredName},
		{RecordIndex: 3, Field: "stock", Rule: RuleInvalidStock,
			AutoFix: &AutoFix{Action: FixActionReplace, NewValue: NumberValue(0), Confidence: 70}},
		{RecordIndex: 3, Field: "email", Rule: RuleInvalidEmail},
	}

	res := sess.ApplyBulkFix(RuleInvalidPrice, findings)
	if res.FixedCount != 2 {
		t.Errorf("FixedCount = %d, want exactly the auto-fix half", res.FixedCount)
	}
	if res.SkippedCount != 2 {
		t.Errorf("SkippedCount = %d, want 2", res.SkippedCount)
	}
	if res.Rule != RuleInvalidPrice {
		t.Errorf("Rule = %q, want the label passed through", res.Rule)
	}
}

func TestApplyBulkFix_SkipsOutOfRange(t *testing.T) {
	sess := fallbackSession()

	findings := []Finding{
		{RecordIndex: 99, Field: "price",
			AutoFix: &AutoFix{Action: FixActionReplace, NewValue: NumberValue(1), Confidence: 80}},
	}

	res := sess.ApplyBulkFix("", findings)
	if res.FixedCount != 0 || res.SkippedCount != 1 {
		t.Errorf("FixedCount/SkippedCount = %d/%d, want 0/1", res.FixedCount, res.SkippedCount)
	}
	if sess.Status().ModifiedCount != 0 {
		t.Error("out-of-range bulk entry mutated the session")
	}
}

func TestApplyBulkFix_EmptyList(t *testing.T) {
	sess := fallbackSession()

	res := sess.ApplyBulkFix("", nil)
	if !res.Success || res.FixedCount != 0 || res.SkippedCount != 0 {
		t.Errorf("empty bulk fix = %+v, want successful no-op", res)
	}
}

// ----------------------------------------------------------------------------
// Status and finalize Tests
// ----------------------------------------------------------------------------

func TestStatus_ProgressBounds(t *testing.T) {
	// No findings ever: progress pinned at 0, not NaN.
	clean := recordWith("name", StringValue("Fine"), "price", NumberValue(1))
	sess := newSession(store.SessionMeta{ID: "clean"}, []*Record{clean}, false)
	if got := sess.Status().Progress; got != 0 {
		t.Errorf("progress with no findings = %v, want 0", got)
	}

	// Resolving every finding drives progress to exactly 100.
	sess = fallbackSession()
	sess.ApplyBulkFix("", sess.Outstanding())
	if _, err := sess.ApplyFix(2, "name", StringValue("Mechanical Keyboard")); err != nil {
		t.Fatalf("ApplyFix() error: %v", err)
	}

	status := sess.Status()
	if status.OutstandingCount != 0 {
		t.Fatalf("OutstandingCount = %d, want 0", status.OutstandingCount)
	}
	if status.Progress != 100 {
		t.Errorf("progress after resolving everything = %v, want 100", status.Progress)
	}
	if status.ResolvedCount != 3 || status.TotalCount != 3 {
		t.Errorf("Resolved/Total = %d/%d, want 3/3", status.ResolvedCount, status.TotalCount)
	}
}

func TestStatus_PartialProgress(t *testing.T) {
	sess := fallbackSession()
	if _, err := sess.ApplyFix(1, "price", StringValue("12.00")); err != nil {
		t.Fatalf("ApplyFix() error: %v", err)
	}

	status := sess.Status()
	if status.ResolvedCount != 1 || status.OutstandingCount != 2 {
		t.Fatalf("Resolved/Outstanding = %d/%d, want 1/2", status.ResolvedCount, status.OutstandingCount)
	}
	want := 100.0 / 3.0
	if diff := status.Progress - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("Progress = %v, want about %v", status.Progress, want)
	}
	if status.ModifiedCount != 1 {
		t.Errorf("ModifiedCount = %d, want 1", status.ModifiedCount)
	}
}

func TestFinalize_FoldsModifiedOverOriginal(t *testing.T) {
	sess := fallbackSession()
	if _, err := sess.ApplyFix(1, "price", StringValue("12.00")); err != nil {
		t.Fatalf("ApplyFix() error: %v", err)
	}

	records := sess.Finalize()
	if len(records) != FallbackRecordCount {
		t.Fatalf("Finalize() returned %d records, want %d", len(records), FallbackRecordCount)
	}

	if !records[1].Get("price").Equal(NumberValue(12)) {
		t.Errorf("record 1 price = %+v, want 12", records[1].Get("price"))
	}
	// Untouched fields and records pass through unchanged.
	if !records[1].Get("name").Equal(StringValue("USB Cable")) {
		t.Errorf("record 1 name = %+v, want unchanged", records[1].Get("name"))
	}
	original := FallbackRecords()
	for _, i := range []int{0, 2, 3, 4} {
		if !records[i].Equal(original[i]) {
			t.Errorf("record %d changed without a fix", i)
		}
	}

	// Finalize does not clear the session.
	status := sess.Status()
	if status.ResolvedCount != 1 || status.OutstandingCount != 2 {
		t.Errorf("finalize mutated session state: %+v", status)
	}

	// The returned records are copies; mutating them leaves the
	// session's data alone.
	records[0].Set("name", StringValue("tampered"))
	again := sess.Finalize()
	if again[0].Get("name").Str != "Wireless Mouse" {
		t.Error("finalized records share state with the session")
	}
}

func TestFinalize_NegativePriceRoundTrip(t *testing.T) {
	rec := recordWith(
		"name", StringValue("Ledger"),
		"price", StringValue("-15.5"),
	)
	sess := newSession(store.SessionMeta{ID: "neg"}, []*Record{rec}, false)

	outstanding := sess.Outstanding()
	if len(outstanding) != 1 {
		t.Fatalf("outstanding = %d findings, want 1", len(outstanding))
	}
	fix := outstanding[0].AutoFix
	if fix == nil || !fix.NewValue.Equal(NumberValue(15.5)) {
		t.Fatalf("price auto-fix = %+v, want 15.5", fix)
	}

	res := sess.ApplyBulkFix(RuleInvalidPrice, outstanding)
	if res.FixedCount != 1 {
		t.Fatalf("FixedCount = %d, want 1", res.FixedCount)
	}

	out := sess.Finalize()
	got := out[0].Get("price")
	if got.Kind != KindNumber || got.Num != 15.5 {
		t.Errorf("finalized price = %+v, want number 15.5", got)
	}
}
