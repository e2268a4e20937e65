package recovery

// fixture.go provides the built-in dataset used when a session's source
// cannot be loaded. Serving a fixture instead of failing keeps the
// correction UI reachable for demos and for sources that have gone away;
// sessions built on it are flagged via SessionStatus.UsedFallback.

// FallbackRecordCount is the size of the built-in dataset.
const FallbackRecordCount = 5

// FallbackRecords returns a fresh copy of the built-in dataset. The
// records carry a representative mix of clean rows and known defects: a
// price that does not parse, a blank name, and a stock count that does
// not parse. Each call allocates new records, so callers may mutate the
// result freely.
func FallbackRecords() []*Record {
	r0 := NewRecord()
	r0.Set("name", StringValue("Wireless Mouse"))
	r0.Set("sku", StringValue("WM-1001"))
	r0.Set("price", NumberValue(29.99))
	r0.Set("stock", NumberValue(150))
	r0.Set("email", StringValue("support@acme.com"))

	r1 := NewRecord()
	r1.Set("name", StringValue("USB Cable"))
	r1.Set("sku", StringValue("UC-2040"))
	r1.Set("price", StringValue("invalid_price"))
	r1.Set("stock", NumberValue(75))

	r2 := NewRecord()
	r2.Set("name", StringValue("   "))
	r2.Set("sku", StringValue("KB-3310"))
	r2.Set("price", NumberValue(49.5))
	r2.Set("stock", NumberValue(30))

	r3 := NewRecord()
	r3.Set("name", StringValue("Laptop Stand"))
	r3.Set("price", NumberValue(89))
	r3.Set("stock", NumberValue(12))

	r4 := NewRecord()
	r4.Set("name", StringValue("Desk Lamp"))
	r4.Set("sku", StringValue("DL-7520"))
	r4.Set("price", NumberValue(24.99))
	r4.Set("stock", StringValue("bad_stock"))

	return []*Record{r0, r1, r2, r3, r4}
}
