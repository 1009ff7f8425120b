package trade

// AuditMirror is a secondary forensic stream fed the same records the
// primary sink accepted, under the primary's record IDs.
type AuditMirror interface {
	WriteTrade(recordID string, h TradeHeader) error
	WriteItems(rows []ItemRow) error
}

// FanoutSink tees audit writes: the primary sink is authoritative and
// assigns record IDs, the mirror only echoes. A mirror failure never fails
// the trade; a primary header failure skips the mirror entirely so the two
// streams cannot disagree about which trades settled.
type FanoutSink struct {
	Primary AuditSink
	Mirror  AuditMirror
}

func (f FanoutSink) RecordTrade(h TradeHeader) (string, error) {
	id, err := f.Primary.RecordTrade(h)
	if err != nil {
		return "", err
	}
	if f.Mirror != nil {
		_ = f.Mirror.WriteTrade(id, h)
	}
	return id, nil
}

func (f FanoutSink) RecordItems(rows []ItemRow) error {
	if f.Mirror != nil {
		_ = f.Mirror.WriteItems(rows)
	}
	return f.Primary.RecordItems(rows)
}
