// File: internal/memory/ledger.go
package memory

import (
	"fmt"
	"sync"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// Ledger is an append-only, step-ordered list of action records. Records are
// never modified once appended; readers receive copies.
type Ledger struct {
	mu      sync.RWMutex
	records []schemas.ActionRecord
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds rec after all existing records. A record whose step is lower
// than the last appended step is rejected, keeping the ledger step ordered.
func (l *Ledger) Append(rec schemas.ActionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.records); n > 0 && rec.Step < l.records[n-1].Step {
		return fmt.Errorf("record for step %d appended after step %d", rec.Step, l.records[n-1].Step)
	}
	rec.Args = append(schemas.Args(nil), rec.Args...)
	l.records = append(l.records, rec)
	return nil
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Last returns the most recent record.
func (l *Ledger) Last() (schemas.ActionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return schemas.ActionRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

// Records returns a copy of every record in order.
func (l *Ledger) Records() []schemas.ActionRecord {
	return l.Recent(0)
}

// Recent returns up to n of the newest records in order; n <= 0 means all.
func (l *Ledger) Recent(n int) []schemas.ActionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := 0
	if n > 0 && n < len(l.records) {
		start = len(l.records) - n
	}
	out := make([]schemas.ActionRecord, len(l.records)-start)
	copy(out, l.records[start:])
	return out
}

// Filter returns the records for which keep is true.
func (l *Ledger) Filter(keep func(schemas.ActionRecord) bool) []schemas.ActionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []schemas.ActionRecord
	for _, r := range l.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// MarshalJSON encodes the records as a JSON array.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Records())
}
