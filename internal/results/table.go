package results

import "github.com/roach88/propcheck/internal/ir"

// Table is an ordered set of records keyed by (contract_id, property_id).
type Table struct {
	records []ir.Record
	index   map[ir.RecordKey]int
}

// NewTable builds a table from records. Duplicate keys in the input collapse
// onto the first occurrence's position, keeping the last value.
func NewTable(records []ir.Record) *Table {
	t := &Table{index: make(map[ir.RecordKey]int, len(records))}
	t.Merge(records)
	return t
}

// Merge overwrites rows sharing a key in place and appends the rest.
func (t *Table) Merge(records []ir.Record) (added, replaced int) {
	if t.index == nil {
		t.index = make(map[ir.RecordKey]int, len(records))
	}
	for _, r := range records {
		if pos, ok := t.index[r.Key()]; ok {
			t.records[pos] = r
			replaced++
			continue
		}
		t.index[r.Key()] = len(t.records)
		t.records = append(t.records, r)
		added++
	}
	return added, replaced
}

// Records returns the rows in table order.
func (t *Table) Records() []ir.Record {
	return append([]ir.Record{}, t.records...)
}

// Get returns the row stored under key.
func (t *Table) Get(key ir.RecordKey) (ir.Record, bool) {
	pos, ok := t.index[key]
	if !ok {
		return ir.Record{}, false
	}
	return t.records[pos], true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// Done reports whether the table already holds a result for task.
func (t *Table) Done(task ir.Task) bool {
	_, ok := t.index[ir.RecordKey{ContractID: task.Version, PropertyID: task.Property}]
	return ok
}

// Merge returns old with fresh merged into it. Neither input is modified.
func Merge(old, fresh []ir.Record) []ir.Record {
	t := NewTable(old)
	t.Merge(fresh)
	return t.Records()
}
