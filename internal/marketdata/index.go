package marketdata

import "sort"

// Index is the read-only price lookup used during an aggregation run. It
// maps each symbol to its most recent record and to its full price history
// in time-ascending order. Build it once, then share it freely: none of
// the consumers mutate it.
type Index struct {
	latest  map[string]Record
	history map[string][]float64
	records int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		latest:  make(map[string]Record),
		history: make(map[string][]float64),
	}
}

// BuildIndex creates an index from records already sorted time-ascending.
func BuildIndex(records []Record) *Index {
	idx := NewIndex()
	for _, rec := range records {
		idx.Add(rec)
	}
	return idx
}

// Add appends one observation. Input is expected time-ascending per symbol;
// the latest record is still guarded by timestamp so out-of-order data
// cannot regress it.
func (idx *Index) Add(rec Record) {
	if cur, ok := idx.latest[rec.Symbol]; !ok || !rec.Timestamp.Before(cur.Timestamp) {
		idx.latest[rec.Symbol] = rec
	}
	idx.history[rec.Symbol] = append(idx.history[rec.Symbol], rec.Price)
	idx.records++
}

// Latest returns the most recent record for a symbol.
func (idx *Index) Latest(symbol string) (Record, bool) {
	rec, ok := idx.latest[symbol]
	return rec, ok
}

// History returns the ascending price series for a symbol, nil when the
// symbol is unknown. The returned slice is shared; callers must not
// modify it.
func (idx *Index) History(symbol string) []float64 {
	return idx.history[symbol]
}

// Symbols returns all indexed symbols in sorted order.
func (idx *Index) Symbols() []string {
	symbols := make([]string, 0, len(idx.history))
	for s := range idx.history {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// NumRecords returns the total number of observations indexed.
func (idx *Index) NumRecords() int {
	return idx.records
}

// Snapshot is the serializable form of an Index, shipped to process-pool
// workers as their read-only market-data view.
type Snapshot struct {
	Latest  map[string]Record    `msgpack:"latest"`
	History map[string][]float64 `msgpack:"history"`
}

// Snapshot exports the index contents for worker handoff.
func (idx *Index) Snapshot() *Snapshot {
	return &Snapshot{
		Latest:  idx.latest,
		History: idx.history,
	}
}

// FromSnapshot rebuilds an index from a worker snapshot.
func FromSnapshot(s *Snapshot) *Index {
	idx := NewIndex()
	idx.latest = s.Latest
	idx.history = s.History
	for _, prices := range s.History {
		idx.records += len(prices)
	}
	if idx.latest == nil {
		idx.latest = make(map[string]Record)
	}
	if idx.history == nil {
		idx.history = make(map[string][]float64)
	}
	return idx
}
