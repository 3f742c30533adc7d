package tools

import "sync"

// Performance is a snapshot of one (kind, bucket) cell of the tool
// performance table.
type Performance struct {
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

// defaultSuccessRate is assumed for a (kind, bucket) pair with no history.
const defaultSuccessRate = 0.5

// perfTable tracks per-tool success as a count-weighted running mean, keyed
// by tool kind and context bucket. Concurrent conversions share one table,
// so the read-modify-write update is guarded by a mutex.
type perfTable struct {
	mu    sync.Mutex
	cells map[string]*perfCell
}

type perfCell struct {
	attempts  int
	successes int
}

func newPerfTable() *perfTable {
	return &perfTable{cells: make(map[string]*perfCell)}
}

func perfKey(kind Kind, bucket string) string {
	return string(kind) + "|" + bucket
}

func (t *perfTable) successRate(kind Kind, bucket string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	cell, ok := t.cells[perfKey(kind, bucket)]
	if !ok || cell.attempts == 0 {
		return defaultSuccessRate
	}
	return float64(cell.successes) / float64(cell.attempts)
}

func (t *perfTable) record(kind Kind, bucket string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := perfKey(kind, bucket)
	cell, ok := t.cells[key]
	if !ok {
		cell = &perfCell{}
		t.cells[key] = cell
	}
	cell.attempts++
	if success {
		cell.successes++
	}
}

func (t *perfTable) snapshot() map[string]Performance {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Performance, len(t.cells))
	for key, cell := range t.cells {
		rate := defaultSuccessRate
		if cell.attempts > 0 {
			rate = float64(cell.successes) / float64(cell.attempts)
		}
		out[key] = Performance{
			Attempts:    cell.attempts,
			Successes:   cell.successes,
			SuccessRate: rate,
		}
	}
	return out
}
