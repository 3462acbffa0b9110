package naming

import "sync"

// ClaimTracker records which input claimed each output path during a run,
// so two inputs mapping to one output are caught instead of overwriting each
// other. All methods are goroutine-safe.
type ClaimTracker struct {
	mu     sync.Mutex
	owners map[string]string // output path -> input path that owns it
}

// NewClaimTracker creates a ready-to-use tracker.
func NewClaimTracker() *ClaimTracker {
	return &ClaimTracker{owners: make(map[string]string)}
}

// Claim assigns output to input. It returns ok=false and the current owner
// when a different input already holds output. Re-claiming by the same
// input succeeds.
func (ct *ClaimTracker) Claim(input, output string) (owner string, ok bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if prev, exists := ct.owners[output]; exists && prev != input {
		return prev, false
	}
	ct.owners[output] = input
	return input, true
}

// Len returns the number of claimed outputs.
func (ct *ClaimTracker) Len() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return len(ct.owners)
}
