package coordinator

import (
	"errors"
	"strings"
	"sync"
)

// ErrEmptyPriorityOrder rejects priority updates that would leave the engine
// without a trust ordering.
var ErrEmptyPriorityOrder = errors.New("source priority ordering must not be empty")

// SourcePriorities holds the configured trust ordering of discovery channels,
// most trusted first. Unknown sources rank strictly below every configured
// one. The ordering is replaceable at runtime; updates are rare and
// last-write-wins.
type SourcePriorities struct {
	mu    sync.RWMutex
	order []string
	index map[string]int
}

// NewSourcePriorities builds a resolver for the given ordering.
func NewSourcePriorities(order []string) (*SourcePriorities, error) {
	p := &SourcePriorities{}
	if err := p.Update(order); err != nil {
		return nil, err
	}
	return p, nil
}

// Priority returns the rank of source in the ordering; lower is more trusted.
// Sources absent from the ordering rank at len(ordering).
func (p *SourcePriorities) Priority(source string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if idx, ok := p.index[normalizeSource(source)]; ok {
		return idx
	}
	return len(p.order)
}

// ShouldProcessFromSource reports whether a report from newSource may replace
// state owned by existingSource. Equal trust counts as yes.
func (p *SourcePriorities) ShouldProcessFromSource(existingSource, newSource string) bool {
	return p.Priority(newSource) <= p.Priority(existingSource)
}

// SelectBestSource returns the more trusted of the two; ties favor a.
func (p *SourcePriorities) SelectBestSource(a, b string) string {
	if p.Priority(a) <= p.Priority(b) {
		return a
	}
	return b
}

// Update replaces the ordering wholesale.
func (p *SourcePriorities) Update(order []string) error {
	cleaned := make([]string, 0, len(order))
	index := make(map[string]int, len(order))
	for _, src := range order {
		src = normalizeSource(src)
		if src == "" {
			continue
		}
		if _, dup := index[src]; dup {
			continue
		}
		index[src] = len(cleaned)
		cleaned = append(cleaned, src)
	}
	if len(cleaned) == 0 {
		return ErrEmptyPriorityOrder
	}

	p.mu.Lock()
	p.order = cleaned
	p.index = index
	p.mu.Unlock()
	return nil
}

// Order returns a copy of the current ordering.
func (p *SourcePriorities) Order() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

func normalizeSource(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}
