package processor

import (
	"sort"
	"sync"

	"github.com/uvadev/CanvasBulkFileDelete/model"
)

// entry is one recorded task outcome
type entry struct {
	userKey string
	outcome model.Outcome
}

// Aggregator collects task outcomes from concurrent workers. Every append
// is retained in order; Snapshot reduces them to one category per user key.
type Aggregator struct {
	mu      sync.Mutex
	entries []entry
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append records the outcome of one finished task
func (a *Aggregator) Append(userKey string, outcome model.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry{userKey: userKey, outcome: outcome})
}

// Len returns the number of recorded outcomes
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Snapshot reduces the recorded outcomes to report sets. A user key that
// appears in several entries lands in exactly one set, decided by its last
// recorded outcome. Each set is sorted and free of duplicates.
func (a *Aggregator) Snapshot() model.OutcomeSets {
	a.mu.Lock()
	last := make(map[string]model.Outcome, len(a.entries))
	for _, e := range a.entries {
		last[e.userKey] = e.outcome
	}
	a.mu.Unlock()

	sets := model.OutcomeSets{
		Deleted:        []string{},
		NoMatchingFile: []string{},
		UserNotFound:   []string{},
		Errors:         []string{},
	}

	for key, outcome := range last {
		switch outcome {
		case model.OutcomeDeleted:
			sets.Deleted = append(sets.Deleted, key)
		case model.OutcomeNoMatchingFile:
			sets.NoMatchingFile = append(sets.NoMatchingFile, key)
		case model.OutcomeUserNotFound:
			sets.UserNotFound = append(sets.UserNotFound, key)
		default:
			sets.Errors = append(sets.Errors, key)
		}
	}

	sort.Strings(sets.Deleted)
	sort.Strings(sets.NoMatchingFile)
	sort.Strings(sets.UserNotFound)
	sort.Strings(sets.Errors)

	return sets
}
