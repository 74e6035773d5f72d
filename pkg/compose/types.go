package compose

import "errors"

// ErrNoActiveDocument is returned when use_active_document is set but the
// host environment has nothing open. It is a configuration-level failure and
// aborts before any item is processed.
var ErrNoActiveDocument = errors.New("use_active_document is set but no document is open")

// Outcome classifies how one work item ended.
type Outcome int

const (
	// OutcomeOK means the item exported normally (possibly zero files when
	// every destination already existed with overwrite disabled).
	OutcomeOK Outcome = iota
	// OutcomeSkipped means the template had no matching placeholders for
	// this matcher. A warning, never a failure.
	OutcomeSkipped
	// OutcomeFailed means substitution, resizing, or export broke for this
	// item. The batch continues with the next item.
	OutcomeFailed
)

// ItemResult is the per-item value the driver pattern-matches on to decide
// logging and continuation; errors never cross the loop boundary.
type ItemResult struct {
	Outcome Outcome
	// Files counts outputs actually written for this item.
	Files int
	// Reason explains a skip.
	Reason string
	// Err carries the cause of a failure.
	Err error
}

// Summary aggregates a whole batch run.
type Summary struct {
	Items        int
	OK           int
	Skipped      int
	Failed       int
	FilesWritten int
}

// Options narrows the scanned template and design sets by stem. Empty
// selectors keep everything.
type Options struct {
	Templates []string
	Designs   []string
}

func filterByStem(paths, selectors []string, stem func(string) string) []string {
	set := make(map[string]struct{}, len(selectors))
	for _, s := range selectors {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	if len(set) == 0 {
		return paths
	}
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := set[stem(p)]; ok {
			kept = append(kept, p)
		}
	}
	return kept
}
