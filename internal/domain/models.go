package domain

import "time"

// LoadOutcome names the result of one features load.
type LoadOutcome string

const (
	OutcomeLoaded LoadOutcome = "features_loaded"
	OutcomeFailed LoadOutcome = "features_load_failed"
)

// LoadRecord describes a completed features load, as journaled and notified.
type LoadRecord struct {
	Source     string          `json:"source"`
	Outcome    LoadOutcome     `json:"outcome"`
	FlagCount  int             `json:"flag_count"`
	Flags      map[string]bool `json:"flags,omitempty"`
	Error      string          `json:"error,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewLoadedRecord records a successful load of flags from source.
func NewLoadedRecord(source string, flags map[string]bool) LoadRecord {
	return LoadRecord{
		Source:     source,
		Outcome:    OutcomeLoaded,
		FlagCount:  len(flags),
		Flags:      flags,
		OccurredAt: time.Now().UTC(),
	}
}

// NewFailedRecord records a failed load from source.
func NewFailedRecord(source string, err error) LoadRecord {
	rec := LoadRecord{
		Source:     source,
		Outcome:    OutcomeFailed,
		OccurredAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
