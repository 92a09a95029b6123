package storage

import (
	"github.com/samvad-hq/featurette/internal/domain"
	"github.com/samvad-hq/featurette/internal/logger"
	"github.com/samvad-hq/featurette/pkg/features"
)

type journalListener struct {
	store  Store
	source string
	log    logger.Logger
}

// NewListener journals every load outcome of a features client into store.
func NewListener(store Store, source string, log logger.Logger) features.Listener {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &journalListener{store: store, source: source, log: log}
}

func (j *journalListener) FeaturesLoaded(set features.FeatureSet) {
	j.append(domain.NewLoadedRecord(j.source, set.Map()))
}

func (j *journalListener) FeaturesLoadFailed(err error) {
	j.append(domain.NewFailedRecord(j.source, err))
}

func (j *journalListener) append(rec domain.LoadRecord) {
	if j.store == nil {
		return
	}
	if err := j.store.Append(rec); err != nil {
		j.log.ErrorObj("journal append failed", "journal_error", map[string]any{
			"outcome": string(rec.Outcome),
			"error":   err.Error(),
		})
	}
}
