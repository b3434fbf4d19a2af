package simulation

import (
	"github.com/TheApexWu/suzerain/internal/classifier"
	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/features"
	"github.com/TheApexWu/suzerain/internal/models"
)

// Recovery summarises how often the classifier recovered a persona's
// expected archetype
type Recovery struct {
	Persona  string                   `json:"persona"`
	Expected models.Archetype         `json:"expected,omitempty"`
	Sessions int                      `json:"sessions"`
	Counts   map[models.Archetype]int `json:"counts"`

	// Insufficient counts sessions the classifier declined to label
	Insufficient int `json:"insufficient"`

	// Agreement is the share of sessions labelled Expected, 0 when no
	// archetype is expected
	Agreement float64 `json:"agreement"`

	// User is the classification of all sessions aggregated together
	User models.Classification `json:"user"`
}

// Modal returns the most frequent session-level archetype. Ties resolve
// in rule priority order.
func (r Recovery) Modal() models.Archetype {
	var best models.Archetype
	for _, a := range models.Archetypes {
		if r.Counts[a] > r.Counts[best] {
			best = a
		}
	}
	return best
}

// UserRecovered reports whether the aggregated classification matches
func (r Recovery) UserRecovered() bool {
	return r.Expected != "" && r.User.Archetype == r.Expected
}

// Evaluate classifies each session and the aggregate with the default
// configuration
func Evaluate(p Persona, sessions []features.Session) Recovery {
	return EvaluateWith(config.DefaultConfig(), p, sessions)
}

// EvaluateWith classifies each session and the aggregate with cfg
func EvaluateWith(cfg *config.Config, p Persona, sessions []features.Session) Recovery {
	engine := features.NewEngine(cfg.Features)
	clf := classifier.New(cfg.Thresholds)

	rec := Recovery{
		Persona:  p.Key,
		Expected: p.ExpectedArchetype,
		Sessions: len(sessions),
		Counts:   make(map[models.Archetype]int),
	}
	for _, sess := range sessions {
		result := clf.Classify(engine.ComputeSession(sess))
		if !result.IsClassified() {
			rec.Insufficient++
			continue
		}
		rec.Counts[result.Archetype]++
	}
	if rec.Expected != "" && rec.Sessions > 0 {
		rec.Agreement = float64(rec.Counts[rec.Expected]) / float64(rec.Sessions)
	}
	rec.User = clf.Classify(engine.Compute(sessions))
	return rec
}
