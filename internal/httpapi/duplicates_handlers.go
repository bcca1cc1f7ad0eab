package httpapi

import (
	"database/sql"
	"net/http"
	"sync/atomic"
	"time"

	"ses-engine/internal/config"
	"ses-engine/internal/dup"
	"ses-engine/internal/store"
)

type DuplicatesHandler struct {
	DB     *sql.DB
	CfgVal *atomic.Value // stores config.Config
}

// List serves GET /duplicates?days=N&limit=N. It loads the recency window
// oldest first and groups it with the configured threshold and weights.
func (h DuplicatesHandler) List(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)

	days := queryInt(r, "days", cfg.Dedup.WindowDays)
	limit := queryInt(r, "limit", cfg.Dedup.MaxBatch)

	since := time.Now().AddDate(0, 0, -days)
	recs, err := store.ListProjectsSince(r.Context(), h.DB, since, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	grouper := GrouperFromConfig(cfg)
	groups := grouper.Group(recs)
	if groups == nil {
		groups = []dup.Group{}
	}

	duplicates := 0
	for _, g := range groups {
		duplicates += len(g.Members)
	}

	writeJSON(w, map[string]any{
		"window_days": days,
		"scanned":     len(recs),
		"groups":      groups,
		"duplicates":  duplicates,
	})
}

// GrouperFromConfig builds a Grouper from the dedup config section.
func GrouperFromConfig(cfg config.Config) dup.Grouper {
	g := dup.New()
	if cfg.Dedup.Threshold > 0 {
		g.Threshold = cfg.Dedup.Threshold
	}
	if cfg.Dedup.DescriptionWeight+cfg.Dedup.SkillsWeight+cfg.Dedup.PriceWeight > 0 {
		g.Weights = dup.Weights{
			Description: cfg.Dedup.DescriptionWeight,
			Skills:      cfg.Dedup.SkillsWeight,
			Price:       cfg.Dedup.PriceWeight,
		}
	}
	return g
}
