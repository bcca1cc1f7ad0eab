package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"ses-engine/internal/domain"
	"ses-engine/internal/store"
)

type ProjectsHandler struct {
	DB *sql.DB
}

// List serves GET /projects?since_days=N&limit=N, newest first.
func (h ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := store.ListProjectsOpts{
		Limit: queryInt(r, "limit", 0),
	}
	if days := queryInt(r, "since_days", 0); days > 0 {
		opts.Since = time.Now().AddDate(0, 0, -days)
	}

	recs, err := store.ListProjects(r.Context(), h.DB, opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if recs == nil {
		recs = []domain.ProjectRecord{}
	}

	writeJSON(w, map[string]any{
		"count":    len(recs),
		"projects": recs,
	})
}
