package httpapi

import "net/http"

// NewMux wires every handler onto a fresh mux. Middleware is applied by
// the caller so tests can wrap only what they need.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Projects
	ph := ProjectsHandler{DB: d.DB}
	mux.HandleFunc("/projects", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.List,
	}))

	// Duplicate groups
	dh := DuplicatesHandler{DB: d.DB, CfgVal: d.CfgVal}
	mux.HandleFunc("/duplicates", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.List,
	}))

	// Run control
	rh := RunHandler{Poller: d.Poller}
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))
	mux.HandleFunc("/run/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Hub:         d.Hub,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use CfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))
	mux.HandleFunc("/api/secrets/gemini", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetGeminiAPIKey,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health + maintenance
	mux.HandleFunc("/health", HealthHandler{}.Health)
	mux.HandleFunc("/db/checkpoint", DBHandler{DB: d.DB}.Checkpoint)

	return mux
}
