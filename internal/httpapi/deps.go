// Package httpapi is the local HTTP surface: stored projects, duplicate
// groups, run control, config, secrets, and the SSE event stream.
package httpapi

import (
	"database/sql"
	"sync/atomic"

	"ses-engine/internal/config"
	"ses-engine/internal/events"
	"ses-engine/internal/poll"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// CfgVal stores config.Config; handlers always read the latest.
	CfgVal *atomic.Value

	Poller *poll.Poller

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
