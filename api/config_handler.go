// Package api — configuration endpoint.
package api

import (
	"net/http"

	"github.com/macrovista/macrovista/internal/catalog"
	"github.com/macrovista/macrovista/pkg/utils"
)

// ConfigView is the non-secret configuration returned by
// GET /api/v1/config: selection defaults, selectable year bounds, and
// the upstream the instance is pointed at.
type ConfigView struct {
	DefaultCountries []string `json:"default_countries"`
	DefaultStartYear int      `json:"default_start_year"`
	DefaultEndYear   int      `json:"default_end_year"`
	MinYear          int      `json:"min_year"`
	MaxYear          int      `json:"max_year"`
	UpstreamBaseURL  string   `json:"upstream_base_url"`
	NewsEnabled      bool     `json:"news_enabled"`
	NewsLimit        int      `json:"news_limit"`
}

// handleConfig returns the running configuration clients need to build
// selection forms. Upstream credentials do not exist; everything else
// stays server-side.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeOK(w, ConfigView{
		DefaultCountries: s.cfg.Dashboard.DefaultCountries,
		DefaultStartYear: s.cfg.Dashboard.DefaultStartYear,
		DefaultEndYear:   s.cfg.Dashboard.DefaultEndYear,
		MinYear:          catalog.MinYear,
		MaxYear:          utils.CurrentYear(),
		UpstreamBaseURL:  s.cfg.Upstream.BaseURL,
		NewsEnabled:      s.cfg.News.Enabled,
		NewsLimit:        s.cfg.News.Limit,
	})
}
