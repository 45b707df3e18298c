package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the matching settings the attendance runs use
type ConfigResponse struct {
	Tolerance              float64 `json:"tolerance"`
	ScaleFactor            int     `json:"scale_factor"`
	ProcessEveryOtherFrame bool    `json:"process_every_other_frame"`
	Source                 string  `json:"source,omitempty"`
}

// Get returns the active matching configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Tolerance:              h.config.Matching.Tolerance,
		ScaleFactor:            h.config.Matching.ScaleFactor,
		ProcessEveryOtherFrame: h.config.Matching.ProcessEveryOtherFrame,
		Source:                 h.config.Source,
	})
}
