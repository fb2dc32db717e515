package handlers

import (
	"net/http"

	"blogsmith/internal/domain/jsoncfg"
	"blogsmith/internal/pipeline"
)

type cleanupResponse struct {
	Success bool `json:"success"`
	pipeline.CleanupResult
}

// CleanupJobs runs the janitor on demand. An empty body means type "all".
func (a *App) CleanupJobs(w http.ResponseWriter, r *http.Request) {
	if a.Janitor == nil {
		a.error(w, http.StatusServiceUnavailable, "cleanup_disabled", "cleanup is not configured")
		return
	}
	var req jsoncfg.CleanupRequest
	if !a.decode(w, r, &req, true) {
		return
	}
	kind := pipeline.CleanupOld
	if req.Type == string(pipeline.CleanupByStatus) {
		kind = pipeline.CleanupByStatus
	}
	res, err := a.Janitor.Cleanup(r.Context(), kind, req.DryRun)
	if err != nil {
		a.serviceError(w, r, err, "Cleanup failed")
		return
	}
	a.json(w, http.StatusOK, cleanupResponse{Success: true, CleanupResult: res})
}
