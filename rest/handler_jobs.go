package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/actionhandler/logger"
	"go.uber.org/zap"
)

func (s *Server) HandleGetPendingJobs(w http.ResponseWriter, r *http.Request) {
	tenantId := mux.Vars(r)["tenantId"]
	jobs, err := s.jobs.PendingJobs(r.Context(), tenantId)
	if err != nil {
		logger.Error("error listing pending jobs", zap.String("tenant", tenantId), zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "error listing pending jobs")
		return
	}
	respondWithJSON(w, http.StatusOK, jobs)
}
