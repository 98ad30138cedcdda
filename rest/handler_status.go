package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"go.uber.org/zap"
)

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}

func (s *Server) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.status.Snapshot())
}

// HandleRequestStatusCheck queues a status check, the result shows up on /status
// once a consumer handled it.
func (s *Server) HandleRequestStatusCheck(w http.ResponseWriter, r *http.Request) {
	tenantId := mux.Vars(r)["tenantId"]
	messageId, err := s.publishStatusCheck(r, tenantId)
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "error publishing status check")
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{"messageId": messageId})
}

// HandleRequestStatusCheckAll queues one status check per known tenant.
func (s *Server) HandleRequestStatusCheckAll(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.tenants.GetTenants(r.Context())
	if err != nil {
		logger.Error("error listing tenants", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "error listing tenants")
		return
	}
	messageIds := make(map[string]string, len(tenants))
	for _, tenant := range tenants {
		messageId, err := s.publishStatusCheck(r, tenant.TenantId)
		if err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "error publishing status check")
			return
		}
		messageIds[tenant.TenantId] = messageId
	}
	respondWithJSON(w, http.StatusAccepted, messageIds)
}

func (s *Server) publishStatusCheck(r *http.Request, tenantId string) (string, error) {
	msg, err := model.NewActionMessage(uuid.NewString(), tenantId, model.ACTION_STATUS_CHECK, 0, 0, &model.StatusCheckMessage{
		RequestedBy: r.RemoteAddr,
	})
	if err != nil {
		return "", err
	}
	if err := s.publisher.Publish(r.Context(), msg); err != nil {
		logger.Error("error publishing status check", zap.String("tenant", tenantId), zap.Error(err))
		return "", err
	}
	return msg.MessageId, nil
}

func (s *Server) HandleRefreshTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.tenants.Refresh(r.Context())
	if err != nil {
		logger.Error("error refreshing tenants", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "error refreshing tenants")
		return
	}
	respondOK(w, map[string]any{"tenants": len(tenants)})
}
