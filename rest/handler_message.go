package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"go.uber.org/zap"
)

// HandlePublishMessage puts an action message on the queue, used to replay
// dead lettered messages and by tooling.
func (s *Server) HandlePublishMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var msg model.ActionMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid message body")
		return
	}
	if msg.MessageId == "" {
		msg.MessageId = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if err := model.Validate(&msg); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !msg.ActionType.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown action type "+string(msg.ActionType))
		return
	}
	if err := s.publisher.Publish(r.Context(), &msg); err != nil {
		logger.Error("error publishing message", zap.String("message", msg.MessageId), zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "error publishing message")
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{"messageId": msg.MessageId})
}
