package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/actionhandler/handler"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type StatusProvider interface {
	Snapshot() []handler.TenantStatus
}

type TenantLister interface {
	GetTenants(ctx context.Context) ([]*model.Tenant, error)
	Refresh(ctx context.Context) ([]*model.Tenant, error)
}

type JobLister interface {
	PendingJobs(ctx context.Context, tenantId string) ([]*model.GenerationJob, error)
}

type Server struct {
	http.Server
	Port      int
	publisher transport.Publisher
	status    StatusProvider
	tenants   TenantLister
	jobs      JobLister
}

func NewServer(httpPort int, publisher transport.Publisher, status StatusProvider, tenants TenantLister, jobs JobLister) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		publisher: publisher,
		status:    status,
		tenants:   tenants,
		jobs:      jobs,
		Port:      httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.HandleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/status", s.HandleGetStatus).Methods(http.MethodGet)
	router.HandleFunc("/status", s.HandleRequestStatusCheckAll).Methods(http.MethodPost)
	router.HandleFunc("/status/{tenantId}", s.HandleRequestStatusCheck).Methods(http.MethodPost)

	router.HandleFunc("/tenants/refresh", s.HandleRefreshTenants).Methods(http.MethodPost)
	router.HandleFunc("/jobs/{tenantId}", s.HandleGetPendingJobs).Methods(http.MethodGet)

	router.HandleFunc("/message", s.HandlePublishMessage).Methods(http.MethodPost)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug(r.RequestURI, zap.String("method", r.Method))
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
