package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
	"github.com/Lotargo/Q-Bridge/internal/admission"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// Server is the REST face of the gateway. It exposes the same admission
// pipeline as the gRPC surface for clients without a gRPC stack.
type Server struct {
	adm    *admission.Admitter
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

func New(adm *admission.Admitter, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	mux := http.NewServeMux()
	s := &Server{adm: adm, srv: &http.Server{Handler: cors(mux)}, logger: logger}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/submit", s.handleSubmit)
	return s
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http server listening", logpkg.Str("addr", addr))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type submitReq struct {
	RequestID string            `json:"request_id"`
	AgentID   string            `json:"agent_id"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
}

type submitResp struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	res, err := s.adm.Submit(r.Context(), &gatewayv1.InternalRequest{
		RequestId: req.RequestID,
		AgentId:   req.AgentID,
		Payload:   req.Payload,
		Metadata:  req.Metadata,
	})
	if err != nil {
		var unavailable *admission.LogUnavailableError
		if errors.As(err, &unavailable) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("submit failed", logpkg.Err(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(submitResp{RequestID: res.RequestID, Status: res.Status})
}
