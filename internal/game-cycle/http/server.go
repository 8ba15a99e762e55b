package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Lifecycle é o recorte do manager exposto aos gatilhos administrativos.
type Lifecycle interface {
	CreateNextPool(ctx context.Context) error
	LockDuePools(ctx context.Context) error
	SettleDuePools(ctx context.Context) error
}

// Server expõe os equivalentes administrativos das operações agendadas.
// Contrato idêntico ao do scheduler: pode ser chamado a qualquer momento,
// inclusive sobreposto a um tick, com as mesmas garantias de idempotência.
type Server struct {
	log *zap.Logger
	lc  Lifecycle
}

// NewServer instancia o servidor de gatilhos administrativos.
func NewServer(log *zap.Logger, lc Lifecycle) *Server { return &Server{log: log, lc: lc} }

// Router retorna o mux com as rotas administrativas.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/pools/create", s.triggerCreate)          // POST
	mux.HandleFunc("/admin/pools/lock-settle", s.triggerLockSettle) // POST
	return mux
}

// triggerCreate dispara a criação do próximo pool.
func (s *Server) triggerCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.lc.CreateNextPool(r.Context()); err != nil {
		s.log.Error("admin pool creation failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// triggerLockSettle dispara lock e settle dos pools vencidos, nessa ordem.
func (s *Server) triggerLockSettle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.lc.LockDuePools(r.Context()); err != nil {
		s.log.Error("admin lock failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.lc.SettleDuePools(r.Context()); err != nil {
		s.log.Error("admin settle failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
