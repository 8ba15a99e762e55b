package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/cointoss-platform-poc/internal/betting-service/cache"
	"github.com/radieske/cointoss-platform-poc/internal/betting-service/dto"
	"github.com/radieske/cointoss-platform-poc/internal/betting-service/repo"
	"github.com/radieske/cointoss-platform-poc/internal/betting-service/wallet"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
)

// Server expõe a API pública de apostas sobre o pool corrente.
type Server struct {
	log   *zap.Logger
	pools pool.Store
	bets  *repo.Postgres
	wcli  *wallet.Client
	cache *cache.RedisCache
}

func NewServer(log *zap.Logger, pools pool.Store, bets *repo.Postgres, w *wallet.Client, c *cache.RedisCache) *Server {
	return &Server{log: log, pools: pools, bets: bets, wcli: w, cache: c}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pool/current", s.currentPool) // GET
	mux.HandleFunc("/bets", s.placeBet)            // POST
	mux.HandleFunc("/bets/", s.getBetStatus)       // GET /bets/{id}
	return mux
}

// currentPool retorna o pool OPEN corrente, preferindo o cache
func (s *Server) currentPool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if cached, ok, err := s.cache.GetCurrent(r.Context()); err == nil && ok {
		writeJSON(w, cached)
		return
	}

	p, err := s.pools.FindOpenPool(r.Context())
	if err == pool.ErrNotFound {
		http.Error(w, "no open pool", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.CurrentPoolResponse{
		PoolID:     p.ID,
		State:      string(p.State),
		LocksAt:    p.LocksAt,
		SettlesAt:  p.SettlesAt,
		HeadsCents: p.HeadsCents,
		TailsCents: p.TailsCents,
	}
	if err := s.cache.SetCurrent(r.Context(), resp); err != nil {
		s.log.Warn("pool cache set failed", zap.Error(err))
	}
	writeJSON(w, resp)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// 1) Pool precisa estar OPEN agora; a inserção revalida sob lock
	p, err := s.pools.FindOpenPool(r.Context())
	if err == pool.ErrNotFound {
		http.Error(w, "no open pool", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	betID := uuid.NewString()

	// 2) Debita o stake na wallet (external_ref = betID)
	if err := s.wcli.Debit(r.Context(), req.UserID, req.StakeCents, betID); err != nil {
		if err == wallet.ErrInsufficientFunds {
			http.Error(w, "insufficient funds", http.StatusConflict)
			return
		}
		http.Error(w, "wallet debit failed", http.StatusBadGateway)
		return
	}

	// 3) Insere a aposta; se o pool travou nesse meio tempo, estorna o stake
	_, err = s.pools.CreateBet(r.Context(), pool.Bet{
		ID:         betID,
		PoolID:     p.ID,
		UserID:     req.UserID,
		Side:       pool.Side(req.Side),
		StakeCents: req.StakeCents,
	})
	if err != nil {
		if rerr := s.wcli.Refund(r.Context(), req.UserID, req.StakeCents, "bet-void:"+betID); rerr != nil {
			s.log.Error("stake refund failed", zap.String("betId", betID), zap.Error(rerr))
		}
		if err == pool.ErrPoolNotOpen || err == pool.ErrNotFound {
			http.Error(w, "pool no longer open", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, dto.PlaceBetResponse{
		BetID:  betID,
		PoolID: p.ID,
		Status: "ACCEPTED",
	})
}

func (s *Server) getBetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// path: /bets/{id}
	id := r.URL.Path[len("/bets/"):]
	if id == "" {
		http.Error(w, "betId required", http.StatusBadRequest)
		return
	}

	b, err := s.bets.GetBet(r.Context(), id)
	if err == repo.ErrNotFound {
		http.Error(w, "bet not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, dto.BetStatusResponse{
		BetID:       b.BetID,
		PoolID:      b.PoolID,
		Side:        b.Side,
		StakeCents:  b.StakeCents,
		Settled:     b.Settled,
		PayoutCents: b.PayoutCents,
	})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
