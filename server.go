package coordinate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"pkt.systems/pslog"
)

// Server is the HTTP front door for the coordinator: one operation, POST
// /dtc/, accepting a group ID and an action and returning the terminal
// transaction state.
type Server struct {
	coord  *Coordinator
	logger pslog.Logger
}

// NewServer creates the service endpoint over a coordinator.
func NewServer(coord *Coordinator, logger pslog.Logger) *Server {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &Server{coord: coord, logger: logger.With("svc", "server")}
}

// Handler returns the http.Handler serving the coordination API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/dtc/", s.handleCoordinate)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type coordinateRequest struct {
	GroupID string          `json:"groupId"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type nodeOutcome struct {
	Node    string `json:"node"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

type coordinateResponse struct {
	State         string        `json:"state"`
	TxnID         string        `json:"txnId,omitempty"`
	Attempts      int           `json:"attempts,omitempty"`
	Error         string        `json:"error,omitempty"`
	Nodes         []nodeOutcome `json:"nodes,omitempty"`
	Compensations []nodeOutcome `json:"compensations,omitempty"`
}

// handleCoordinate maps the terminal TransactionState onto HTTP:
// succeeded is 200, rolled back is 409 (the write was rejected but
// consistency was restored), failed is 502 with the last known per-node
// results so an operator can follow up.
func (s *Server) handleCoordinate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req coordinateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.GroupID == "" {
		http.Error(w, "groupId is required", http.StatusBadRequest)
		return
	}
	verb, err := ParseVerb(req.Action)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(fmt.Sprintf(`{"groupId":%q}`, req.GroupID))
	}
	action := ActionSpec{Verb: verb, Resource: DefaultResource, Payload: payload}

	res, err := s.coord.Coordinate(r.Context(), GroupID(req.GroupID), action)
	if res == nil {
		// Rejected before the first dispatch: unknown group or bad action.
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "unknown group") {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	resp := coordinateResponse{
		State:    res.State.String(),
		TxnID:    res.TxnID,
		Attempts: len(res.Attempts),
	}

	status := http.StatusOK
	switch res.State {
	case StateRolledBack:
		status = http.StatusConflict
	case StateFailed:
		status = http.StatusBadGateway
		if err != nil {
			resp.Error = err.Error()
		}
		if last := res.LastAttempt(); last != nil {
			resp.Nodes = nodeOutcomes(last.Results)
			resp.Compensations = nodeOutcomes(last.Compensations)
		}
		s.logger.Error("coordination failed",
			"txn", res.TxnID, "group", req.GroupID, "action", req.Action, "error", err)
	}

	writeJSON(w, status, resp)
}

func nodeOutcomes(results []NodeResult) []nodeOutcome {
	out := make([]nodeOutcome, 0, len(results))
	for _, r := range results {
		o := nodeOutcome{Node: string(r.Node), Outcome: r.Outcome.String()}
		if r.Err != nil {
			o.Error = r.Err.Error()
		}
		out = append(out, o)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe runs the endpoint until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("stopped")
		return nil
	}
}
