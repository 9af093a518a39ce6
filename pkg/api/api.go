// Package api is the thin request surface of §4.G: it parses the four
// externally visible operations from JSON/HTTP, invokes the coordinator or
// the peer directory, and encodes the result. No protocol logic lives here.
package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"randbeacon/core/curve"
	"randbeacon/pkg/coordinator"
	"randbeacon/pkg/directory"
)

// Server holds the dependencies the request surface dispatches onto.
type Server struct {
	coord *coordinator.Coordinator
	dir   *directory.Directory
}

// New builds a Server around a coordinator and the peer directory it reads
// nodes/node from directly.
func New(coord *coordinator.Coordinator, dir *directory.Directory) *Server {
	return &Server{coord: coord, dir: dir}
}

// Router builds the chi mux for all four operations plus request logging.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Post("/commit-random", s.handleCommitRandom)
	r.Post("/co-commit-random", s.handleCoCommitRandom)
	r.Post("/reveal-random", s.handleRevealRandom)
	r.Get("/nodes", s.handleNodes)
	r.Get("/node", s.handleNode)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("handled request")
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("writing response body")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if cerr, ok := err.(*coordinator.Error); ok {
		switch cerr.Kind {
		case coordinator.KindMalformedPoint, coordinator.KindMalformedScalar:
			status = http.StatusBadRequest
		case coordinator.KindConflict:
			status = http.StatusConflict
		case coordinator.KindNotFound:
			status = http.StatusNotFound
		case coordinator.KindPeerUnavailable:
			status = http.StatusBadGateway
		case coordinator.KindInternal:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func encodeScalar(s curve.Scalar) string {
	b := s.Bytes()
	return hex.EncodeToString(b[:])
}

func encodePoint(p curve.GroupElement) string {
	b := p.Bytes()
	return hex.EncodeToString(b[:])
}

func decodePoint(s string) (curve.GroupElement, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return curve.GroupElement{}, curve.ErrMalformedPoint
	}
	return curve.GroupElementFromBytes(raw)
}

type commitRandomResponse struct {
	CommitmentID        string   `json:"commitment_id"`
	Nodes               []string `json:"nodes"`
	AggregateCommitment string   `json:"aggregate_commitment"`
}

func (s *Server) handleCommitRandom(w http.ResponseWriter, r *http.Request) {
	res, err := s.coord.CommitRandom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commitRandomResponse{
		CommitmentID:        res.CommitmentID,
		Nodes:               res.Nodes,
		AggregateCommitment: encodePoint(res.Aggregate),
	})
}

type coCommitRandomRequest struct {
	CommitmentID string `json:"commitment_id"`
	Commitment   string `json:"commitment"`
}

type coCommitRandomResponse struct {
	Commitment string `json:"commitment"`
}

func (s *Server) handleCoCommitRandom(w http.ResponseWriter, r *http.Request) {
	var req coCommitRandomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &coordinator.Error{Kind: coordinator.KindMalformedPoint, Op: "co-commit-random: decode body", Err: err})
		return
	}
	dealerCommitment, err := decodePoint(req.Commitment)
	if err != nil {
		writeError(w, &coordinator.Error{Kind: coordinator.KindMalformedPoint, Op: "co-commit-random: decode commitment", Err: err})
		return
	}
	combined, err := s.coord.CoCommitRandom(r.Context(), req.CommitmentID, dealerCommitment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coCommitRandomResponse{Commitment: encodePoint(combined)})
}

type revealRandomRequest struct {
	CommitmentID string `json:"commitment_id"`
}

type openingJSON struct {
	Value    string `json:"value"`
	Blinding string `json:"blinding"`
}

type revealRandomResponse struct {
	Opening    openingJSON `json:"opening"`
	Commitment string      `json:"commitment"`
}

func (s *Server) handleRevealRandom(w http.ResponseWriter, r *http.Request) {
	var req revealRandomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &coordinator.Error{Kind: coordinator.KindNotFound, Op: "reveal-random: decode body", Err: err})
		return
	}
	res, err := s.coord.RevealRandom(r.Context(), req.CommitmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revealRandomResponse{
		Opening: openingJSON{
			Value:    encodeScalar(res.Opening.Value),
			Blinding: encodeScalar(res.Opening.Blinding),
		},
		Commitment: encodePoint(res.Commitment),
	})
}

type nodesResponse struct {
	Self  string   `json:"self"`
	Nodes []string `json:"nodes"`
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nodesResponse{Self: s.dir.SelfURL(), Nodes: s.dir.All()})
}

type nodeResponse struct {
	Self string `json:"self"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nodeResponse{Self: s.dir.SelfURL()})
}
