package httprpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.chordring.dev/chordring/chord"
	"go.uber.org/zap"
)

// Server exposes a *chord.Node's RPC surface as a JSON-over-HTTP API.
// Every network-facing NodeClient operation has its own route, addressed
// by URI as the ring's RPC surface requires; /v1/stats and /v1/rtt are
// additional operator-facing routes.
type Server struct {
	node   *chord.Node
	logger *zap.Logger
	oracle *LivenessOracle
	router chi.Router
}

// NewServer builds a Server for node. oracle is optional (nil disables
// the /v1/rtt route); pass the same LivenessOracle the node's Config.Liveness
// was built from so observed RTT samples line up with the peers it routes to.
func NewServer(node *chord.Node, logger *zap.Logger, oracle *LivenessOracle) *Server {
	s := &Server{node: node, logger: logger, oracle: oracle}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/v1/id", s.handleID)
	r.Get("/v1/active", s.handleActive)
	r.Get("/v1/info", s.handleInfo)
	r.Get("/v1/successor", s.handleSuccessor)
	r.Get("/v1/predecessor", s.handlePredecessor)
	r.Get("/v1/successors", s.handleSuccessorList)
	r.Get("/v1/find-successor/{id}", s.handleFindSuccessor)
	r.Get("/v1/find-predecessor/{id}", s.handleFindPredecessor)
	r.Get("/v1/closest-preceding-finger/{id}", s.handleClosestPrecedingFinger)
	r.Post("/v1/notify", s.handleNotify)
	r.Post("/v1/notify-predecessor-leaving", s.handleNotifyPredecessorLeaving)
	r.Post("/v1/notify-successor-leaving", s.handleNotifySuccessorLeaving)
	r.Get("/v1/successor-candidates/{id}", s.handleSuccessorCandidates)
	r.Get("/v1/stats", s.node.StatsHandler)
	r.Get("/v1/rtt", s.handleRTT)

	return r
}

func idParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := mapError(err)
	writeJSON(w, status, body)
}

func decodeBody(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func (s *Server) handleID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"id": s.node.ID()})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	active, err := s.node.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDTO(s.node.Info()))
}

func (s *Server) handleSuccessor(w http.ResponseWriter, r *http.Request) {
	d, err := s.node.Successor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(d))
}

func (s *Server) handlePredecessor(w http.ResponseWriter, r *http.Request) {
	d, err := s.node.Predecessor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if d == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*d))
}

func (s *Server) handleSuccessorList(w http.ResponseWriter, r *http.Request) {
	list, err := s.node.SuccessorList(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOList(list))
}

func (s *Server) handleFindSuccessor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	d, err := s.node.FindSuccessor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(d))
}

func (s *Server) handleFindPredecessor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	d, err := s.node.FindPredecessor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(d))
}

func (s *Server) handleClosestPrecedingFinger(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	d, err := s.node.ClosestPrecedingFinger(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(d))
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var body notifyRequest
	if !decodeBody(r, &body) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}
	if err := s.node.Notify(r.Context(), fromDTO(body.Predecessor)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotifyPredecessorLeaving(w http.ResponseWriter, r *http.Request) {
	var body notifyPredecessorLeavingRequest
	if !decodeBody(r, &body) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}
	var np *chord.Descriptor
	if body.NewPredecessor != nil {
		d := fromDTO(*body.NewPredecessor)
		np = &d
	}
	if err := s.node.NotifyPredecessorLeaving(r.Context(), fromDTO(body.Node), np); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotifySuccessorLeaving(w http.ResponseWriter, r *http.Request) {
	var body notifySuccessorLeavingRequest
	if !decodeBody(r, &body) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}
	if err := s.node.NotifySuccessorLeaving(r.Context(), fromDTO(body.Node), fromDTOList(body.Successors)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuccessorCandidates(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	max := 3
	if m := r.URL.Query().Get("max"); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil && parsed > 0 {
			max = parsed
		}
	}
	list, err := s.node.SuccessorCandidates(r.Context(), id, max)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOList(list))
}

// handleRTT renders the RTT samples the liveness oracle has collected for
// this node's current predecessor and successor list. Samples recorded for
// other probed peers, such as fingers, are not shown.
func (s *Server) handleRTT(w http.ResponseWriter, r *http.Request) {
	if s.oracle == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "rtt tracking not enabled"})
		return
	}

	uris := make(map[string]struct{})
	if pred, err := s.node.Predecessor(r.Context()); err == nil && pred != nil {
		uris[pred.URI] = struct{}{}
	}
	if list, err := s.node.SuccessorList(r.Context()); err == nil {
		for _, d := range list {
			uris[d.URI] = struct{}{}
		}
	}

	w.Header().Set("content-type", "text/plain; charset=utf-8")
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Peer", "Min (ms)", "Avg (ms)", "Max (ms)", "StdDev (ms)"})
	for uri := range uris {
		min, avg, max, stddev, ok := s.oracle.Snapshot(uri)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{
			uri,
			fmt.Sprintf("%.2f", min),
			fmt.Sprintf("%.2f", avg),
			fmt.Sprintf("%.2f", max),
			fmt.Sprintf("%.2f", stddev),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
