// Package rpc exposes the node's operator surface over HTTP: wallet
// creation, transaction submission, state and block queries, validator
// registration, and node status. It is a thin binding — every decision
// about validity lives in core; this package only translates JSON to Go
// values and Go errors to status codes.
package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-spiral/spiralchain/core"
)

// Server binds the operator HTTP surface to a single node.
type Server struct {
	node   *core.Node
	router chi.Router
	log    *logrus.Entry
}

// NewServer builds a Server routing every request against node.
func NewServer(node *core.Node) *Server {
	s := &Server{
		node: node,
		log:  logrus.WithField("component", "rpc"),
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Post("/v1/wallet", s.handleWalletCreate)
	r.Post("/v1/tx", s.handleTxSubmit)
	r.Get("/v1/accounts/{address}", s.handleStateQuery)
	r.Get("/v1/blocks/{height}", s.handleBlockQuery)
	r.Post("/v1/validators", s.handleValidatorRegister)
	r.Get("/v1/status", s.handleNodeStatus)

	s.router = r
	return s
}

// Router returns the http.Handler serving the operator surface.
func (s *Server) Router() http.Handler { return s.router }

func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("request")
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

// statusForError maps a core sentinel error kind to the HTTP status (and, by
// the same classification, the CLI exit code of §6) an operator should
// treat the rejection as.
func statusForError(err error) int {
	switch {
	case core.IsKind(err, core.ErrStructural), core.IsKind(err, core.ErrCryptographic):
		return http.StatusBadRequest
	case core.IsKind(err, core.ErrState):
		return http.StatusConflict
	case core.IsKind(err, core.ErrConsensusRule):
		return http.StatusUnprocessableEntity
	case core.IsKind(err, core.ErrTransient):
		return http.StatusServiceUnavailable
	case core.IsKind(err, core.ErrFatal):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
