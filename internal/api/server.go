package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"atelier/internal/domain"
	"atelier/internal/store"
)

// Default result caps per listing endpoint.
const (
	defaultClientLimit     = 200
	defaultCommissionLimit = 500
	defaultNoteLimit       = 200
)

// Server handles HTTP requests for the commission organizer API. The store
// may be nil when no connection could be established at startup; data
// endpoints then answer with a server error while the diagnostic endpoints
// keep working.
type Server struct {
	store store.Store
	addr  string
	log   zerolog.Logger
}

// New creates a new API server
func New(s store.Store, addr string, log zerolog.Logger) *Server {
	return &Server{store: s, addr: addr, log: log}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.addr).Bool("store", s.store != nil).Msg("starting server")
	return http.ListenAndServe(s.addr, s.Handler())
}

// Handler returns the full middleware-wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.root)
	mux.HandleFunc("GET /test", s.testStore)

	// Clients
	mux.HandleFunc("GET /api/clients", s.listClients)
	mux.HandleFunc("POST /api/clients", s.createClient)

	// Commissions
	mux.HandleFunc("GET /api/commissions", s.listCommissions)
	mux.HandleFunc("POST /api/commissions", s.createCommission)
	mux.HandleFunc("GET /api/commissions/stats", s.commissionStats)

	// Notes
	mux.HandleFunc("GET /api/notes", s.listNotes)
	mux.HandleFunc("POST /api/notes", s.createNote)

	return withCORS(s.withLogging(mux))
}

// withCORS allows any origin; the API is meant for trusted frontends.
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(rec, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Artist Commission Organizer Backend"})
}

// testStore reports store health. It always answers 200: problems show up in
// the payload, never as a failed request.
func (s *Server) testStore(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"backend":           "Running",
		"database":          "Not Available",
		"database_url":      nil,
		"database_name":     nil,
		"connection_status": "Not Connected",
		"collections":       []string{},
	}

	if s.store != nil {
		st := s.store.Status()
		if st.Connected {
			resp["database"] = "Available"
			resp["database_name"] = st.Name
			resp["connection_status"] = "Connected"
			if os.Getenv("DATABASE_URL") != "" {
				resp["database_url"] = "Set"
			} else {
				resp["database_url"] = "Not Set"
			}

			names, err := s.store.CollectionNames(r.Context())
			if err != nil {
				resp["database"] = "Connected but Error: " + truncate(err.Error(), 50)
			} else {
				if len(names) > 10 {
					names = names[:10]
				}
				resp["collections"] = names
				resp["database"] = "Connected & Working"
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, domain.CollectionClient, nil, defaultClientLimit)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var payload domain.Client
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.create(w, r, domain.CollectionClient, payload)
}

func (s *Server) listCommissions(w http.ResponseWriter, r *http.Request) {
	var filter map[string]any
	if status := r.URL.Query().Get("status"); status != "" {
		filter = map[string]any{"status": status}
	}
	s.list(w, r, domain.CollectionCommission, filter, defaultCommissionLimit)
}

func (s *Server) createCommission(w http.ResponseWriter, r *http.Request) {
	var payload domain.Commission
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.create(w, r, domain.CollectionCommission, payload)
}

func (s *Server) commissionStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "database not configured")
		return
	}

	counts, err := s.store.CountByField(r.Context(), domain.CollectionCommission, "status")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := make(map[string]int, len(counts))
	for status, n := range counts {
		if status == "" {
			status = "Unknown"
		}
		stats[status] += n
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	commissionID := r.URL.Query().Get("commission_id")
	if commissionID == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'commission_id' is required")
		return
	}
	s.list(w, r, domain.CollectionNote, map[string]any{"commission_id": commissionID}, defaultNoteLimit)
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var payload domain.Note
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.create(w, r, domain.CollectionNote, payload)
}

// record is any payload that can validate itself and produce its storable
// document.
type record interface {
	Validate() error
	Document() map[string]any
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, collection string, payload record) {
	if err := payload.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "database not configured")
		return
	}

	id, err := s.store.Insert(r.Context(), collection, store.Document(payload.Document()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, collection string, filter map[string]any, defaultLimit int) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "database not configured")
		return
	}

	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	docs, err := s.store.Find(r.Context(), collection, filter, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, serializeDoc(doc))
	}

	writeJSON(w, http.StatusOK, out)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
