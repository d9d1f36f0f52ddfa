package webhook

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
)

// MessageHandler accepts one inbound message for processing. Satisfied by
// *orchestrator.Orchestrator.
type MessageHandler interface {
	Handle(msg core.InboundMessage) error
}

// Options configure the webhook server.
type Options struct {
	// Logger receives request diagnostics.
	Logger logging.Logger
	// Now stamps inbound messages. Injectable for tests.
	Now func() time.Time
}

// Server routes inbound SMS callbacks to the message handler.
type Server struct {
	handler MessageHandler
	logger  logging.Logger
	now     func() time.Time
}

// NewServer constructs the webhook server.
func NewServer(handler MessageHandler, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{handler: handler, logger: opts.Logger, now: opts.Now}
}

// Routes builds the HTTP handler: the SMS callback plus a liveness probe.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/receive-sms", s.receiveSMS)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// receiveSMS handles the Africa's Talking incoming-message callback. The
// gateway retries non-2xx responses, so a full queue maps to 503.
func (s *Server) receiveSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form body"})
		return
	}

	from := core.NormalizePhone(r.PostFormValue("from"))
	text := r.PostFormValue("text")
	if from == "" || text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and text are required"})
		return
	}

	msg := core.InboundMessage{FarmerID: from, Text: text, ReceivedAt: s.now()}
	if err := s.handler.Handle(msg); err != nil {
		s.logger.Warn("inbound message not accepted", "farmer_id", from, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "try again later"})
		return
	}

	s.logger.Debug("inbound message accepted", "farmer_id", from, "length", len(text))
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
