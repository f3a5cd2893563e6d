package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/local/readercompanion/internal/archive"
	"github.com/local/readercompanion/internal/config"
	"github.com/local/readercompanion/internal/metrics"
	"github.com/local/readercompanion/internal/orchestrator"
	"github.com/local/readercompanion/internal/statuscheck"
	"github.com/local/readercompanion/internal/uistate"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the local panel: the display surface next to the document. Send
// failures render as text in the answer pane and never terminate the process.
type Server struct {
	orch     *orchestrator.Orchestrator
	ui       *uistate.Store
	archiver *archive.Archiver
	checker  *statuscheck.Checker
	settings func() (config.Settings, error)
	tpl      *template.Template
}

// Options wires the panel's collaborators.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	UIState      *uistate.Store
	Archiver     *archive.Archiver
	Checker      *statuscheck.Checker
	Settings     func() (config.Settings, error)
}

func New(opts Options) *Server {
	tpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	return &Server{
		orch:     opts.Orchestrator,
		ui:       opts.UIState,
		archiver: opts.Archiver,
		checker:  opts.Checker,
		settings: opts.Settings,
		tpl:      tpl,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/doc", s.handleDoc)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/uistate", s.handleUIState)
	mux.HandleFunc("/transcript/save", s.handleTranscriptSave)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	mux.Handle("/metrics", metrics.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fontSize := 14
	if settings, err := s.settings(); err == nil && settings.FontSize > 0 {
		fontSize = settings.FontSize
	}
	data := map[string]any{
		"Document": s.orch.Document().Name,
		"FontSize": fontSize,
		"UIState":  s.ui.Get(),
	}
	if err := s.tpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Error().Err(err).Msg("render panel")
	}
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	doc := s.orch.Document()
	w.Header().Set("Content-Type", doc.MIME)
	w.Header().Set("Content-Disposition", `inline; filename="`+doc.Name+`"`)
	http.ServeFile(w, r, doc.Path)
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleAsk runs one send and blocks until its outcome. A send already in
// flight is a 409; every other failure is a 200 whose error text the panel
// shows in the answer pane.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, askResponse{Error: "missing query"})
		return
	}

	task, err := s.orch.Submit(req.Query)
	if err != nil {
		if errors.Is(err, orchestrator.ErrBusy) {
			writeJSON(w, http.StatusConflict, askResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, askResponse{Error: err.Error()})
		return
	}

	out := task.Outcome()
	if out.Err != nil {
		writeJSON(w, http.StatusOK, askResponse{Error: out.Err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: out.Answer})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"turns": s.orch.History()})
}

func (s *Server) handleUIState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ui.Get())
	case http.MethodPut:
		var st uistate.State
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ui state"})
			return
		}
		s.ui.Put(st)
		writeJSON(w, http.StatusOK, s.ui.Get())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTranscriptSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path, err := s.archiver.Save(r.Context(), archive.Transcript{
		SessionID: s.orch.SessionID(),
		Document:  s.orch.Document().Name,
		Turns:     s.orch.History(),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if path == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "nothing to save"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.checker.Summary(r.Context()))
}
