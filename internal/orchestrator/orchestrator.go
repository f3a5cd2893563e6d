package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/readercompanion/internal/config"
	"github.com/local/readercompanion/internal/gemini"
	"github.com/local/readercompanion/internal/metrics"
	"github.com/local/readercompanion/internal/pdf"
)

// ErrBusy is returned when a send is submitted while another is in flight.
// Overlapping sends are rejected rather than queued.
var ErrBusy = errors.New("a request is already in flight")

// ModelClient is the remote side: one chat-style generation call and the
// two-phase file upload.
type ModelClient interface {
	Generate(ctx context.Context, req gemini.GenerateRequest) (string, error)
	UploadFile(ctx context.Context, name string, data []byte, mime string) (string, error)
}

// Extractor rasterizes the session document.
type Extractor interface {
	RenderPages(path string) ([]pdf.PageImage, error)
}

// Dependencies wires the orchestrator's collaborators.
type Dependencies struct {
	Client    ModelClient
	Extractor Extractor
	ReadFile  func(path string) ([]byte, error) // whole-file bytes for the upload path
	Settings  func() (config.Settings, error)  // re-read on every send, never cached
}

// Document identifies the fixed per-session input file.
type Document struct {
	Path string
	Name string
	MIME string
}

// Orchestrator owns the mutable session state: conversation history, the
// page-image cache and the uploaded-file reference. State is mutated only
// under o.mu — at submit time and at cache-commit/completion time; the
// worker receives read-only snapshots.
type Orchestrator struct {
	deps      Dependencies
	doc       Document
	sessionID string

	mu         sync.Mutex
	inflight   bool
	history    []gemini.Turn
	pageImages []string
	fileURI    string
}

func New(deps Dependencies, doc Document) *Orchestrator {
	if deps.ReadFile == nil {
		deps.ReadFile = pdf.ReadAll
	}
	return &Orchestrator{deps: deps, doc: doc, sessionID: uuid.NewString()}
}

// SessionID identifies this process lifetime in logs and transcript names.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Document returns the fixed session document.
func (o *Orchestrator) Document() Document { return o.doc }

// History returns a copy of the current conversation history.
func (o *Orchestrator) History() []gemini.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]gemini.Turn, len(o.history))
	copy(out, o.history)
	return out
}

// Submit starts one send. It re-reads the settings file, drops caches made
// stale by a strategy change, applies the history toggle, then dispatches a
// single worker goroutine. A second submit while one is in flight returns
// ErrBusy. Settings errors are synchronous: no task is created.
func (o *Orchestrator) Submit(query string) (*Task, error) {
	settings, err := o.deps.Settings()
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.inflight {
		o.mu.Unlock()
		return nil, ErrBusy
	}

	// Strategy changes invalidate the other strategy's cache so stale
	// context is never attached.
	if settings.PDFContext != config.ContextPages {
		o.pageImages = nil
	}
	if settings.PDFContext != config.ContextUpload {
		o.fileURI = ""
	}

	// History toggling takes effect immediately on this send.
	if settings.History {
		if o.history == nil {
			o.history = []gemini.Turn{}
		}
	} else {
		o.history = nil
	}

	history := make([]gemini.Turn, len(o.history))
	copy(history, o.history)
	images := o.pageImages
	fileURI := o.fileURI
	o.inflight = true
	o.mu.Unlock()

	task := newTask(query)
	go o.run(task, settings, history, images, fileURI)
	return task, nil
}

// run is the single background worker for one send: optional context
// preparation, then the network call, then completion.
func (o *Orchestrator) run(task *Task, settings config.Settings, history []gemini.Turn, images []string, fileURI string) {
	started := time.Now()
	answer, err := o.execute(task.query, settings, history, &images, &fileURI)

	o.mu.Lock()
	o.inflight = false
	if err == nil && settings.History && o.history != nil {
		o.history = append(o.history,
			gemini.Turn{Role: gemini.RoleUser, Text: task.query},
			gemini.Turn{Role: gemini.RoleModel, Text: answer},
		)
		metrics.SetHistoryTurns(len(o.history))
	}
	o.mu.Unlock()

	strategy := string(settings.PDFContext)
	if err != nil {
		metrics.ObserveAsk(strategy, errorKind(err), time.Since(started))
		log.Warn().Err(err).Str("strategy", strategy).Str("kind", errorKind(err)).Msg("send failed")
		task.fail(err)
		return
	}
	metrics.ObserveAsk(strategy, "ok", time.Since(started))
	log.Info().Str("strategy", strategy).Dur("took", time.Since(started)).Msg("send ok")
	task.succeed(answer)
}

// execute prepares context per strategy (committing each cache as soon as
// its preparation fully succeeds, so it runs at most once per session) and
// performs the generation call.
func (o *Orchestrator) execute(query string, settings config.Settings, history []gemini.Turn, images *[]string, fileURI *string) (string, error) {
	ctx := context.Background()

	switch settings.PDFContext {
	case config.ContextPages:
		if len(*images) == 0 {
			pages, err := o.deps.Extractor.RenderPages(o.doc.Path)
			if err != nil {
				metrics.IncContextPrep("render", "error")
				return "", err
			}
			rendered := make([]string, len(pages))
			for i, p := range pages {
				rendered[i] = p.Data
			}
			o.mu.Lock()
			o.pageImages = rendered
			o.mu.Unlock()
			*images = rendered
			metrics.IncContextPrep("render", "ok")
			log.Info().Int("pages", len(rendered)).Msg("rendered page images once for session")
		}
	case config.ContextUpload:
		if *fileURI == "" {
			data, err := o.deps.ReadFile(o.doc.Path)
			if err != nil {
				metrics.IncContextPrep("upload", "error")
				return "", err
			}
			uri, err := o.deps.Client.UploadFile(ctx, o.doc.Name, data, o.doc.MIME)
			if err != nil {
				metrics.IncContextPrep("upload", "error")
				return "", err
			}
			o.mu.Lock()
			o.fileURI = uri
			o.mu.Unlock()
			*fileURI = uri
			metrics.IncContextPrep("upload", "ok")
			metrics.AddUploadBytes(len(data))
		}
	}

	return o.deps.Client.Generate(ctx, gemini.GenerateRequest{
		Model:           settings.Model,
		MaxOutputTokens: settings.MaxOutputTokens,
		SystemPrompt:    settings.SystemPrompt(),
		Query:           query,
		Images:          *images,
		FileURI:         *fileURI,
		History:         history,
	})
}

// errorKind maps an error to its taxonomy bucket for metrics and logs.
func errorKind(err error) string {
	switch {
	case pdf.IsDocumentAccess(err):
		return "document_access"
	case gemini.IsMalformedResponse(err):
		return "malformed_response"
	case gemini.IsTransport(err):
		return "transport"
	default:
		return "error"
	}
}
