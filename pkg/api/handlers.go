package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/export"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 16 << 20

// AnalyzeRequest is the body of POST /api/analyze and /api/embed-analyze.
type AnalyzeRequest struct {
	Name  string                 `json:"name,omitempty"`
	Moves []linkograph.Move      `json:"moves"`
	Links *linkograph.LinkMatrix `json:"links,omitempty"`

	// Config overrides the server's analysis parameters for this request.
	Config *ConfigOverrides `json:"config,omitempty"`
}

// ConfigOverrides holds optional per-request analysis parameters.
type ConfigOverrides struct {
	MinLinkStrength   *float64 `json:"minLinkStrength,omitempty"`
	CopyThreshold     *float64 `json:"copyThreshold,omitempty"`
	CriticalMoveCount *int     `json:"criticalMoveCount,omitempty"`
}

// Apply returns cfg with the overrides set.
func (o *ConfigOverrides) Apply(cfg linkograph.Config) linkograph.Config {
	if o == nil {
		return cfg
	}
	if o.MinLinkStrength != nil {
		cfg.MinLinkStrength = *o.MinLinkStrength
	}
	if o.CopyThreshold != nil {
		cfg.CopyThreshold = *o.CopyThreshold
	}
	if o.CriticalMoveCount != nil {
		cfg.CriticalMoveCount = *o.CriticalMoveCount
	}
	return cfg
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Provider  *embedding.Status `json:"provider,omitempty"`
	WSClients int               `json:"wsClients"`
}

// Handlers implements the API endpoints.
type Handlers struct {
	analysis  linkograph.Config
	provider  embedding.Provider
	embedOpts embedding.Options
	events    Publisher
	hub       *Hub
	version   string
	logger    *slog.Logger
}

// Register adds the endpoints to rt.
func (h *Handlers) Register(rt *Router) {
	rt.GET("/health", h.Health)
	rt.POST("/api/analyze", h.Analyze)
	rt.POST("/api/embed-analyze", h.EmbedAnalyze)
}

// Health reports liveness and whether the embedding provider answers.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: h.version}
	if h.provider != nil {
		resp.Provider = &embedding.Status{
			Name:      "embedding",
			Provider:  h.provider.Name(),
			Available: h.provider.IsAvailable(r.Context()),
			Dimension: h.provider.Dimension(),
		}
	}
	if h.hub != nil {
		resp.WSClients = h.hub.ClientCount()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Analyze runs the pipeline on moves that carry embeddings or on an
// imported link matrix.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	req, cfg, ok := h.readRequest(w, r)
	if !ok {
		return
	}
	h.run(w, r, req, cfg, false)
}

// EmbedAnalyze embeds move texts through the configured provider, then
// analyzes them.
func (h *Handlers) EmbedAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		WriteFailure(w, lerrors.EmbeddingError(lerrors.ErrProviderNotConfigured, "no embedding provider configured").
			WithSuggestion("Set embedding.provider in the config file"))
		return
	}
	req, cfg, ok := h.readRequest(w, r)
	if !ok {
		return
	}
	if req.Links != nil {
		WriteFailure(w, lerrors.InputError(lerrors.ErrLinksInvalid, "links are computed from the embeddings; omit them or use /api/analyze"))
		return
	}
	h.run(w, r, req, cfg, true)
}

func (h *Handlers) readRequest(w http.ResponseWriter, r *http.Request) (*AnalyzeRequest, linkograph.Config, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AnalyzeRequest
	if err := ReadJSON(r, &req); err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytes):
			WriteError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body exceeds 16 MiB")
		case isLinkographError(err):
			WriteFailure(w, err)
		default:
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		}
		return nil, linkograph.Config{}, false
	}

	cfg := req.Config.Apply(h.analysis)
	if err := cfg.Validate(); err != nil {
		WriteFailure(w, err)
		return nil, linkograph.Config{}, false
	}
	return &req, cfg, true
}

func isLinkographError(err error) bool {
	_, ok := lerrors.AsLinkographError(err)
	return ok
}

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, req *AnalyzeRequest, cfg linkograph.Config, embed bool) {
	ctx := r.Context()
	reqID := RequestID(ctx)
	log := h.logger.With("request_id", reqID)

	h.events.Publish(NewEvent(EventAnalysisStarted, reqID, AnalysisStartedData{
		Name:  req.Name,
		Moves: len(req.Moves),
		Embed: embed,
	}))

	report, err := h.analyze(ctx, req, cfg, embed, reqID)
	if err != nil {
		log.Warn("analysis failed", "error", err)
		failed := AnalysisFailedData{Code: lerrors.ErrInternal, Message: err.Error()}
		if le, ok := lerrors.AsLinkographError(err); ok {
			failed.Code, failed.Message = le.Code, le.Message
		}
		h.events.Publish(NewEvent(EventAnalysisFailed, reqID, failed))
		WriteFailure(w, err)
		return
	}

	for _, warning := range report.Graph.Warnings {
		log.Warn("degenerate input", "warning", warning)
	}
	h.events.Publish(NewEvent(EventAnalysisCompleted, reqID, AnalysisCompletedData{
		GraphID: report.Graph.ID,
		Hash:    report.Hash.Hash,
		Summary: report.Summary,
	}))
	log.Info("analysis completed",
		"moves", len(report.Graph.Moves),
		"ldi", report.Graph.LinkDensityIndex,
		"entropy", report.Graph.Entropy,
	)
	WriteJSON(w, http.StatusOK, report)
}

func (h *Handlers) analyze(ctx context.Context, req *AnalyzeRequest, cfg linkograph.Config, embed bool, reqID string) (*export.Report, error) {
	moves := req.Moves
	if embed {
		opts := h.embedOpts
		opts.Progress = func(done, total int) {
			h.events.Publish(NewEvent(EventEmbeddingProgress, reqID, EmbeddingProgressData{Done: done, Total: total}))
		}
		var err error
		moves, err = embedding.EmbedMoves(ctx, h.provider, moves, opts)
		if err != nil {
			return nil, err
		}
	}

	g := linkograph.NewGraph(req.Name, moves)
	g.Links = req.Links
	out, err := linkograph.Analyze(g, cfg)
	if err != nil {
		return nil, err
	}
	return export.NewReport(out, cfg, h.version), nil
}
