package analysis

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/doctext/docpipe"
	"github.com/hazyhaar/doctext/kit"
)

// Extractor turns an uploaded document into text.
type Extractor interface {
	Extract(ctx context.Context, doc docpipe.SourceDocument) *docpipe.Result
}

// Handler serves POST /v1/analyze: extract the uploaded file, then run one
// analysis mode or answer a question about it.
type Handler struct {
	Extractor Extractor
	Analyzer  *Analyzer
	MaxBytes  int64
}

// Response is the /v1/analyze body.
type Response struct {
	Mode       string          `json:"mode"`
	Question   string          `json:"question,omitempty"`
	Analysis   string          `json:"analysis,omitempty"`
	Extraction *docpipe.Result `json:"extraction"`
	Error      string          `json:"error,omitempty"`
}

// RegisterHTTP mounts the handler on r.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Post("/v1/analyze", h.ServeHTTP)
}

// ServeHTTP reads multipart "file" plus optional "mode" and "question"
// fields. A non-empty question selects ask mode.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc, err := docpipe.ReadUpload(w, r, h.MaxBytes)
	if err != nil {
		docpipe.WriteUploadError(w, err)
		return
	}
	question := r.FormValue("question")
	mode := Mode("ask")
	if question == "" {
		if mode, err = ParseMode(r.FormValue("mode")); err != nil {
			docpipe.WriteError(w, http.StatusBadRequest, err)
			return
		}
	}

	ctx := kit.WithTransport(r.Context(), "http")
	res := h.Extractor.Extract(ctx, doc)
	resp := Response{Mode: string(mode), Question: question, Extraction: res}
	if !res.OK() {
		resp.Error = "no text could be extracted; upload a different file"
		docpipe.WriteJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	// The document text is not echoed back.
	text := res.Text
	res.Text = ""

	if question != "" {
		resp.Analysis, err = h.Analyzer.Ask(ctx, text, question)
	} else {
		resp.Analysis, err = h.Analyzer.Analyze(ctx, mode, text)
	}
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, ErrEmptyText) || errors.Is(err, ErrEmptyQuestion) {
			code = http.StatusUnprocessableEntity
		}
		resp.Error = err.Error()
		docpipe.WriteJSON(w, code, resp)
		return
	}
	docpipe.WriteJSON(w, http.StatusOK, resp)
}
