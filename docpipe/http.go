package docpipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/doctext/kit"
)

// multipartMemory is how much of an upload is kept in memory before the
// multipart parser spills to temporary files.
const multipartMemory = 32 << 20

// RegisterHTTP mounts the extraction endpoints:
//
//	POST /v1/extract      multipart "file" (+ optional "media_type") → Result
//	GET  /v1/media-types  supported media and MIME types
func (p *Pipeline) RegisterHTTP(r chi.Router) {
	r.Post("/v1/extract", p.handleExtract)
	r.Get("/v1/media-types", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, mediaTypesResponse())
	})
}

func (p *Pipeline) handleExtract(w http.ResponseWriter, r *http.Request) {
	doc, err := ReadUpload(w, r, p.cfg.MaxFileSize)
	if err != nil {
		WriteUploadError(w, err)
		return
	}
	ctx := kit.WithTransport(r.Context(), "http")
	res := p.Extract(ctx, doc)
	code := http.StatusOK
	if !res.OK() {
		code = http.StatusUnprocessableEntity
	}
	WriteJSON(w, code, res)
}

// ReadUpload reads the multipart "file" field of r into a SourceDocument.
// The media type comes from the "media_type" form field, then the part's
// Content-Type, then the file name extension. Bodies larger than maxBytes
// (plus multipart overhead) are refused.
func ReadUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (SourceDocument, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return SourceDocument{}, fmt.Errorf("parse form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return SourceDocument{}, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return SourceDocument{}, fmt.Errorf("read file: %w", err)
	}

	declared := r.FormValue("media_type")
	if declared == "" {
		if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
			declared = ct
		}
	}
	mt, err := resolveMediaType(declared, header.Filename)
	if err != nil {
		return SourceDocument{}, err
	}
	return SourceDocument{Name: header.Filename, MediaType: mt, Data: data}, nil
}

// WriteUploadError maps a ReadUpload error to a status code.
func WriteUploadError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		WriteError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	WriteError(w, http.StatusBadRequest, err)
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": err} with the given status.
func WriteError(w http.ResponseWriter, code int, err error) {
	WriteJSON(w, code, map[string]string{"error": err.Error()})
}
