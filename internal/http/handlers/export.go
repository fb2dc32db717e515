package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogsmith/internal/domain"
	"blogsmith/internal/domain/jsoncfg"
	"blogsmith/internal/export"
)

// ExportJob downloads a completed job as HTML or as a zip bundle.
func (a *App) ExportJob(w http.ResponseWriter, r *http.Request) {
	trackingID := strings.TrimSpace(chi.URLParam(r, "trackingId"))
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = export.FormatHTML
	}
	if format != export.FormatHTML && format != export.FormatZip {
		a.error(w, http.StatusBadRequest, "bad_request", "format must be html or zip")
		return
	}
	job, err := a.Jobs.Status(r.Context(), trackingID)
	if err != nil {
		a.jobError(w, r, err)
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.error(w, http.StatusConflict, "not_completed", "Job has not completed")
		return
	}
	doc, err := export.FromJob(job)
	if err != nil {
		a.serviceError(w, r, err, "Failed to export blog")
		return
	}
	if format == export.FormatZip {
		data, err := export.Bundle(doc)
		if err != nil {
			a.serviceError(w, r, err, "Failed to export blog")
			return
		}
		a.attachment(w, "application/zip", export.Filename(doc.Title, export.FormatZip), data)
		return
	}
	a.renderHTML(w, r, doc)
}

// DownloadHTML renders an article posted in the request body.
func (a *App) DownloadHTML(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.DownloadRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	doc := export.Document{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		WordCount: req.WordCount,
		Images:    req.Images,
	}
	if req.Rating != nil {
		doc.Rating = &domain.Rating{Score: req.Rating.Score, Review: req.Rating.Review}
	}
	a.renderHTML(w, r, doc)
}

func (a *App) renderHTML(w http.ResponseWriter, r *http.Request, doc export.Document) {
	page, err := export.RenderHTML(doc)
	if err != nil {
		a.serviceError(w, r, err, "Failed to generate HTML")
		return
	}
	a.attachment(w, "text/html; charset=utf-8", export.Filename(doc.Title, export.FormatHTML), page)
}

func (a *App) attachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
