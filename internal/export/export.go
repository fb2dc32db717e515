// Package export renders finished articles as downloadable files.
package export

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"blogsmith/internal/domain"
	"blogsmith/pkg/zip"
)

//go:embed templates/post.html.tmpl
var templateFS embed.FS

var postTemplate = template.Must(template.New("post.html.tmpl").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/post.html.tmpl"))

var contentPolicy = bluemonday.UGCPolicy()

const (
	FormatHTML = "html"
	FormatZip  = "zip"
)

// Document is the exportable view of a finished article.
type Document struct {
	TrackingID  string         `json:"trackingId,omitempty"`
	Topic       string         `json:"topic,omitempty"`
	Title       string         `json:"title"`
	Content     string         `json:"-"`
	WordCount   int            `json:"wordCount"`
	Rating      *domain.Rating `json:"rating,omitempty"`
	Images      []string       `json:"images"`
	Tone        string         `json:"tone,omitempty"`
	Length      string         `json:"length,omitempty"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// FromJob builds a Document from a completed job.
func FromJob(job *domain.Job) (Document, error) {
	if job == nil || job.Status != domain.JobStatusCompleted || job.Title == nil || job.Content == nil {
		return Document{}, fmt.Errorf("%w: job is not completed", domain.ErrInvalidInput)
	}
	doc := Document{
		TrackingID:  job.TrackingID,
		Topic:       job.Topic,
		Title:       *job.Title,
		Content:     *job.Content,
		Images:      job.Images,
		Tone:        string(job.Settings.Tone),
		Length:      string(job.Settings.Length),
		GeneratedAt: job.UpdatedAt,
	}
	if job.WordCount != nil {
		doc.WordCount = *job.WordCount
	}
	if job.Rating != nil {
		r := *job.Rating
		doc.Rating = &r
	}
	return doc, nil
}

type templateData struct {
	Title     string
	Content   template.HTML
	WordCount int
	Rating    *domain.Rating
	Images    []string
	Tone      string
	Date      string
}

// RenderHTML returns a standalone HTML page. Content is sanitized before it
// is embedded.
func RenderHTML(doc Document) ([]byte, error) {
	if strings.TrimSpace(doc.Title) == "" || strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", domain.ErrInvalidInput)
	}
	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	data := templateData{
		Title:     doc.Title,
		Content:   template.HTML(contentPolicy.Sanitize(doc.Content)),
		WordCount: doc.WordCount,
		Rating:    doc.Rating,
		Images:    doc.Images,
		Tone:      ToneLabel(doc.Tone),
		Date:      generated.Format("January 2, 2006"),
	}
	var buf bytes.Buffer
	if err := postTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// Bundle zips the HTML page together with a metadata.json file.
func Bundle(doc Document) ([]byte, error) {
	page, err := RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	meta := doc
	meta.Tone = ToneLabel(doc.Tone)
	if meta.Images == nil {
		meta.Images = []string{}
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	modified := doc.GeneratedAt
	if modified.IsZero() {
		modified = time.Now().UTC()
	}
	return zip.Archive([]zip.File{
		{Name: Filename(doc.Title, FormatHTML), Data: page, Modified: modified},
		{Name: "metadata.json", Data: metaJSON, Modified: modified},
	})
}

// Filename turns a title into a safe lowercase file name.
func Filename(title, ext string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	name := strings.Trim(sb.String(), "_")
	if name == "" {
		name = "blog"
	}
	return name + "." + ext
}

// ToneLabel formats a tone for display, e.g. "professional" -> "Professional".
func ToneLabel(tone string) string {
	tone = strings.TrimSpace(tone)
	if tone == "" {
		return ""
	}
	return cases.Title(language.English).String(tone)
}
