package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"

	"blogsmith/internal/domain"
)

// SettingsJSON is the wire form of blog settings. Booleans are pointers so an
// omitted flag keeps its form default.
type SettingsJSON struct {
	Tone              string `json:"tone" validate:"omitempty,oneof=professional casual friendly formal"`
	Length            string `json:"length" validate:"omitempty,oneof=short medium long"`
	IncludeHeadings   *bool  `json:"includeHeadings"`
	IncludeConclusion *bool  `json:"includeConclusion"`
}

// GenerateRequest is the body accepted by the job submission endpoint.
type GenerateRequest struct {
	Topic     string        `json:"topic" validate:"required,notblank,max=300"`
	Settings  *SettingsJSON `json:"settings"`
	UserEmail string        `json:"userEmail" validate:"omitempty,email"`
}

// Normalize trims free-text fields and lower-cases enum values.
func (r *GenerateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Topic = strings.TrimSpace(r.Topic)
	r.UserEmail = strings.ToLower(strings.TrimSpace(r.UserEmail))
	if r.Settings != nil {
		r.Settings.Tone = strings.ToLower(strings.TrimSpace(r.Settings.Tone))
		r.Settings.Length = strings.ToLower(strings.TrimSpace(r.Settings.Length))
	}
}

// BlogSettings resolves the request settings against the form defaults.
func (r GenerateRequest) BlogSettings() domain.BlogSettings {
	out := domain.DefaultBlogSettings()
	if r.Settings == nil {
		return out
	}
	if r.Settings.Tone != "" {
		out.Tone = domain.Tone(r.Settings.Tone)
	}
	if r.Settings.Length != "" {
		out.Length = domain.Length(r.Settings.Length)
	}
	if r.Settings.IncludeHeadings != nil {
		out.IncludeHeadings = *r.Settings.IncludeHeadings
	}
	if r.Settings.IncludeConclusion != nil {
		out.IncludeConclusion = *r.Settings.IncludeConclusion
	}
	out.Normalize()
	return out
}

// MustMarshal encodes v or panics. Intended for static metadata payloads.
func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
