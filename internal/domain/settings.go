package domain

// Tone enumerates the writing voices a draft can use.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneFriendly     Tone = "friendly"
	ToneFormal       Tone = "formal"
)

// Length enumerates the supported article sizes.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// BlogSettings captures the user's generation preferences.
type BlogSettings struct {
	Tone              Tone   `json:"tone" bson:"tone" validate:"omitempty,oneof=professional casual friendly formal"`
	Length            Length `json:"length" bson:"length" validate:"omitempty,oneof=short medium long"`
	IncludeHeadings   bool   `json:"includeHeadings" bson:"includeHeadings"`
	IncludeConclusion bool   `json:"includeConclusion" bson:"includeConclusion"`
}

// LengthTarget describes the word and token budget for a length setting.
type LengthTarget struct {
	Words     int
	MaxTokens int
}

var lengthTargets = map[Length]LengthTarget{
	LengthShort:  {Words: 600, MaxTokens: 2000},
	LengthMedium: {Words: 1500, MaxTokens: 4096},
	LengthLong:   {Words: 2000, MaxTokens: 6000},
}

// Target returns the budget for l, defaulting to medium.
func (l Length) Target() LengthTarget {
	if t, ok := lengthTargets[l]; ok {
		return t
	}
	return lengthTargets[LengthMedium]
}

// DefaultBlogSettings mirrors the form defaults.
func DefaultBlogSettings() BlogSettings {
	return BlogSettings{
		Tone:              ToneProfessional,
		Length:            LengthMedium,
		IncludeHeadings:   true,
		IncludeConclusion: true,
	}
}

// Normalize fills empty enum fields with defaults.
func (s *BlogSettings) Normalize() {
	if s == nil {
		return
	}
	if s.Tone == "" {
		s.Tone = ToneProfessional
	}
	if _, ok := lengthTargets[s.Length]; !ok {
		s.Length = LengthMedium
	}
}
