// Package domain contains the core entities of the FairyTale server.
package domain

import "time"

// ContentKind identifies what a story content unit holds.
type ContentKind string

const (
	// ContentText is the canonical story text used as the source for derived generation.
	ContentText ContentKind = "text"
	// ContentTranslatedText is the story text translated to the target language.
	ContentTranslatedText ContentKind = "translated_text"
	// ContentAudio is synthesized narration stored externally.
	ContentAudio ContentKind = "audio"
	// ContentReferenceVoice is a user-supplied voice sample stored externally.
	ContentReferenceVoice ContentKind = "reference_voice"
)

// Story is a user-owned generated story. WantsAudio and WantsTranslation
// mark derived content the background pipeline still has to produce.
type Story struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Title            string          `json:"title"`
	WantsAudio       bool            `json:"wants_audio"`
	WantsTranslation bool            `json:"wants_translation"`
	CreatedAt        time.Time       `json:"created_at"`
	Contents         []*StoryContent `json:"contents,omitempty"`
}

// StoryContent is one content unit attached to a story: inline text,
// or a pointer to an externally stored file, depending on Kind.
type StoryContent struct {
	ID        string      `json:"id"`
	StoryID   string      `json:"story_id"`
	Kind      ContentKind `json:"kind"`
	FileID    string      `json:"file_id,omitempty"` // external storage identifier
	Text      string      `json:"text,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// CanonicalText returns the story's Text content unit, or nil if none is loaded.
// At most one Text unit per story is treated as canonical.
func (s *Story) CanonicalText() *StoryContent {
	for _, c := range s.Contents {
		if c.Kind == ContentText {
			return c
		}
	}
	return nil
}

// HasContent reports whether the story has a loaded content unit of the given kind.
func (s *Story) HasContent(kind ContentKind) bool {
	for _, c := range s.Contents {
		if c.Kind == kind {
			return true
		}
	}
	return false
}
