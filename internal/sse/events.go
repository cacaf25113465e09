// Package sse implements Server-Sent Events for per-user story progress
// notifications and event broadcasting.
package sse

import (
	"time"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventAudioProgress reports audio pipeline progress for a story.
	EventAudioProgress EventType = "audio.progress"
	// EventAudioError reports an audio pipeline failure for a story.
	EventAudioError EventType = "audio.error"

	// EventTranslationProgress reports translation pipeline progress.
	EventTranslationProgress EventType = "translation.progress"
	// EventTranslationComplete carries the finished translation text.
	EventTranslationComplete EventType = "translation.complete"
	// EventTranslationError reports a translation pipeline failure.
	EventTranslationError EventType = "translation.error"

	// EventStoryShared notifies a user that a story was shared with them.
	EventStoryShared EventType = "story.shared"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID filters delivery: when set, only that user's clients receive
	// the event. Empty string means broadcast to all.
	UserID string `json:"-"`
}

// AudioProgressData is the data payload for audio progress events.
type AudioProgressData struct {
	StoryID  string `json:"story_id"`
	Progress int    `json:"progress"`
	Status   string `json:"status"`
	FileID   string `json:"file_id,omitempty"` // set on completion
}

// AudioErrorData is the data payload for audio error events.
type AudioErrorData struct {
	StoryID string `json:"story_id"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TranslationProgressData is the data payload for translation progress events.
type TranslationProgressData struct {
	StoryID string `json:"story_id"`
	Status  string `json:"status"`
}

// TranslationCompleteData is the data payload for translation completion events.
type TranslationCompleteData struct {
	StoryID        string `json:"story_id"`
	TranslatedText string `json:"translated_text"`
}

// TranslationErrorData is the data payload for translation error events.
type TranslationErrorData struct {
	StoryID string `json:"story_id"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StorySharedData is the data payload for story shared events.
type StorySharedData struct {
	StoryID  string    `json:"story_id"`
	SharedBy string    `json:"shared_by"`
	Title    string    `json:"title"`
	SharedAt time.Time `json:"shared_at"`
}

// HeartbeatData is the data payload for heartbeat events.
type HeartbeatData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewAudioProgressEvent creates an audio progress event.
func NewAudioProgressEvent(storyID string, progress int, status, fileID string) Event {
	return Event{
		Type:      EventAudioProgress,
		Timestamp: time.Now(),
		Data: AudioProgressData{
			StoryID:  storyID,
			Progress: progress,
			Status:   status,
			FileID:   fileID,
		},
	}
}

// NewAudioErrorEvent creates an audio error event.
func NewAudioErrorEvent(storyID, errKind, message string) Event {
	return Event{
		Type:      EventAudioError,
		Timestamp: time.Now(),
		Data: AudioErrorData{
			StoryID: storyID,
			Error:   errKind,
			Message: message,
		},
	}
}

// NewTranslationProgressEvent creates a translation progress event.
func NewTranslationProgressEvent(storyID, status string) Event {
	return Event{
		Type:      EventTranslationProgress,
		Timestamp: time.Now(),
		Data: TranslationProgressData{
			StoryID: storyID,
			Status:  status,
		},
	}
}

// NewTranslationCompleteEvent creates a translation completion event.
func NewTranslationCompleteEvent(storyID, translatedText string) Event {
	return Event{
		Type:      EventTranslationComplete,
		Timestamp: time.Now(),
		Data: TranslationCompleteData{
			StoryID:        storyID,
			TranslatedText: translatedText,
		},
	}
}

// NewTranslationErrorEvent creates a translation error event.
func NewTranslationErrorEvent(storyID, errKind, message string) Event {
	return Event{
		Type:      EventTranslationError,
		Timestamp: time.Now(),
		Data: TranslationErrorData{
			StoryID: storyID,
			Error:   errKind,
			Message: message,
		},
	}
}

// NewStorySharedEvent creates a story shared event.
func NewStorySharedEvent(storyID, sharedBy, title string) Event {
	return Event{
		Type:      EventStoryShared,
		Timestamp: time.Now(),
		Data: StorySharedData{
			StoryID:  storyID,
			SharedBy: sharedBy,
			Title:    title,
			SharedAt: time.Now(),
		},
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data: HeartbeatData{
			ServerTime: time.Now(),
		},
	}
}
