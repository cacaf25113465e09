package domain

import "time"

// User represents an account. Users arrive either through an external
// identity provider (ID issued by the provider, email present) or as
// device-only accounts (locally generated ID, DeviceID present).
type User struct {
	ID                   string    `json:"id"`
	DeviceID             string    `json:"device_id,omitempty"`
	Name                 string    `json:"name"`
	Email                string    `json:"email,omitempty"`
	ReferenceVoiceFileID string    `json:"reference_voice_file_id,omitempty"`
	IsAdmin              bool      `json:"is_admin"`
	CreatedAt            time.Time `json:"created_at"`
	LastLoginAt          time.Time `json:"last_login_at"`
}

// HasReferenceVoice reports whether a voice sample has been registered.
// The audio pipeline requires one before synthesis can run.
func (u *User) HasReferenceVoice() bool {
	return u.ReferenceVoiceFileID != ""
}

// TouchLogin updates the last-login timestamp.
func (u *User) TouchLogin() {
	u.LastLoginAt = time.Now()
}
