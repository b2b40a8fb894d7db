package huddle

// CreateHuddleRequest creates a new planning session
type CreateHuddleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// JoinHuddleRequest asks for a participant access token
type JoinHuddleRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=speaker observer"`
}

// SubmitTurnRequest carries the non-file fields of the multipart turn
// upload; the clip itself arrives as the "clip" file part.
type SubmitTurnRequest struct {
	RequestID         string `form:"request_id" validate:"omitempty,max=100"`
	SpeakerLabel      string `form:"speaker_label" validate:"omitempty,max=100"`
	DurationMs        int64  `form:"duration_ms" validate:"omitempty,min=0"`
	ConversationToken string `form:"conversation_token" validate:"omitempty,max=4096"`
}

// HeartbeatRequest refreshes a participant's presence
type HeartbeatRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=100"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=speaker observer"`
}
