package handler

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/errors"
	huddledto "github.com/huddleplan/huddle-pipeline/internal/adapter/dto/huddle"
	turnUsecase "github.com/huddleplan/huddle-pipeline/internal/usecase/turn"
)

// maxClipBytes bounds the multipart clip part. A 60s webm/opus clip is well
// under this.
const maxClipBytes = 32 << 20

// Turn handles the voice-turn upload path and the huddle read endpoints
type Turn struct {
	turnService turnUsecase.Service
	logger      *zap.Logger
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(turnService turnUsecase.Service, logger *zap.Logger) *Turn {
	return &Turn{
		turnService: turnService,
		logger:      logger,
	}
}

// SubmitTurn handles POST /huddles/:id/turns. The clip arrives as the "clip"
// multipart file part; the remaining fields are plain form values.
func (h *Turn) SubmitTurn(c echo.Context) error {
	huddleID, claims, err := h.huddleFromPath(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req huddledto.SubmitTurnRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	clip, mimeType, err := h.readClip(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.turnService.SubmitTurn(c.Request().Context(), &turnUsecase.SubmitTurnCommand{
		HuddleID:          huddleID,
		RequestID:         req.RequestID,
		SpeakerID:         claims.participantID,
		SpeakerLabel:      h.speakerLabel(req.SpeakerLabel, claims.displayName),
		Clip:              clip,
		MimeType:          mimeType,
		Duration:          time.Duration(req.DurationMs) * time.Millisecond,
		ConversationToken: req.ConversationToken,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &huddledto.SubmitTurnResponse{
		ChunkID:           result.ChunkID,
		Sequence:          result.Sequence,
		Transcript:        result.Transcript,
		ConversationToken: result.ConversationToken,
		Outcome:           result.Outcome,
		CreatedKeys:       result.CreatedKeys,
		Duplicate:         result.Duplicate,
	})
}

// ListItems handles GET /huddles/:id/items
func (h *Turn) ListItems(c echo.Context) error {
	huddleID, _, err := h.huddleFromPath(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	items, err := h.turnService.ListItems(c.Request().Context(), huddleID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &huddledto.ItemListResponse{
		Items: items,
		Total: len(items),
	})
}

// ListTranscript handles GET /huddles/:id/transcript
func (h *Turn) ListTranscript(c echo.Context) error {
	huddleID, _, err := h.huddleFromPath(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	chunks, err := h.turnService.ListTranscript(c.Request().Context(), huddleID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &huddledto.TranscriptResponse{
		Chunks: chunks,
		Total:  len(chunks),
	})
}

type participantClaims struct {
	participantID uuid.UUID
	huddleID      uuid.UUID
	displayName   string
	role          string
}

// huddleFromPath parses the huddle id and checks it against the token's
// huddle claim. Tokens are scoped to one huddle; a mismatch is a forbidden
// request, not a missing huddle.
func (h *Turn) huddleFromPath(c echo.Context) (uuid.UUID, *participantClaims, error) {
	huddleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, nil, errors.ErrInvalidArgument("huddle id must be a valid UUID")
	}

	participantID, ok := c.Get(ctxParticipantID).(uuid.UUID)
	if !ok {
		return uuid.Nil, nil, errors.ErrUnauthenticated()
	}
	tokenHuddle, ok := c.Get(ctxHuddleID).(uuid.UUID)
	if !ok {
		return uuid.Nil, nil, errors.ErrUnauthenticated()
	}
	if tokenHuddle != huddleID {
		return uuid.Nil, nil, errors.ErrForbidden("token is not valid for this huddle")
	}

	displayName, _ := c.Get(ctxDisplayName).(string)
	role, _ := c.Get(ctxRole).(string)

	return huddleID, &participantClaims{
		participantID: participantID,
		huddleID:      tokenHuddle,
		displayName:   displayName,
		role:          role,
	}, nil
}

func (h *Turn) readClip(c echo.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile("clip")
	if err != nil {
		return nil, "", errors.ErrTurnClipMissing()
	}
	if fileHeader.Size > maxClipBytes {
		return nil, "", errors.ErrInvalidArgument("clip exceeds the maximum upload size")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", errors.ErrInternal(err)
	}
	defer file.Close()

	clip, err := io.ReadAll(io.LimitReader(file, maxClipBytes))
	if err != nil {
		return nil, "", errors.ErrInternal(err)
	}
	if len(clip) == 0 {
		return nil, "", errors.ErrTurnClipMissing()
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	return clip, mimeType, nil
}

func (h *Turn) speakerLabel(fromForm, fromToken string) string {
	if fromForm != "" {
		return fromForm
	}
	return fromToken
}
