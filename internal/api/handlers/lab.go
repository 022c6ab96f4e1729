package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/ai/lab"
	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/jobs"
)

// LabHandler handles the AI playground endpoints. All of them require a
// configured API key; without one they answer 503.
type LabHandler struct {
	lab       *lab.Lab
	publisher jobs.Publisher
	jobStore  jobs.JobStore
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// NewLabHandler creates a new lab handler. lab may be nil when AI is
// disabled.
func NewLabHandler(l *lab.Lab, publisher jobs.Publisher, jobStore jobs.JobStore, log zerolog.Logger) *LabHandler {
	return &LabHandler{
		lab:       l,
		publisher: publisher,
		jobStore:  jobStore,
		upgrader: websocket.Upgrader{
			// The browser shell is served from its own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *LabHandler) available(w http.ResponseWriter) bool {
	if h.lab == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "AI features are not configured")
		return false
	}
	return true
}

// Chat handles POST /api/lab/chat
func (h *LabHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req struct {
		Prompt    string `json:"prompt"`
		Grounding string `json:"grounding"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	result, err := h.lab.Chat(r.Context(), req.Prompt, lab.GroundingMode(req.Grounding))
	if err != nil {
		h.log.Error().Err(err).Msg("Lab chat failed")
		middleware.WriteError(w, http.StatusBadGateway, "Chat request failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// GenerateImage handles POST /api/lab/image
func (h *LabHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	img, err := h.lab.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		h.log.Error().Err(err).Msg("Image generation failed")
		middleware.WriteError(w, http.StatusBadGateway, "Image generation failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, img)
}

// EnqueueVideo handles POST /api/lab/video
//
// Video generation runs for minutes, so the request only enqueues a job
// and returns its ID; progress is polled via GetVideoJob.
func (h *LabHandler) EnqueueVideo(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	job := &jobs.VideoJob{Prompt: req.Prompt}
	if err := h.publisher.PublishGenerateVideo(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue video job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue video job")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetVideoJob handles GET /api/lab/video/{id}
func (h *LabHandler) GetVideoJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.jobStore.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// Synthesize handles POST /api/lab/speech
func (h *LabHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	audio, err := h.lab.Synthesize(r.Context(), req.Text)
	if err != nil {
		h.log.Error().Err(err).Msg("Speech synthesis failed")
		middleware.WriteError(w, http.StatusBadGateway, "Speech synthesis failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, audio)
}

// Transcribe handles POST /api/lab/transcribe
func (h *LabHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req struct {
		Audio    []byte `json:"audio"` // base64 in JSON
		MIMEType string `json:"mimeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Audio) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Audio is required")
		return
	}
	if req.MIMEType == "" {
		req.MIMEType = "audio/webm"
	}

	text, err := h.lab.Transcribe(r.Context(), req.Audio, req.MIMEType)
	if err != nil {
		h.log.Error().Err(err).Msg("Transcription failed")
		middleware.WriteError(w, http.StatusBadGateway, "Transcription failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Live handles GET /api/lab/live, upgrading to a WebSocket that bridges
// browser microphone audio to the live model and streams audio back.
func (h *LabHandler) Live(w http.ResponseWriter, r *http.Request) {
	if h.lab == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "AI features are not configured")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := h.lab.BridgeLive(r.Context(), conn); err != nil {
		h.log.Warn().Err(err).Msg("Live session ended with error")
	}
}
