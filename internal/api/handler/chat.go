// internal/api/handler/chat.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/covergrid/pulse/internal/api/response"
	"github.com/covergrid/pulse/internal/assistant"
	"github.com/covergrid/pulse/internal/core"
	"github.com/covergrid/pulse/internal/metrics"
	"go.uber.org/zap"
)

// ChatHandler proxies assistant requests for the dashboard helper.
type ChatHandler struct {
	svc     *assistant.Service
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewChatHandler creates a chat handler. reg may be nil.
func NewChatHandler(svc *assistant.Service, reg *metrics.Registry, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{svc: svc, metrics: reg, logger: logger}
}

type chatRequest struct {
	Model       string              `json:"model,omitempty"`
	System      string              `json:"system,omitempty"`
	Messages    []assistant.Message `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

type chatResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason,omitempty"`
	FellBack     bool   `json:"fell_back,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Chat forwards the conversation to the configured provider.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrBadRequest, err))
		return
	}
	if len(req.Messages) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrBadRequest, fmt.Errorf("messages required")))
		return
	}
	for _, msg := range req.Messages {
		if msg.Role != "user" && msg.Role != "assistant" {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrBadRequest, fmt.Errorf("unknown role %q", msg.Role)))
			return
		}
	}

	resp, fellBack, err := h.svc.Chat(r.Context(), assistant.ChatRequest{
		Model:        req.Model,
		SystemPrompt: req.System,
		Messages:     req.Messages,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	if fellBack && h.metrics != nil {
		h.metrics.RecordChatFallback()
	}
	if err != nil {
		h.recordChat(req.Model, "error")
		h.logger.Error("chat request failed",
			zap.String("model", req.Model),
			zap.Bool("fell_back", fellBack),
			zap.Error(err),
		)
		response.Error(w, response.StatusFor(err), err)
		return
	}

	h.recordChat(resp.Model, "ok")
	response.JSON(w, http.StatusOK, chatResponse{
		Content:      resp.Content,
		Model:        resp.Model,
		FinishReason: resp.FinishReason,
		FellBack:     fellBack,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})
}

func (h *ChatHandler) recordChat(model, status string) {
	if h.metrics != nil {
		if model == "" {
			model = "default"
		}
		h.metrics.RecordChatRequest(model, status)
	}
}
