package assistant

import (
	"context"
	"errors"

	"github.com/covergrid/pulse/internal/core"
	"go.uber.org/zap"
)

// Service fronts a provider with the model-not-found fallback: when
// the requested model is rejected upstream, the request is retried
// once on the configured fallback model.
type Service struct {
	provider      Provider
	fallbackModel string
	logger        *zap.Logger
}

// NewService creates a chat service. fallbackModel may be empty to
// disable the retry.
func NewService(provider Provider, fallbackModel string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider:      provider,
		fallbackModel: fallbackModel,
		logger:        logger,
	}
}

// Provider returns the underlying provider name.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Chat forwards the request, retrying at most once on the fallback
// model. FellBack reports whether the retry happened.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, fellBack bool, err error) {
	resp, err = s.provider.Chat(ctx, req)
	if err == nil {
		return resp, false, nil
	}

	if s.fallbackModel == "" || req.Model == s.fallbackModel || !errors.Is(err, core.ErrModelNotFound) {
		return nil, false, err
	}

	s.logger.Warn("model not available, retrying on fallback",
		zap.String("model", req.Model),
		zap.String("fallback", s.fallbackModel),
	)

	req.Model = s.fallbackModel
	resp, err = s.provider.Chat(ctx, req)
	if err != nil {
		return nil, true, err
	}
	return resp, true, nil
}
