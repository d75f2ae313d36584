package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/entity"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/metrics"
	"financebot-be/pkg/llm"
)

// ExternalAdvisor is the third-party advisory API.
type ExternalAdvisor interface {
	Ask(ctx context.Context, message string, history []llm.Message) (string, error)
}

type IAdvisorService interface {
	// Stream starts a FinanceBot completion over the given turns. The
	// returned stream must be closed; it ends on its own after maxDuration.
	Stream(ctx context.Context, messages []llm.Message) (llm.Stream, error)
	Advise(ctx context.Context, req *dto.AdviceRequest) (*dto.AdviceResponse, error)
}

type advisorService struct {
	llmProvider llm.LLMProvider
	external    ExternalAdvisor
	llmOptions  []llm.Option
	maxDuration time.Duration
	logger      logger.ILogger
}

// NewAdvisorService takes an optional external advisor; without one Advise fails with 502.
func NewAdvisorService(llmProvider llm.LLMProvider, external ExternalAdvisor, maxDuration time.Duration, log logger.ILogger, opts ...llm.Option) IAdvisorService {
	return &advisorService{
		llmProvider: llmProvider,
		external:    external,
		llmOptions:  opts,
		maxDuration: maxDuration,
		logger:      log,
	}
}

func (s *advisorService) Stream(ctx context.Context, messages []llm.Message) (llm.Stream, error) {
	turns := normalizeTurns(messages)
	if len(turns) == 0 {
		return nil, apperror.Validation(constant.MsgMessagesRequired)
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.maxDuration)
	stream, err := s.llmProvider.ChatStream(ctx, llm.WithSystemPrompt(constant.FinanceBotSystemPrompt, turns), s.llmOptions...)
	if err != nil {
		cancel()
		metrics.AdvisorCall(metrics.ModeStream, started, err)
		return nil, apperror.Upstream(err)
	}
	return &boundedStream{Stream: stream, cancel: cancel, started: started}, nil
}

func (s *advisorService) Advise(ctx context.Context, req *dto.AdviceRequest) (*dto.AdviceResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperror.Validation(constant.MsgAdviceRequired)
	}
	if s.external == nil {
		return nil, apperror.UpstreamWithStatus(errors.New("external advisor is not configured"), http.StatusBadGateway)
	}

	started := time.Now()
	reply, err := s.external.Ask(ctx, req.Message, normalizeTurns(req.History))
	metrics.AdvisorCall(metrics.ModeExternal, started, err)
	if err != nil {
		s.logger.Warn("AdvisorService", "External advisor failed", map[string]interface{}{"error": err.Error()})
		return nil, apperror.UpstreamWithStatus(err, http.StatusBadGateway)
	}
	return &dto.AdviceResponse{Reply: reply}, nil
}

// normalizeTurns maps stored or legacy sender names to the user/assistant
// convention and drops anything else, client-supplied system prompts included.
func normalizeTurns(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role, err := entity.ParseRole(m.Role)
		if err != nil || m.Content == "" {
			continue
		}
		out = append(out, llm.Message{Role: role.DisplayRole(), Content: m.Content})
	}
	return out
}

// boundedStream releases the deadline and records the call once closed.
type boundedStream struct {
	llm.Stream
	cancel  context.CancelFunc
	started time.Time
}

func (b *boundedStream) Close() error {
	defer b.cancel()
	metrics.AdvisorCall(metrics.ModeStream, b.started, b.Stream.Err())
	return b.Stream.Close()
}
