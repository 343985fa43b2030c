package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/knowitapp/knowit-backend/internal/clients/gemini"
	errs "github.com/knowitapp/knowit-backend/internal/pkg/errors"
	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

// GenerateService produces a question draft from an answer. The draft is
// never persisted here; the client decides whether to save it.
type GenerateService interface {
	QuestionFromAnswer(ctx context.Context, answer, folderName string, includeFolderName bool) (*gemini.GeneratedQuestion, error)
}

type generateService struct {
	log    *logger.Logger
	client gemini.Client
}

func NewGenerateService(log *logger.Logger, client gemini.Client) GenerateService {
	serviceLog := log.With("service", "GenerateService")
	return &generateService{
		log:    serviceLog,
		client: client,
	}
}

func (s *generateService) QuestionFromAnswer(ctx context.Context, answer, folderName string, includeFolderName bool) (*gemini.GeneratedQuestion, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, apierr.BadRequest("answer_required", errs.ErrInvalidArgument)
	}
	if s.client == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "generation_unavailable", errors.New("question generation is not configured"))
	}

	generated, err := s.client.GenerateQuestion(ctx, answer, folderName, includeFolderName)
	if err != nil {
		// The upstream error can carry the raw response body; it stays
		// in the server log and off the wire.
		s.log.Error("Question generation failed", "error", err.Error())
		return nil, apierr.New(http.StatusBadGateway, "ai_bad_response", errors.New("question generation failed upstream"))
	}
	return generated, nil
}
