package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedback-backend/internal/ai"
	"feedback-backend/internal/metrics"
	"feedback-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// DefaultSentimentTimeout bounds how long a submission waits on the model
const DefaultSentimentTimeout = 5 * time.Second

// sentimentMaxTokens leaves room for a short sentence around the label
const sentimentMaxTokens = 32

const sentimentInstruction = "You classify hotel guest feedback. " +
	"Reply with exactly one word: positive, negative or neutral. " +
	"The feedback may be in English or Spanish."

var ErrUnparseable = errors.New("unparseable sentiment response")

// SentimentClassifier labels free text. Implementations return Neutral
// alongside any error so callers can always use the label.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
}

// AISentiment classifies text with a generative model
type AISentiment struct {
	gen     ai.Generator
	timeout time.Duration
	logger  echo.Logger
}

func NewAISentiment(gen ai.Generator, timeout time.Duration, logger echo.Logger) *AISentiment {
	if timeout <= 0 {
		timeout = DefaultSentimentTimeout
	}
	return &AISentiment{gen: gen, timeout: timeout, logger: logger}
}

func (s *AISentiment) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return models.SentimentNeutral, nil
	}
	if s.gen == nil {
		return models.SentimentNeutral, ai.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	noThinking := 0
	out, err := s.gen.Generate(ctx, sentimentInstruction, []ai.Turn{{Role: "user", Text: text}}, ai.Options{
		Temperature:     0,
		MaxOutputTokens: sentimentMaxTokens,
		ThinkingBudget:  &noThinking,
	})
	if err != nil {
		metrics.Sentiment.WithLabelValues("error").Inc()
		s.logger.Warnf("Sentiment classification failed, using neutral: %v", err)
		return models.SentimentNeutral, err
	}

	sentiment, ok := ParseSentiment(out)
	if !ok {
		metrics.Sentiment.WithLabelValues("unparseable").Inc()
		s.logger.Warnf("Sentiment response %q not understood, using neutral", out)
		return models.SentimentNeutral, fmt.Errorf("%w: %q", ErrUnparseable, out)
	}

	metrics.Sentiment.WithLabelValues(strings.ToLower(string(sentiment))).Inc()
	return sentiment, nil
}

// ParseSentiment reads a model answer permissively. "negative" wins over
// "positive" when both appear.
func ParseSentiment(out string) (models.Sentiment, bool) {
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "negative"):
		return models.SentimentNegative, true
	case strings.Contains(lower, "positive"):
		return models.SentimentPositive, true
	case strings.Contains(lower, "neutral"):
		return models.SentimentNeutral, true
	default:
		return models.SentimentNeutral, false
	}
}
