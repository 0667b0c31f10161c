package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"feedback-backend/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const sentimentCachePrefix = "sentiment:"

// CachedClassifier remembers successful classifications in Redis so repeated
// comments do not hit the model twice
type CachedClassifier struct {
	next   SentimentClassifier
	redis  *redis.Client
	ttl    time.Duration
	logger echo.Logger
}

func NewCachedClassifier(next SentimentClassifier, client *redis.Client, ttl time.Duration, logger echo.Logger) *CachedClassifier {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClassifier{next: next, redis: client, ttl: ttl, logger: logger}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return sentimentCachePrefix + hex.EncodeToString(sum[:])
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if c.redis == nil {
		return c.next.Classify(ctx, text)
	}

	key := cacheKey(text)
	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		switch s := models.Sentiment(cached); s {
		case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
			return s, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warnf("Sentiment cache read failed: %v", err)
	}

	sentiment, err := c.next.Classify(ctx, text)
	if err != nil {
		return sentiment, err
	}

	if err := c.redis.Set(ctx, key, string(sentiment), c.ttl).Err(); err != nil {
		c.logger.Warnf("Sentiment cache write failed: %v", err)
	}
	return sentiment, nil
}
