package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizshare-service/internal/domain"
)

// QuizSource loads quiz content from the backing store on cache miss.
type QuizSource interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error)
	FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
}

// QuizCache caches quiz content and access-code lookups in Redis:
//
//	SET quiz:{quizID}:content {json}
//	SET quiz:code:{CODE}      {quiz json}
//
// Redis failures degrade to the source; they never fail a read on their own.
type QuizCache struct {
	client *redis.Client
	source QuizSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizCache(client *redis.Client, source QuizSource, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type quizPayload struct {
	Quiz      domain.Quiz       `json:"quiz"`
	Questions []domain.Question `json:"questions"`
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	key := c.contentKey(quizID)

	if payload, ok := c.getPayload(ctx, key); ok {
		return payload.Quiz, payload.Questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if payload, ok := c.getPayload(ctx, key); ok {
			return payload, nil
		}

		quiz, questions, err := c.source.GetQuiz(ctx, quizID)
		if err != nil {
			return quizPayload{}, err
		}
		payload := quizPayload{Quiz: quiz, Questions: questions}
		c.setPayload(ctx, key, payload)
		return payload, nil
	})
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	payload := result.(quizPayload)
	return payload.Quiz, payload.Questions, nil
}

func (c *QuizCache) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	key := c.codeKey(code)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if json.Unmarshal(raw, &quiz) == nil {
			return quiz, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if json.Unmarshal(raw, &quiz) == nil {
				return quiz, nil
			}
		}

		quiz, err := c.source.FindQuizByCode(ctx, code)
		if err != nil {
			return domain.Quiz{}, err
		}
		if raw, err := json.Marshal(quiz); err == nil {
			// best-effort cache fill
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) getPayload(ctx context.Context, key string) (quizPayload, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return quizPayload{}, false
	}
	var payload quizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return quizPayload{}, false
	}
	return payload, true
}

func (c *QuizCache) setPayload(ctx context.Context, key string, payload quizPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func (c *QuizCache) contentKey(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func (c *QuizCache) codeKey(code string) string {
	return "quiz:code:" + code
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
