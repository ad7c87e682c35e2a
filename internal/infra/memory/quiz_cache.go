package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizshare-service/internal/domain"
)

// QuizSource loads quiz content from a backing store.
type QuizSource interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error)
	FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
}

// QuizCache caches quizzes and access-code lookups with TTL to avoid repeated
// store hits. Quizzes are immutable after creation, so cached content never
// goes stale; the TTL only bounds memory.
type QuizCache struct {
	source QuizSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu      sync.RWMutex
	quizzes map[string]cachedQuiz
	byCode  map[string]cachedCode
}

type cachedQuiz struct {
	quiz      domain.Quiz
	questions []domain.Question
	expiresAt time.Time
}

type cachedCode struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(source QuizSource, ttl time.Duration) *QuizCache {
	return &QuizCache{
		source:  source,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		quizzes: make(map[string]cachedQuiz),
		byCode:  make(map[string]cachedCode),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.quizzes[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("quiz:"+quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.quizzes[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry, nil
		}
		c.mu.RUnlock()

		quiz, questions, err := c.source.GetQuiz(ctx, quizID)
		if err != nil {
			return cachedQuiz{}, err
		}

		entry := cachedQuiz{
			quiz:      quiz,
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Lock()
		c.quizzes[quizID] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	entry := result.(cachedQuiz)
	return entry.quiz, entry.questions, nil
}

func (c *QuizCache) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.byCode[code]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("code:"+code, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.byCode[code]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.source.FindQuizByCode(ctx, code)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		c.byCode[code] = cachedCode{quiz: quiz, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
