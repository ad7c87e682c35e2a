package app

import (
	"sync"

	"quizshare-service/internal/domain"
)

// ResultFeed fans completed-attempt results out to per-quiz subscribers, so a
// quiz author can watch submissions land as they happen.
type ResultFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.QuizResult]struct{}
}

func NewResultFeed() *ResultFeed {
	return &ResultFeed{
		subs: make(map[string]map[chan domain.QuizResult]struct{}),
	}
}

// Subscribe registers for results of one quiz. The caller must invoke the
// returned cancel function to avoid leaks.
func (f *ResultFeed) Subscribe(quizID string) (<-chan domain.QuizResult, func()) {
	ch := make(chan domain.QuizResult, 8)

	f.mu.Lock()
	if f.subs[quizID] == nil {
		f.subs[quizID] = make(map[chan domain.QuizResult]struct{})
	}
	f.subs[quizID][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[quizID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, quizID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a result to every subscriber of its quiz. A slow subscriber
// loses its oldest pending update rather than blocking the publisher.
func (f *ResultFeed) Publish(result domain.QuizResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[result.QuizID] {
		select {
		case ch <- result:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
}
