package providers

import "sync"

// StateKey is the cache key of a subreddit's rendered tree state.
func StateKey(subreddit string) string {
	return "state:" + subreddit
}

// StateCache holds rendered /api/state bodies per subreddit on top of the
// byte cache. Every invalidation bumps the subreddit's generation and a fill
// carrying an older generation is dropped, so a read that raced a write
// never puts the pre-write body back.
type StateCache struct {
	cache CacheProviderInterface
	mu    sync.Mutex
	gens  map[string]uint64
}

func NewStateCache(cache CacheProviderInterface) *StateCache {
	return &StateCache{cache: cache, gens: make(map[string]uint64)}
}

// Get returns the cached body along with the generation a later Fill must present.
func (s *StateCache) Get(subreddit string) ([]byte, uint64, bool) {
	s.mu.Lock()
	gen := s.gens[subreddit]
	s.mu.Unlock()

	body, ok := s.cache.Get(StateKey(subreddit))
	return body, gen, ok
}

// Fill stores body unless the subreddit was invalidated after gen was read.
func (s *StateCache) Fill(subreddit string, gen uint64, body []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[subreddit] != gen {
		return false
	}
	s.cache.Set(StateKey(subreddit), body)
	return true
}

// Invalidate drops the cached body after the tree changed.
func (s *StateCache) Invalidate(subreddit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[subreddit]++
	s.cache.Del(StateKey(subreddit))
}
