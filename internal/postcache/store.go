// Package postcache holds the in-memory view of all posts that every read goes through.
// A snapshot is only ever replaced as a whole, by the feed that listens for changes.
package postcache

import (
	"sort"
	"sync"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/google/uuid"
)

const LoadErrorMessage = "Failed to load posts. Please check your internet connection."

type Snapshot struct {
	Posts   []model.Post `json:"posts"`
	Error   string       `json:"error,omitempty"`
	Loading bool         `json:"loading"`
}

type Listener func(Snapshot)

type Store struct {
	mu        sync.RWMutex
	posts     []model.Post
	byID      map[uuid.UUID]int
	err       error
	loading   bool
	listeners map[int]Listener
	nextID    int
}

func New() *Store {
	return &Store{
		byID:      make(map[uuid.UUID]int),
		loading:   true,
		listeners: make(map[int]Listener),
	}
}

// Replace swaps in a full snapshot. The sticky error is left alone; only Reset clears it.
func (s *Store) Replace(posts []model.Post) {
	sorted := make([]model.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	byID := make(map[uuid.UUID]int, len(sorted))
	for i, post := range sorted {
		byID[post.ID] = i
	}

	s.mu.Lock()
	s.posts = sorted
	s.byID = byID
	s.loading = false
	s.mu.Unlock()

	s.notify()
}

func (s *Store) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.loading = false
	s.mu.Unlock()

	s.notify()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.err = nil
	s.loading = true
	s.mu.Unlock()
}

func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(s.posts)
}

func (s *Store) snapshotLocked(posts []model.Post) Snapshot {
	snap := Snapshot{
		Posts:   clonePosts(posts),
		Loading: s.loading,
	}
	if s.err != nil {
		snap.Error = LoadErrorMessage
	}
	return snap
}

func (s *Store) Get(id uuid.UUID) (model.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Post{}, false
	}
	return clonePost(s.posts[i]), true
}

func (s *Store) All() []model.Post {
	return s.filter(func(model.Post) bool { return true })
}

// Published returns published posts, narrowed to category when one is given.
func (s *Store) Published(category *model.PostCategory) []model.Post {
	return s.filter(func(p model.Post) bool {
		if p.Status != model.PostStatusPublished {
			return false
		}
		return category == nil || p.Category == *category
	})
}

func (s *Store) Recommended() []model.Post {
	return s.filter(func(p model.Post) bool {
		return p.Status == model.PostStatusPublished && p.IsRecommended
	})
}

func (s *Store) Stats() model.PostStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.PostStats{Total: len(s.posts)}
	for _, p := range s.posts {
		switch p.Status {
		case model.PostStatusPublished:
			stats.Published++
		case model.PostStatusDraft:
			stats.Drafts++
		}
		switch p.Category {
		case model.PostCategoryBlog:
			stats.Blog++
		case model.PostCategoryPoetry:
			stats.Poetry++
		}
	}
	return stats
}

// Subscribe registers fn for every future snapshot and returns its unsubscribe func.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	snap := s.snapshotLocked(s.posts)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) filter(keep func(model.Post) bool) []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Post{}
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func clonePosts(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[i] = clonePost(p)
	}
	return out
}

func clonePost(p model.Post) model.Post {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}
