package service

import (
	"context"
	"sync"
	"time"

	"golink-redirect/internal/geo"
	"golink-redirect/internal/model"
	"golink-redirect/internal/repository"
)

// memoryStore 线程安全的内存 LinkStore
type memoryStore struct {
	mu     sync.Mutex
	links  map[string]*model.Link
	clicks []model.Click
	gets   int
	delay  time.Duration
	getErr error
	addErr error
}

func newMemoryStore(links ...model.Link) *memoryStore {
	s := &memoryStore{links: map[string]*model.Link{}}
	for i := range links {
		link := links[i]
		s.links[link.Slug] = &link
	}
	return s
}

func (s *memoryStore) GetLink(ctx context.Context, slug string) (*model.Link, error) {
	s.mu.Lock()
	s.gets++
	delay, getErr := s.delay, s.getErr
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if getErr != nil {
		return nil, getErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[slug]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *memoryStore) IncrementClick(_ context.Context, slug string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[slug]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.ClickCount++
	link.LastClickedAt = &at
	return nil
}

func (s *memoryStore) AddClick(_ context.Context, click *model.Click) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return "", s.addErr
	}
	if click.ID == "" {
		click.ID = "click-" + time.Now().Format("150405.000000000")
	}
	s.clicks = append(s.clicks, *click)
	return click.ID, nil
}

func (s *memoryStore) lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *memoryStore) recorded() []model.Click {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Click(nil), s.clicks...)
}

type staticResolver struct {
	intel geo.Intelligence
}

func (r staticResolver) Resolve(context.Context, string) geo.Intelligence {
	return r.intel
}

func strPtr(s string) *string { return &s }
