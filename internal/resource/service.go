package resource

import (
	"context"
	"strings"
	"sync"
	"time"
)

type CreateRequest struct {
	Kind  Kind
	Name  string
	Hours WeeklyHours
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)

	// OperatingWindows returns the open windows for a resource on a calendar
	// date, in ascending order. Empty means closed that day.
	OperatingWindows(ctx context.Context, id string, date time.Time) ([]Window, error)

	// Invalidate drops the cached copy of a resource. Administrative processes
	// that edit resources out-of-band call this to force a re-read.
	Invalidate(id string)
}

// service is a read-through cache over the repository. Resources are
// read-mostly reference data; a cached copy stays valid until Invalidate.
type service struct {
	repo Repository

	mu    sync.RWMutex
	cache map[string]*Resource
}

func NewService(repo Repository) Service {
	return &service{
		repo:  repo,
		cache: make(map[string]*Resource),
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if req.Hours == nil {
		req.Hours = WeeklyHours{}
	}
	if err := req.Hours.Validate(); err != nil {
		return nil, err
	}

	res := &Resource{
		Kind:  req.Kind,
		Name:  req.Name,
		Hours: req.Hours,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}

	s.Invalidate(res.ID)
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	s.mu.RLock()
	cached, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[id] = res
	s.mu.Unlock()
	return res, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) OperatingWindows(ctx context.Context, id string, date time.Time) ([]Window, error) {
	res, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.WindowsOn(date), nil
}

func (s *service) Invalidate(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}
