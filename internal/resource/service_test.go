package resource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory Repository that counts reads so the cache behavior
// of the service can be observed.
type fakeRepo struct {
	mu       sync.Mutex
	items    map[string]Resource
	getCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]Resource)}
}

func (r *fakeRepo) Create(_ context.Context, res *Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res.ID = uuid.NewString()
	res.CreatedAt = time.Now().UTC()
	r.items[res.ID] = *res
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getCalls++
	res, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (r *fakeRepo) List(_ context.Context, _ Filter) ([]*Resource, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Resource, 0, len(r.items))
	for id := range r.items {
		res := r.items[id]
		out = append(out, &res)
	}
	return out, len(out), nil
}

func (r *fakeRepo) rename(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.items[id]
	res.Name = name
	r.items[id] = res
}

func TestServiceCreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{
			name:    "unknown kind",
			req:     CreateRequest{Kind: "nurse", Name: "x"},
			wantErr: ErrInvalidKind,
		},
		{
			name:    "blank name",
			req:     CreateRequest{Kind: KindRoom, Name: "   "},
			wantErr: ErrEmptyName,
		},
		{
			name: "invalid hours range",
			req: CreateRequest{
				Kind: KindRoom,
				Name: "OR 1",
				Hours: WeeklyHours{
					time.Monday: {{Open: 600, Close: 500}},
				},
			},
			wantErr: ErrInvalidHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := NewService(repo)

			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.items)
		})
	}
}

func TestServiceCreateDefaultsHours(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	res, err := svc.Create(ctx, CreateRequest{Kind: KindSurgeon, Name: "Dr. Reyes"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.NotNil(t, res.Hours)
	assert.Empty(t, res.WindowsOn(time.Now()))
}

func TestServiceCachesReads(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)

	res, err := svc.Create(ctx, CreateRequest{Kind: KindRoom, Name: "OR 1"})
	require.NoError(t, err)

	first, err := svc.GetByID(ctx, res.ID)
	require.NoError(t, err)
	second, err := svc.GetByID(ctx, res.ID)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, repo.getCalls, "second read must be served from cache")
}

func TestServiceInvalidateForcesReread(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)

	res, err := svc.Create(ctx, CreateRequest{Kind: KindRoom, Name: "OR 1"})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, res.ID)
	require.NoError(t, err)

	// An out-of-band edit is invisible until the entry is invalidated.
	repo.rename(res.ID, "OR 1 (renovated)")

	stale, err := svc.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "OR 1", stale.Name)

	svc.Invalidate(res.ID)

	fresh, err := svc.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "OR 1 (renovated)", fresh.Name)
}

func TestServiceGetByIDNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOperatingWindows(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	res, err := svc.Create(ctx, CreateRequest{
		Kind: KindRoom,
		Name: "OR 1",
		Hours: WeeklyHours{
			time.Monday: {{Open: 8 * 60, Close: 17 * 60}},
		},
	})
	require.NoError(t, err)

	monday := time.Date(2031, 3, 10, 0, 0, 0, 0, time.UTC)

	windows, err := svc.OperatingWindows(ctx, res.ID, monday)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, monday.Add(8*time.Hour), windows[0].Start)
	assert.Equal(t, monday.Add(17*time.Hour), windows[0].End)

	closed, err := svc.OperatingWindows(ctx, res.ID, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, closed)
}
