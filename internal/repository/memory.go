package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"rescue-coordination/internal/model"
)

// MemoryStore keeps reports in process. Every call copies in and out so that
// callers never share state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	reports map[int64]model.RescueReport
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		reports: make(map[int64]model.RescueReport),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, draft model.ReportDraft, reporterID int64) (*model.RescueReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := model.RescueReport{
		ID:          s.nextID,
		Location:    draft.Location,
		Latitude:    copyString(draft.Latitude),
		Longitude:   copyString(draft.Longitude),
		Description: draft.Description,
		Urgent:      draft.Urgent,
		Status:      model.StatusPending,
		ReporterID:  reporterID,
		CreatedAt:   s.now().UTC(),
	}
	s.nextID++
	s.reports[r.ID] = r

	return cloneReport(r), nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.RescueReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneReport(r), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]model.RescueReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.RescueReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, *cloneReport(r))
	}
	// newest first, matching the Postgres ordering
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CompareAndSwapStatus(ctx context.Context, id int64, expected model.Status, update model.StatusUpdate) (*model.RescueReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if r.Status != expected {
		return nil, model.ErrConflict
	}

	r.Status = update.Status
	r.AssignedVolunteerID = copyInt64(update.AssignedVolunteerID)
	s.reports[id] = r

	return cloneReport(r), nil
}

func cloneReport(r model.RescueReport) *model.RescueReport {
	r.Latitude = copyString(r.Latitude)
	r.Longitude = copyString(r.Longitude)
	r.AssignedVolunteerID = copyInt64(r.AssignedVolunteerID)
	return &r
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
