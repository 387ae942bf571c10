package lifecycle_test

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"

	"rescue-coordination/internal/lifecycle"
	"rescue-coordination/internal/model"
	"rescue-coordination/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin      = model.Actor{ID: 1, Role: model.RoleAdmin}
	volunteerA = model.Actor{ID: 5, Role: model.RoleVolunteer}
	volunteerB = model.Actor{ID: 9, Role: model.RoleVolunteer}
	reporter   = model.Actor{ID: 20, Role: model.RoleReporter}
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newEngine(t *testing.T) (*lifecycle.Engine, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return lifecycle.NewEngine(store, quietLogger()), store
}

func submit(t *testing.T, e *lifecycle.Engine) *model.RescueReport {
	t.Helper()
	r, err := e.Submit(context.Background(), model.ReportDraft{Description: "injured dog near the park"}, reporter)
	require.NoError(t, err)
	return r
}

func TestSubmitStartsPending(t *testing.T) {
	e, _ := newEngine(t)
	lat := " 40.71 "
	blank := ""

	r, err := e.Submit(context.Background(), model.ReportDraft{
		Location:    " 5th Ave ",
		Description: "cat stuck in a tree",
		Urgent:      true,
		Latitude:    &lat,
		Longitude:   &blank,
	}, reporter)

	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, model.StatusPending, r.Status)
	assert.Nil(t, r.AssignedVolunteerID)
	assert.Equal(t, reporter.ID, r.ReporterID)
	assert.Equal(t, "5th Ave", r.Location)
	assert.True(t, r.Urgent)
	require.NotNil(t, r.Latitude)
	assert.Equal(t, "40.71", *r.Latitude)
	assert.Nil(t, r.Longitude)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestSubmitValidation(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Submit(context.Background(), model.ReportDraft{Description: "   "}, reporter)
	assert.ErrorIs(t, err, model.ErrInvalidDraft)

	_, err = e.Submit(context.Background(), model.ReportDraft{Description: "dog"}, model.Actor{ID: 1, Role: "guest"})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestSubmitRejectsBadCoordinates(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	str := func(v string) *string { return &v }

	for _, draft := range []model.ReportDraft{
		{Description: "gull", Latitude: str("1e20000000"), Longitude: str("1")},
		{Description: "gull", Latitude: str("95"), Longitude: str("10")},
		{Description: "gull", Latitude: str("40"), Longitude: str("200")},
		{Description: "gull", Latitude: str("40"), Longitude: str("east")},
	} {
		_, err := e.Submit(ctx, draft, reporter)
		assert.ErrorIs(t, err, model.ErrInvalidDraft, "lat=%s lng=%s", *draft.Latitude, *draft.Longitude)
	}

	stored, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestClaimThenOtherVolunteerForbidden(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	r := submit(t, e)

	claimed, err := e.RequestTransition(ctx, r.ID, model.StatusAssigned, volunteerA)
	require.NoError(t, err)
	require.NotNil(t, claimed.AssignedVolunteerID)
	assert.Equal(t, int64(5), *claimed.AssignedVolunteerID)
	assert.Equal(t, model.StatusAssigned, claimed.Status)

	_, err = e.RequestTransition(ctx, r.ID, model.StatusInProgress, volunteerB)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestReporterCannotCancel(t *testing.T) {
	e, _ := newEngine(t)
	r := submit(t, e)

	_, err := e.RequestTransition(context.Background(), r.ID, model.StatusCancelled, reporter)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestFullLifecycle(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	r := submit(t, e)

	for _, target := range []model.Status{model.StatusAssigned, model.StatusInProgress, model.StatusCompleted} {
		_, err := e.RequestTransition(ctx, r.ID, target, volunteerA)
		require.NoError(t, err, target)
	}

	stored, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.NotNil(t, stored.AssignedVolunteerID)
	assert.Equal(t, int64(5), *stored.AssignedVolunteerID)
	assert.Equal(t, r.Description, stored.Description)
	assert.Equal(t, r.CreatedAt, stored.CreatedAt)
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	done := submit(t, e)
	for _, target := range []model.Status{model.StatusAssigned, model.StatusInProgress, model.StatusCompleted} {
		_, err := e.RequestTransition(ctx, done.ID, target, admin)
		require.NoError(t, err)
	}
	cancelled := submit(t, e)
	_, err := e.RequestTransition(ctx, cancelled.ID, model.StatusCancelled, admin)
	require.NoError(t, err)

	for _, id := range []int64{done.ID, cancelled.ID} {
		for _, target := range model.Statuses {
			for _, actor := range []model.Actor{admin, volunteerA, reporter} {
				_, err := e.RequestTransition(ctx, id, target, actor)
				assert.ErrorIs(t, err, model.ErrInvalidTransition, "report %d -> %s by %s", id, target, actor.Role)
			}
		}
	}
}

func TestCancelClearsAssignee(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	r := submit(t, e)

	_, err := e.RequestTransition(ctx, r.ID, model.StatusAssigned, volunteerA)
	require.NoError(t, err)

	res, err := e.Attempt(ctx, r.ID, model.StatusCancelled, admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.After.Status)
	assert.Nil(t, res.After.AssignedVolunteerID)
	require.NotNil(t, res.Before.AssignedVolunteerID)
	assert.Equal(t, int64(5), *res.Before.AssignedVolunteerID)
}

func TestUnknownTargetAndMissingReport(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	r := submit(t, e)

	_, err := e.RequestTransition(ctx, r.ID, model.Status("lost"), admin)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = e.RequestTransition(ctx, r.ID, model.StatusCompleted, admin)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = e.RequestTransition(ctx, 404, model.StatusAssigned, admin)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestInvalidTransitionWinsOverForbidden(t *testing.T) {
	e, _ := newEngine(t)
	r := submit(t, e)

	_, err := e.RequestTransition(context.Background(), r.ID, model.StatusCompleted, reporter)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

// barrierStore makes every reader wait until n reads happened, so concurrent
// callers validate against the same prior status.
type barrierStore struct {
	*repository.MemoryStore
	reads sync.WaitGroup
}

func (b *barrierStore) Get(ctx context.Context, id int64) (*model.RescueReport, error) {
	r, err := b.MemoryStore.Get(ctx, id)
	b.reads.Done()
	b.reads.Wait()
	return r, err
}

func TestConcurrentClaimsYieldOneConflict(t *testing.T) {
	mem := repository.NewMemoryStore()
	r, err := mem.Create(context.Background(), model.ReportDraft{Description: "stray kitten"}, reporter.ID)
	require.NoError(t, err)

	store := &barrierStore{MemoryStore: mem}
	store.reads.Add(2)
	e := lifecycle.NewEngine(store, quietLogger())

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, actor := range []model.Actor{volunteerA, volunteerB} {
		wg.Add(1)
		go func(i int, actor model.Actor) {
			defer wg.Done()
			_, errs[i] = e.RequestTransition(context.Background(), r.ID, model.StatusAssigned, actor)
		}(i, actor)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	stored, err := mem.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, stored.Status)
	require.NotNil(t, stored.AssignedVolunteerID)
}

func TestRandomWalkKeepsInvariants(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	actors := []model.Actor{admin, volunteerA, volunteerB, reporter}
	targets := append([]model.Status{"bogus"}, model.Statuses...)

	for n := 0; n < 50; n++ {
		r := submit(t, e)
		for step := 0; step < 10; step++ {
			target := targets[rng.Intn(len(targets))]
			actor := actors[rng.Intn(len(actors))]
			_, err := e.RequestTransition(ctx, r.ID, target, actor)
			if err != nil {
				assert.True(t,
					errors.Is(err, model.ErrInvalidTransition) || errors.Is(err, model.ErrForbidden),
					"unexpected error %v", err)
			}

			cur, err := store.Get(ctx, r.ID)
			require.NoError(t, err)
			assert.True(t, cur.Status.Valid(), "status %q", cur.Status)
			assert.Equal(t, cur.Status.HasAssignee(), cur.AssignedVolunteerID != nil,
				"status %s assignee %v", cur.Status, cur.AssignedVolunteerID)
		}
	}
}
