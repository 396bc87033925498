package purge

import (
	"context"
	"errors"
	"testing"
	"time"

	"registripe/internal/registration"
	"registripe/pkg/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*registration.Store)(nil)

// memStore keeps registrations in a map and applies the same cutoff rules as
// the SQL statements in the registration store.
type memStore struct {
	regs map[string]*models.Registration

	deleteErr error
	cancelErr error
	cancelled int
}

func newMemStore() *memStore {
	return &memStore{regs: map[string]*models.Registration{}}
}

func (m *memStore) add(id string, status models.RegistrationStatus, created time.Time) {
	m.regs[id] = &models.Registration{ID: id, Status: status, Created: created}
}

func (m *memStore) setCreated(id string, created time.Time) {
	m.regs[id].Created = created
}

func (m *memStore) count(status models.RegistrationStatus) int {
	n := 0
	for _, r := range m.regs {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (m *memStore) DeleteStale(_ context.Context, status models.RegistrationStatus, before time.Time) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for id, r := range m.regs {
		if r.Status == status && !r.Created.After(before) {
			delete(m.regs, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) CancelStale(_ context.Context, before time.Time) (int64, error) {
	m.cancelled++
	if m.cancelErr != nil {
		return 0, m.cancelErr
	}
	var n int64
	for _, r := range m.regs {
		if r.Status == models.StatusUnconfirmed && !r.Created.After(before) {
			r.Status = models.StatusCancelled
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountStale(_ context.Context, status models.RegistrationStatus, before time.Time) (int64, error) {
	var n int64
	for _, r := range m.regs {
		if r.Status == status && !r.Created.After(before) {
			n++
		}
	}
	return n, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTask(store Store) (*Task, *clock) {
	c := &clock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	task := NewTask(store, Config{})
	task.Now = c.Now
	return task, c
}

const day = 24 * time.Hour

func TestNewTask_Defaults(t *testing.T) {
	task := NewTask(newMemStore(), Config{UnsubmittedTTL: -1})

	assert.Equal(t, DefaultUnsubmittedTTL, task.UnsubmittedTTL)
	assert.Equal(t, DefaultUnconfirmedTTL, task.UnconfirmedTTL)
	assert.Greater(t, DefaultUnsubmittedTTL, 15*time.Minute)
	assert.LessOrEqual(t, DefaultUnsubmittedTTL, 20*time.Minute)
	assert.Greater(t, DefaultUnconfirmedTTL, 5*time.Hour)
	assert.LessOrEqual(t, DefaultUnconfirmedTTL, 8*time.Hour)
}

func TestNewTask_TTLBounds(t *testing.T) {
	tests := []struct {
		name            string
		cfg             Config
		wantUnsubmitted time.Duration
		wantUnconfirmed time.Duration
	}{
		{"in range", Config{UnsubmittedTTL: 17 * time.Minute, UnconfirmedTTL: 7 * time.Hour}, 17 * time.Minute, 7 * time.Hour},
		{"upper bounds", Config{UnsubmittedTTL: 20 * time.Minute, UnconfirmedTTL: 8 * time.Hour}, 20 * time.Minute, 8 * time.Hour},
		{"too short", Config{UnsubmittedTTL: time.Minute, UnconfirmedTTL: time.Hour}, DefaultUnsubmittedTTL, DefaultUnconfirmedTTL},
		{"lower bounds excluded", Config{UnsubmittedTTL: 15 * time.Minute, UnconfirmedTTL: 5 * time.Hour}, DefaultUnsubmittedTTL, DefaultUnconfirmedTTL},
		{"too long", Config{UnsubmittedTTL: 21 * time.Minute, UnconfirmedTTL: 9 * time.Hour}, DefaultUnsubmittedTTL, DefaultUnconfirmedTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewTask(newMemStore(), tt.cfg)
			assert.Equal(t, tt.wantUnsubmitted, task.UnsubmittedTTL)
			assert.Equal(t, tt.wantUnconfirmed, task.UnconfirmedTTL)
		})
	}
}

func TestRun_ShortTTLKeepsFreshUnsubmitted(t *testing.T) {
	store := newMemStore()
	c := &clock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	task := NewTask(store, Config{UnsubmittedTTL: time.Minute})
	task.Now = c.Now
	store.add("reg", models.StatusUnsubmitted, c.now.Add(-10*time.Minute))

	_, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.count(models.StatusUnsubmitted), "10 minutes is inside the grace period")
}

func TestRun_DeletesUnsubmittedRegistrations(t *testing.T) {
	store := newMemStore()
	task, c := newTestTask(store)
	ctx := context.Background()

	store.add("unsubmitted_1", models.StatusUnsubmitted, c.now)
	store.add("unsubmitted_2", models.StatusUnsubmitted, c.now)
	store.add("valid_1", models.StatusValid, c.now.Add(-1000*day))
	require.Equal(t, 2, store.count(models.StatusUnsubmitted), "two unsubmitted records seeded")

	_, err := task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.count(models.StatusUnsubmitted), "no change")

	store.setCreated("unsubmitted_1", c.now.Add(-15*time.Minute))
	c.advance(time.Second)
	_, err = task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.count(models.StatusUnsubmitted), "15 minutes is inside the grace period")

	store.setCreated("unsubmitted_1", c.now.Add(-20*time.Minute))
	c.advance(time.Second)
	res, err := task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)
	assert.Equal(t, 1, store.count(models.StatusUnsubmitted))

	store.setCreated("unsubmitted_2", c.now.Add(-1000*day))
	c.advance(time.Second)
	_, err = task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, store.count(models.StatusUnsubmitted))

	assert.Equal(t, 1, store.count(models.StatusValid), "valid registration survives")
}

func TestRun_CancelsUnconfirmedRegistrations(t *testing.T) {
	store := newMemStore()
	task, c := newTestTask(store)
	ctx := context.Background()

	store.add("unconfirmed_1", models.StatusUnconfirmed, c.now)
	store.add("unconfirmed_2", models.StatusUnconfirmed, c.now)
	store.add("valid_1", models.StatusValid, c.now.Add(-1000*day))

	_, err := task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, store.count(models.StatusCancelled), "nothing cancelled by default")

	created := store.regs["unconfirmed_1"].Created.Add(-5 * time.Hour)
	store.setCreated("unconfirmed_1", created)
	_, err = task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, store.count(models.StatusCancelled), "5 hours is inside the grace period")

	created = created.Add(-3 * time.Hour)
	store.setCreated("unconfirmed_1", created)
	res, err := task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Cancelled)
	assert.Equal(t, 1, store.count(models.StatusCancelled))

	store.setCreated("unconfirmed_2", c.now.Add(-1000*day))
	_, err = task.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.count(models.StatusCancelled))

	assert.Equal(t, 1, store.count(models.StatusValid), "valid registration survives")
	assert.Len(t, store.regs, 3, "cancelled registrations are kept")
}

func TestRun_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		status models.RegistrationStatus
		age    time.Duration
		want   models.RegistrationStatus
		gone   bool
	}{
		{"fresh unsubmitted", models.StatusUnsubmitted, 0, models.StatusUnsubmitted, false},
		{"unsubmitted under 15m", models.StatusUnsubmitted, 14*time.Minute + 59*time.Second, models.StatusUnsubmitted, false},
		{"unsubmitted just under ttl", models.StatusUnsubmitted, 19*time.Minute + 59*time.Second, models.StatusUnsubmitted, false},
		{"unsubmitted at 20m", models.StatusUnsubmitted, 20 * time.Minute, "", true},
		{"unsubmitted ancient", models.StatusUnsubmitted, 1000 * day, "", true},
		{"unconfirmed at 5h", models.StatusUnconfirmed, 5 * time.Hour, models.StatusUnconfirmed, false},
		{"unconfirmed at 6h", models.StatusUnconfirmed, 6 * time.Hour, models.StatusCancelled, false},
		{"unconfirmed at 8h", models.StatusUnconfirmed, 8 * time.Hour, models.StatusCancelled, false},
		{"unconfirmed at 20m is not deleted", models.StatusUnconfirmed, 20 * time.Minute, models.StatusUnconfirmed, false},
		{"valid ancient", models.StatusValid, 1000 * day, models.StatusValid, false},
		{"cancelled ancient", models.StatusCancelled, 1000 * day, models.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			task, c := newTestTask(store)
			store.add("reg", tt.status, c.now.Add(-tt.age))

			_, err := task.Run(context.Background())
			require.NoError(t, err)

			reg, ok := store.regs["reg"]
			if tt.gone {
				assert.False(t, ok, "expected registration to be deleted")
				return
			}
			require.True(t, ok, "expected registration to be kept")
			assert.Equal(t, tt.want, reg.Status)
		})
	}
}

func TestRun_Idempotent(t *testing.T) {
	store := newMemStore()
	task, c := newTestTask(store)

	store.add("a", models.StatusUnsubmitted, c.now.Add(-time.Hour))
	store.add("b", models.StatusUnconfirmed, c.now.Add(-12*time.Hour))

	first, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Deleted)
	assert.Equal(t, int64(1), first.Cancelled)

	second, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Deleted)
	assert.Zero(t, second.Cancelled)
	assert.Len(t, store.regs, 1)
}

func TestRun_DeleteErrorStopsRun(t *testing.T) {
	store := newMemStore()
	store.deleteErr = errors.New("connection refused")
	task, _ := newTestTask(store)

	before := testutil.ToFloat64(runsTotal.WithLabelValues("error"))

	_, err := task.Run(context.Background())
	require.Error(t, err)
	assert.Same(t, store.deleteErr, err, "store error is returned unmodified")
	assert.Zero(t, store.cancelled, "cancel sweep must not run after a failed delete sweep")
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("error")))
}

func TestRun_CancelErrorPropagates(t *testing.T) {
	store := newMemStore()
	store.cancelErr = errors.New("deadlock detected")
	task, c := newTestTask(store)
	store.add("a", models.StatusUnsubmitted, c.now.Add(-time.Hour))

	deleted := testutil.ToFloat64(registrationsPurged.WithLabelValues("deleted"))

	res, err := task.Run(context.Background())
	assert.Same(t, store.cancelErr, err)
	assert.Equal(t, int64(1), res.Deleted, "first sweep result is still reported")
	assert.Empty(t, store.regs)
	assert.Equal(t, deleted+1, testutil.ToFloat64(registrationsPurged.WithLabelValues("deleted")),
		"rows deleted before the failed cancel sweep are counted")
}

func TestRun_RecordsMetrics(t *testing.T) {
	store := newMemStore()
	task, c := newTestTask(store)
	store.add("a", models.StatusUnsubmitted, c.now.Add(-time.Hour))
	store.add("b", models.StatusUnconfirmed, c.now.Add(-7*time.Hour))
	store.add("c", models.StatusUnconfirmed, c.now.Add(-7*time.Hour))

	runs := testutil.ToFloat64(runsTotal.WithLabelValues("success"))
	deleted := testutil.ToFloat64(registrationsPurged.WithLabelValues("deleted"))
	cancelled := testutil.ToFloat64(registrationsPurged.WithLabelValues("cancelled"))

	_, err := task.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, runs+1, testutil.ToFloat64(runsTotal.WithLabelValues("success")))
	assert.Equal(t, deleted+1, testutil.ToFloat64(registrationsPurged.WithLabelValues("deleted")))
	assert.Equal(t, cancelled+2, testutil.ToFloat64(registrationsPurged.WithLabelValues("cancelled")))
}

func TestPreview_DoesNotModify(t *testing.T) {
	store := newMemStore()
	task, c := newTestTask(store)
	store.add("a", models.StatusUnsubmitted, c.now.Add(-time.Hour))
	store.add("b", models.StatusUnsubmitted, c.now)
	store.add("c", models.StatusUnconfirmed, c.now.Add(-7*time.Hour))
	store.add("d", models.StatusValid, c.now.Add(-1000*day))

	res, err := task.Preview(context.Background())
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, int64(1), res.Deleted)
	assert.Equal(t, int64(1), res.Cancelled)
	assert.Len(t, store.regs, 4)
	assert.Equal(t, 1, store.count(models.StatusUnconfirmed))
}
