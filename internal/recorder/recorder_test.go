package recorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/position-valuation/internal/models"
)

type fakeStore struct {
	runs []string
	err  error
}

func (f *fakeStore) CreateValuationRun(run *models.ValuationRun) error {
	f.runs = append(f.runs, run.ID)
	return f.err
}

type fakePublisher struct {
	runs []string
	err  error
}

func (f *fakePublisher) PublishRun(_ context.Context, run *models.ValuationRun) error {
	f.runs = append(f.runs, run.ID)
	return f.err
}

func TestRecorder_HandleRun(t *testing.T) {
	run := &models.ValuationRun{ID: "run-1"}

	t.Run("stores then publishes", func(t *testing.T) {
		store, pub := &fakeStore{}, &fakePublisher{}
		r := New(store, pub)

		require.NoError(t, r.HandleRun(context.Background(), run))
		assert.Equal(t, []string{"run-1"}, store.runs)
		assert.Equal(t, []string{"run-1"}, pub.runs)
		assert.True(t, r.HasStore())
	})

	t.Run("storage failure stops publishing", func(t *testing.T) {
		store, pub := &fakeStore{err: errors.New("db down")}, &fakePublisher{}
		r := New(store, pub)

		err := r.HandleRun(context.Background(), run)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		assert.Empty(t, pub.runs)
	})

	t.Run("publish failure is not returned", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		r := New(nil, pub)

		require.NoError(t, r.HandleRun(context.Background(), run))
		assert.Equal(t, []string{"run-1"}, pub.runs)
		assert.False(t, r.HasStore())
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		var r *Recorder
		assert.NoError(t, r.HandleRun(context.Background(), run))
		assert.False(t, r.HasStore())
	})
}
