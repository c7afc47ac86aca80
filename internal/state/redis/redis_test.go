package redis_state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yashsmehta/auto-apply/internal/state"
	"github.com/yashsmehta/auto-apply/models"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, time.Hour), mr
}

func TestCreateGetRoundtrip(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	run, err := store.Create(context.Background(), "Fellowship")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if !mr.Exists(keyPrefix + run.ID) {
		t.Fatalf("key %s%s missing in redis", keyPrefix, run.ID)
	}
	if ttl := mr.TTL(keyPrefix + run.ID); ttl != time.Hour {
		t.Fatalf("ttl = %v, want %v", ttl, time.Hour)
	}

	got, err := store.Get(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.AppName != "Fellowship" || got.Status != state.StatusPending {
		t.Fatalf("Get() = %q/%q, want Fellowship/pending", got.AppName, got.Status)
	}
}

func TestGetUnknownRun(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, models.ErrRunNotFound) {
		t.Fatalf("Get() error = %v, want ErrRunNotFound", err)
	}
}

func TestUpdatePersistsMutation(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	run, _ := store.Create(context.Background(), "Fellowship")

	ev := models.NewProgressEvent(5, 6, "Generating answers...")
	if _, err := store.Update(context.Background(), run.ID, state.Progress(ev)); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := store.Get(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Status != state.StatusInProgress || got.Step != 5 || got.Message != ev.Message {
		t.Fatalf("run = %+v, want step 5 in_progress", got)
	}
}

func TestRunExpires(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	run, _ := store.Create(context.Background(), "short-lived")

	mr.FastForward(2 * time.Hour)

	if _, err := store.Get(context.Background(), run.ID); !errors.Is(err, models.ErrRunNotFound) {
		t.Fatalf("Get() after expiry error = %v, want ErrRunNotFound", err)
	}
}

func TestListOrdersByStart(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	first, _ := store.Create(context.Background(), "first")
	// Backdate the first run so ordering does not depend on timer resolution.
	if _, err := store.Update(context.Background(), first.ID, func(r *state.Run) {
		r.StartedAt = r.StartedAt.Add(-time.Minute)
	}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	second, _ := store.Create(context.Background(), "second")

	runs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("List() order = [%s %s], want newest first", runs[0].AppName, runs[1].AppName)
	}
}
