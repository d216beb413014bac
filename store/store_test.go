package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pumpnet/calculator"
	"pumpnet/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func analyzedRun(t *testing.T) *Run {
	t.Helper()
	net := model.DefaultNetwork()
	p := model.DefaultParams()
	a, err := calculator.Analyze(net, p, calculator.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return &Run{Network: net, Params: p, Analysis: a}
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := analyzedRun(t)
	if err := s.Save(ctx, run); err != nil {
		t.Fatal(err)
	}
	if run.ID == "" || run.CreatedAt.IsZero() {
		t.Fatalf("save did not assign id and time: %+v", run)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt.UnixNano() != run.CreatedAt.UnixNano() {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
	if !reflect.DeepEqual(got.Network, run.Network) {
		t.Errorf("network differs:\n%+v\n%+v", got.Network, run.Network)
	}
	if got.Params != run.Params {
		t.Errorf("params = %+v, want %+v", got.Params, run.Params)
	}
	if !reflect.DeepEqual(got.Analysis, run.Analysis) {
		t.Errorf("analysis differs:\n%+v\n%+v", got.Analysis, run.Analysis)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := analyzedRun(t)
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := s.Save(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs", len(all))
	}
	if !all[0].CreatedAt.After(all[1].CreatedAt) || !all[1].CreatedAt.After(all[2].CreatedAt) {
		t.Errorf("runs not ordered newest first")
	}

	two, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 || two[0].ID != all[0].ID {
		t.Errorf("limited list = %d runs", len(two))
	}
}
