package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/starford/onebridge/internal/models"
	"github.com/starford/onebridge/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestDiff(t *testing.T) {
	a := SectionRef{Notebook: "NB", Section: "A"}
	b := SectionRef{Notebook: "NB", Section: "B"}
	c := SectionRef{Notebook: "NB", Section: "C"}
	prev := map[SectionRef]models.File{
		a: {Path: "/a1", ModTime: t0},
		b: {Path: "/b", ModTime: t0},
	}
	next := map[SectionRef]models.File{
		a: {Path: "/a2", ModTime: t0.Add(time.Hour)},
		c: {Path: "/c", ModTime: t0},
	}
	got := Diff(prev, next)
	want := []Change{
		{Kind: ChangeUpdated, SectionRef: a},
		{Kind: ChangeDeleted, SectionRef: b},
		{Kind: ChangeCreated, SectionRef: c},
	}
	if len(got) != len(want) {
		t.Fatalf("Diff = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Diff[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(Diff(next, next)) != 0 {
		t.Error("identical snapshots should not differ")
	}
}

func TestWatch_ReportsNewSnapshot(t *testing.T) {
	root := testutil.BackupRoot(t)
	testutil.WriteSection(t, root, "NB/Log (On 1-1-2026).one", t0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []Change
	go Watch(ctx, NewBuilder(root, testutil.Logger()), 50*time.Millisecond, testutil.Logger(), func(c Change) {
		mu.Lock()
		events = append(events, c)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)
	testutil.WriteSection(t, root, "NB/Log (On 1-2-2026).one", time.Now())
	testutil.WriteSection(t, root, "NB/Ideas.one", time.Now())

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		var updated, created bool
		for _, e := range events {
			if e.Kind == ChangeUpdated && e.Section == "Log" {
				updated = true
			}
			if e.Kind == ChangeCreated && e.Section == "Ideas" {
				created = true
			}
		}
		return updated && created
	}, "watcher did not report updated Log and created Ideas")
}
