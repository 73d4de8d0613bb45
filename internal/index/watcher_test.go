package index

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
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

func TestWatch_RecompilesOnNewFile(t *testing.T) {
	dir, store := testVault(t)
	db := testDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var results []*models.Result

	go func() {
		_ = Watch(ctx, db, store, dir, quietLogger(), func(res *models.Result) {
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		})
	}()

	// Let the watcher set up before touching the vault.
	time.Sleep(100 * time.Millisecond)

	writeVaultFile(t, dir, "modules/new.md", `---
id: mod-new
title: New Module
---
# Page: Fresh

## Text
content:: Just added.
`)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, res := range results {
			if len(res.Modules) == 1 && res.Modules[0].Slug == "new" {
				return true
			}
		}
		return false
	}, "watcher never delivered the recompiled module")

	// The compiled output landed in the index as well.
	if _, err := db.GetModule("new"); err != nil {
		t.Errorf("GetModule after watch sync: %v", err)
	}
}

func TestWatch_IgnoresNonCompilableFiles(t *testing.T) {
	dir, store := testVault(t)
	db := testDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0

	go func() {
		_ = Watch(ctx, db, store, dir, quietLogger(), func(*models.Result) {
			mu.Lock()
			calls++
			mu.Unlock()
		})
	}()

	time.Sleep(100 * time.Millisecond)
	writeVaultFile(t, dir, "scratch.txt", "not vault content")
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("calls = %d, want 0 for non-compilable file", calls)
	}
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	dir, store := testVault(t)
	db := testDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, db, store, dir, quietLogger(), nil)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
