package framecache_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/youzoom64/RTMP-streamer/pkg/framecache"
)

var quiet = slog.New(slog.DiscardHandler)

func backends(t *testing.T) map[string]func(t *testing.T) framecache.Store {
	return map[string]func(t *testing.T) framecache.Store{
		"memory": func(t *testing.T) framecache.Store {
			s := framecache.NewMemory()
			t.Cleanup(func() { s.Close() })
			return s
		},
		"badger": func(t *testing.T) framecache.Store {
			s, err := framecache.OpenBadger(framecache.BadgerOptions{InMemory: true, Logger: quiet})
			if err != nil {
				t.Fatalf("OpenBadger: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			key := framecache.Key{"fp", "full", "むふ", "普通目"}

			if _, err := s.Get(ctx, key); !errors.Is(err, framecache.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := s.Set(ctx, key, []byte("png")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil || string(got) != "png" {
				t.Fatalf("Get = %q, %v", got, err)
			}
			got[0] = 'X'
			if again, _ := s.Get(ctx, key); string(again) != "png" {
				t.Fatalf("stored value mutated through returned slice: %q", again)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete missing: %v", err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, framecache.ErrNotFound) {
				t.Fatalf("after delete: %v", err)
			}
		})
	}
}

func TestStore_ListPrefixBoundary(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			for _, k := range []framecache.Key{
				{"a", "mouth", "2"},
				{"a", "mouth", "1"},
				{"a", "mouthx", "1"},
				{"b", "mouth", "1"},
			} {
				if err := s.Set(ctx, k, []byte(k.String())); err != nil {
					t.Fatal(err)
				}
			}

			var got []string
			for it, err := range s.List(ctx, framecache.Key{"a", "mouth"}) {
				if err != nil {
					t.Fatal(err)
				}
				got = append(got, it.Key.String())
			}
			want := []string{"a:mouth:1", "a:mouth:2"}
			if !slices.Equal(got, want) {
				t.Errorf("List = %v, want %v", got, want)
			}

			n := 0
			for range s.List(ctx, nil) {
				n++
			}
			if n != 4 {
				t.Errorf("List(nil) = %d items, want 4", n)
			}
		})
	}
}

func TestCache_LoadSave(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := framecache.New(open(t), "fp1")
			if _, err := c.Load(ctx, "full", "むふ", "普通目"); !errors.Is(err, framecache.ErrNotFound) {
				t.Fatalf("Load empty: %v", err)
			}

			e := &framecache.Entry{Width: 4, Height: 3, Layers: []string{"a.png", "b.png"}, PNG: []byte{0x89, 'P', 'N', 'G'}}
			if err := c.Save(ctx, e, "full", "むふ", "普通目"); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := c.Load(ctx, "full", "むふ", "普通目")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Width != 4 || got.Height != 3 || !slices.Equal(got.Layers, e.Layers) || !bytes.Equal(got.PNG, e.PNG) {
				t.Errorf("Load = %+v", got)
			}
			if _, err := c.Load(ctx, "full", "ほあー", "普通目"); !errors.Is(err, framecache.ErrNotFound) {
				t.Errorf("other poses: %v", err)
			}
			if hits, misses := c.Stats(); hits != 1 || misses != 2 {
				t.Errorf("Stats = %d, %d", hits, misses)
			}
		})
	}
}

func TestCache_FingerprintIsolationAndPrune(t *testing.T) {
	ctx := context.Background()
	s := framecache.NewMemory()
	old := framecache.New(s, "old")
	cur := framecache.New(s, "new")

	e := &framecache.Entry{Width: 1, Height: 1, PNG: []byte("x")}
	for _, pose := range []string{"むふ", "ほあー"} {
		if err := old.Save(ctx, e, "mouth", pose); err != nil {
			t.Fatal(err)
		}
	}
	if err := cur.Save(ctx, e, "mouth", "むふ"); err != nil {
		t.Fatal(err)
	}

	if _, err := cur.Load(ctx, "mouth", "ほあー"); !errors.Is(err, framecache.ErrNotFound) {
		t.Fatalf("entry leaked across fingerprints: %v", err)
	}

	n, err := cur.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 || s.Len() != 1 {
		t.Errorf("Prune removed %d, %d left", n, s.Len())
	}
	if _, err := cur.Load(ctx, "mouth", "むふ"); err != nil {
		t.Errorf("current entry pruned: %v", err)
	}
}

func TestCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	s := framecache.NewMemory()
	s.Set(ctx, framecache.Key{"fp", "base"}, []byte{0xc1})
	c := framecache.New(s, "fp")
	_, err := c.Load(ctx, "base")
	if err == nil || errors.Is(err, framecache.ErrNotFound) {
		t.Errorf("Load corrupt = %v", err)
	}
}

func TestOpenBadger_DirRequired(t *testing.T) {
	if _, err := framecache.OpenBadger(framecache.BadgerOptions{}); err == nil {
		t.Error("expected error without Dir")
	}
}

func TestBadger_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := framecache.OpenBadger(framecache.BadgerOptions{Dir: dir, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	c := framecache.New(s, "fp")
	if err := c.Save(ctx, &framecache.Entry{Width: 2, Height: 2, PNG: []byte("p")}, "base"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = framecache.OpenBadger(framecache.BadgerOptions{Dir: dir, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	e, err := framecache.New(s, "fp").Load(ctx, "base")
	if err != nil || e.Width != 2 {
		t.Errorf("Load after reopen = %+v, %v", e, err)
	}
}
