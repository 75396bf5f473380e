package content

import (
	"context"
	"math"
	"testing"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/store"
)

func TestRecommender_ForUser(t *testing.T) {
	catalog := seedCatalog(t, nil)
	ctx := context.Background()

	// Hand-built similarity graph: seeds s1/s2 both point at c1,
	// s1 alone points at c2.
	mustSave := func(itemID string, neighbors []core.Neighbor) {
		if err := catalog.SaveNeighbors(ctx, itemID, neighbors); err != nil {
			t.Fatal(err)
		}
	}
	mustSave("s1", []core.Neighbor{
		{ItemID: "c1", Weight: 0.8},
		{ItemID: "c2", Weight: 0.6},
	})
	mustSave("s2", []core.Neighbor{
		{ItemID: "c1", Weight: 0.4},
		{ItemID: "seen", Weight: 0.9},
	})

	interactions := store.NewMemoryInteractions()
	interactions.AddAll([]core.InteractionRecord{
		{UserID: "u1", ItemID: "s1", Kind: core.InteractionRating, Value: 4.5},
		{UserID: "u1", ItemID: "s2", Kind: core.InteractionFavorite},
		{UserID: "u1", ItemID: "seen", Kind: core.InteractionView, State: core.ViewFinished},
	})

	r := NewRecommender(catalog, interactions, nil)
	got, err := r.ForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}

	// c1: 0.7*0.8 + 0.3*0.6 = 0.74, hit by two seeds.
	// c2: 0.7*0.6 + 0.3*0.6 = 0.60, hit by one.
	// "seen" is finished and must be excluded.
	if len(got) != 2 {
		t.Fatalf("got %d recs, want 2: %v", len(got), got)
	}
	if got[0].ItemID != "c1" || got[1].ItemID != "c2" {
		t.Errorf("order = [%s, %s], want [c1, c2]", got[0].ItemID, got[1].ItemID)
	}
	if math.Abs(got[0].Score-0.74) > 1e-9 {
		t.Errorf("c1 score = %v, want 0.74", got[0].Score)
	}
	if got[0].SourceCount != 2 || got[1].SourceCount != 1 {
		t.Errorf("source counts = %d, %d, want 2, 1", got[0].SourceCount, got[1].SourceCount)
	}
	if got[0].Fallback || got[1].Fallback {
		t.Error("graph-based recs must not carry the fallback flag")
	}
}

func TestRecommender_ForUser_Fallback(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog(t, []*core.ItemMeta{
		{ID: "top1", Title: "Acclaimed", Genres: []string{"Drama"}, AvgRating: 4.8, RatingCount: 900},
		{ID: "top2", Title: "Beloved", Genres: []string{"Drama"}, AvgRating: 4.5, RatingCount: 800},
		{ID: "meh", Title: "Average", Genres: []string{"Drama"}, AvgRating: 3.0, RatingCount: 700},
	})

	// User has history but nothing positive, and has already rated top1.
	interactions := store.NewMemoryInteractions()
	interactions.Add(core.InteractionRecord{UserID: "u1", ItemID: "top1", Kind: core.InteractionRating, Value: 2.0})

	r := NewRecommender(catalog, interactions, nil)
	got, err := r.ForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "top2" {
		t.Fatalf("fallback recs = %v, want only top2", got)
	}
	if !got[0].Fallback {
		t.Error("fallback rec missing the fallback flag")
	}
	// First fallback slot carries the base pseudo-score.
	if math.Abs(got[0].Score-0.7) > 1e-9 {
		t.Errorf("fallback score = %v, want 0.7", got[0].Score)
	}
}

func TestRecommender_Related(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog(t, testMetas())
	if err := catalog.SaveNeighbors(ctx, "m1", []core.Neighbor{{ItemID: "m2", Weight: 0.9}}); err != nil {
		t.Fatal(err)
	}

	r := NewRecommender(catalog, store.NewMemoryInteractions(), nil)

	got, err := r.Related(ctx, "m1", 5)
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "m2" || got[0].Score != 0.9 {
		t.Errorf("Related() = %v, want m2 at 0.9", got)
	}
}

func TestRecommender_Related_GenreFallback(t *testing.T) {
	ctx := context.Background()
	// No similarity graph at all: fall back to same-genre populars.
	catalog := seedCatalog(t, testMetas())

	r := NewRecommender(catalog, store.NewMemoryInteractions(), nil)
	got, err := r.Related(ctx, "m1", 5)
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "m2" {
		t.Fatalf("Related() fallback = %v, want only same-genre m2", got)
	}
	if !got[0].Fallback {
		t.Error("genre fallback rec missing the fallback flag")
	}
}
