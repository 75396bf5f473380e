package content

import (
	"context"
	"testing"
	"time"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/store"
)

func seedCatalog(t *testing.T, metas []*core.ItemMeta) *store.CatalogAdapter {
	t.Helper()
	catalog := store.NewCatalogAdapter(store.NewMemoryStore())
	for _, m := range metas {
		if err := catalog.PutItem(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}
	return catalog
}

func TestEngine_BuildAll(t *testing.T) {
	catalog := seedCatalog(t, testMetas())
	e := NewEngine(catalog, nil)

	n, err := e.BuildAll(context.Background())
	if err != nil {
		t.Fatalf("BuildAll() error = %v", err)
	}
	if n != 3 {
		t.Errorf("BuildAll() processed %d items, want 3", n)
	}

	neighbors, err := catalog.Neighbors(context.Background(), "m1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) == 0 {
		t.Fatal("m1 has no neighbors after full build")
	}
	if neighbors[0].ItemID != "m2" {
		t.Errorf("closest neighbor of m1 = %s, want m2", neighbors[0].ItemID)
	}
	for i, nb := range neighbors {
		if nb.ItemID == "m1" {
			t.Error("item listed as its own neighbor")
		}
		if nb.Weight < e.MinSimilarity {
			t.Errorf("neighbor %s below similarity threshold: %v", nb.ItemID, nb.Weight)
		}
		if i > 0 && nb.Weight > neighbors[i-1].Weight {
			t.Error("neighbors not sorted by weight descending")
		}
	}
}

func TestEngine_BuildAll_TooFewItems(t *testing.T) {
	catalog := seedCatalog(t, testMetas()[:1])
	n, err := NewEngine(catalog, nil).BuildAll(context.Background())
	if err != nil || n != 0 {
		t.Errorf("BuildAll() = %d, %v, want 0 items and no error", n, err)
	}
}

func TestEngine_BuildItemAsync(t *testing.T) {
	catalog := seedCatalog(t, testMetas())
	e := NewEngine(catalog, nil)

	// Full build first, then simulate a new arrival.
	if _, err := e.BuildAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	newItem := &core.ItemMeta{
		ID: "m4", Title: "Lost City Origins", Genres: []string{"Action", "Adventure"},
		ReleaseYear: 2024, AvgRating: 3.9, RatingCount: 100,
	}
	if err := catalog.PutItem(context.Background(), newItem); err != nil {
		t.Fatal(err)
	}

	e.BuildItemAsync("m4")

	deadline := time.After(5 * time.Second)
	for {
		p, ok := e.Progress("m4")
		if ok && p.Status == BuildCompleted {
			break
		}
		if ok && p.Status == BuildError {
			t.Fatalf("build failed: %s", p.Message)
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for async build")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Forward edges written for the new item.
	neighbors, err := catalog.Neighbors(context.Background(), "m4", 0)
	if err != nil || len(neighbors) == 0 {
		t.Fatalf("new item has no neighbors: %v, %v", neighbors, err)
	}

	// Reverse edge: the closest existing item now points back at m4.
	back, err := catalog.Neighbors(context.Background(), neighbors[0].ItemID, 0)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, nb := range back {
		if nb.ItemID == "m4" {
			found = true
		}
	}
	if !found {
		t.Errorf("reverse edge to m4 missing from %s's neighbors", neighbors[0].ItemID)
	}
}

func TestEngine_BuildItem_GenreRestrictedPool(t *testing.T) {
	// x1 is an off-genre twin of the new arrival: same title, year and
	// popularity, so its weighted similarity clears the graph threshold.
	// The incremental build must still skip it — only items sharing a
	// genre are compared.
	catalog := seedCatalog(t, []*core.ItemMeta{
		{ID: "d1", Title: "Quiet Harbor", Genres: []string{"Drama"}, ReleaseYear: 2018, AvgRating: 4.0, RatingCount: 300},
		{ID: "x1", Title: "Quiet Harbor", Genres: []string{"Sci-Fi"}, ReleaseYear: 2018, AvgRating: 4.0, RatingCount: 300},
		{ID: "d2", Title: "Quiet Harbor II", Genres: []string{"Drama"}, ReleaseYear: 2019, AvgRating: 4.1, RatingCount: 250},
	})
	e := NewEngine(catalog, nil)

	if err := e.buildItem(context.Background(), "d2"); err != nil {
		t.Fatalf("buildItem() error = %v", err)
	}

	neighbors, err := catalog.Neighbors(context.Background(), "d2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 1 || neighbors[0].ItemID != "d1" {
		t.Fatalf("neighbors of d2 = %v, want only the same-genre d1", neighbors)
	}
}

func TestEngine_BuildItem_NoGenresFallsBackToPopular(t *testing.T) {
	catalog := seedCatalog(t, []*core.ItemMeta{
		{ID: "g1", Title: "Midnight Run", ReleaseYear: 2020, AvgRating: 3.8, RatingCount: 50},
		{ID: "p1", Title: "Midnight Run Again", Genres: []string{"Action"}, ReleaseYear: 2021, AvgRating: 4.0, RatingCount: 900},
		{ID: "p2", Title: "Harbor Days", Genres: []string{"Drama"}, ReleaseYear: 2015, AvgRating: 4.2, RatingCount: 800},
	})
	e := NewEngine(catalog, nil)

	if err := e.buildItem(context.Background(), "g1"); err != nil {
		t.Fatalf("buildItem() error = %v", err)
	}

	neighbors, err := catalog.Neighbors(context.Background(), "g1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) == 0 {
		t.Fatal("genre-less item got no neighbors from the popular pool")
	}
	found := false
	for _, nb := range neighbors {
		if nb.ItemID == "p1" {
			found = true
		}
	}
	if !found {
		t.Errorf("neighbors of g1 = %v, want the near-title p1 included", neighbors)
	}
}

func TestEngine_BuildItemAsync_UnknownItem(t *testing.T) {
	catalog := seedCatalog(t, testMetas())
	e := NewEngine(catalog, nil)

	e.BuildItemAsync("ghost")

	deadline := time.After(5 * time.Second)
	for {
		p, ok := e.Progress("ghost")
		if ok && p.Status == BuildError {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for build error")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestEngine_Progress_Unknown(t *testing.T) {
	e := NewEngine(seedCatalog(t, nil), nil)
	if _, ok := e.Progress("never-built"); ok {
		t.Error("Progress() for unknown item should report not found")
	}
}
