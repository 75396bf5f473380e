package coldstart

import (
	"context"
	"math/rand"
	"testing"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/store"
)

func blendFixture(t *testing.T) (*BlendNode, *store.MemoryInteractions, *store.MemoryProfiles) {
	t.Helper()
	catalog := store.NewCatalogAdapter(store.NewMemoryStore())
	metas := []*core.ItemMeta{
		{ID: "pop1", Title: "Blockbuster", Genres: []string{"Action"}, AvgRating: 4.2, RatingCount: 900},
		{ID: "pop2", Title: "Crowd Pleaser", Genres: []string{"Comedy"}, AvgRating: 4.0, RatingCount: 800},
		{ID: "pop3", Title: "Sleeper Hit", Genres: []string{"Sci-Fi"}, AvgRating: 4.4, RatingCount: 700},
		{ID: "pop4", Title: "Cult Classic", Genres: []string{"Sci-Fi"}, AvgRating: 4.6, RatingCount: 600},
	}
	for _, m := range metas {
		if err := catalog.PutItem(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}

	interactions := store.NewMemoryInteractions()
	profiles := store.NewMemoryProfiles()
	n := NewBlendNode(interactions, NewCandidateSource(profiles, catalog, nil), nil)
	n.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(1)) }
	return n, interactions, profiles
}

func TestBlendNode_ColdUserGetsColdStartItems(t *testing.T) {
	n, _, profiles := blendFixture(t)
	profiles.SetGenrePreferences("newbie", []string{"Sci-Fi", "Action"})
	rctx := &core.RecommendContext{UserID: "newbie", Limit: 3}

	out, err := n.Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d items, want 3", len(out))
	}
	for _, it := range out {
		lbl, ok := it.GetLabel("cold_start")
		if !ok || lbl.Value != "true" {
			t.Errorf("item %s missing cold_start label", it.ID)
		}
	}

	w, ok := rctx.GetLabel("cold_start_weight")
	if !ok || w.Value != "1.00" {
		t.Errorf("cold_start_weight = %+v, want 1.00", w)
	}
}

func TestBlendNode_GenrePreferencesShapeCandidates(t *testing.T) {
	n, _, profiles := blendFixture(t)
	profiles.SetGenrePreferences("newbie", []string{"Sci-Fi"})
	rctx := &core.RecommendContext{UserID: "newbie", Limit: 2}

	out, err := n.Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}
	for _, it := range out {
		if it.ID != "pop3" && it.ID != "pop4" {
			t.Errorf("item %s outside preferred genre pool", it.ID)
		}
	}
}

func TestBlendNode_QualityGateSkipsInjection(t *testing.T) {
	n, interactions, _ := blendFixture(t)
	// 12 interactions: weight 0.20, quality gate can apply.
	for i := 0; i < 12; i++ {
		interactions.Add(core.InteractionRecord{
			UserID: "regular", ItemID: "x", Kind: core.InteractionView, State: core.ViewStarted,
		})
	}

	items := make([]*core.Item, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		it := core.NewItem(id)
		it.Score = 0.6
		items = append(items, it)
	}
	rctx := &core.RecommendContext{UserID: "regular", Limit: 5}

	out, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5 {
		t.Fatalf("got %d items, want truncation to 5", len(out))
	}
	for _, it := range out {
		if _, ok := it.GetLabel("cold_start"); ok {
			t.Errorf("cold start item %s injected despite quality gate", it.ID)
		}
	}
}

func TestBlendNode_WeakResultsGetInjection(t *testing.T) {
	n, interactions, profiles := blendFixture(t)
	profiles.SetGenrePreferences("light", []string{"Sci-Fi"})
	for i := 0; i < 6; i++ {
		interactions.Add(core.InteractionRecord{
			UserID: "light", ItemID: "x", Kind: core.InteractionView, State: core.ViewStarted,
		})
	}

	// Two weak personalized results: quality gate fails, cold start
	// candidates fill the page.
	weak := []*core.Item{core.NewItem("a"), core.NewItem("b")}
	rctx := &core.RecommendContext{UserID: "light", Limit: 5}

	out, err := n.Process(context.Background(), rctx, weak)
	if err != nil {
		t.Fatal(err)
	}
	nCold := 0
	for _, it := range out {
		if _, ok := it.GetLabel("cold_start"); ok {
			nCold++
		}
	}
	if nCold == 0 {
		t.Error("no cold start items injected for weak personalized results")
	}
}

func TestBlendNode_QualityGateOverridesSchedule(t *testing.T) {
	n, interactions, profiles := blendFixture(t)
	profiles.SetGenrePreferences("collector", []string{"Sci-Fi"})
	// A favorite is a positive seed for the content side but counts as
	// neither a rating nor a view, so the schedule still says weight 1.0.
	interactions.Add(core.InteractionRecord{
		UserID: "collector", ItemID: "pop3", Kind: core.InteractionFavorite,
	})

	items := make([]*core.Item, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		it := core.NewItem(id)
		it.Score = 0.6
		items = append(items, it)
	}
	rctx := &core.RecommendContext{UserID: "collector", Limit: 5}

	out, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5 {
		t.Fatalf("got %d items, want truncation to 5", len(out))
	}
	// The quality gate wins over the weight schedule: the personalized
	// page survives untouched.
	for _, it := range out {
		if _, ok := it.GetLabel("cold_start"); ok {
			t.Errorf("cold start item %s replaced a quality personalized result", it.ID)
		}
	}
}

func TestBlendNode_NoPreferencesKeepsPersonalized(t *testing.T) {
	n, _, _ := blendFixture(t)
	weak := []*core.Item{core.NewItem("a"), core.NewItem("b")}
	rctx := &core.RecommendContext{UserID: "stranger", Limit: 5}

	out, err := n.Process(context.Background(), rctx, weak)
	if err != nil {
		t.Fatal(err)
	}
	// No declared genre preferences: nothing to inject, the short
	// personalized page goes through as-is.
	if len(out) != 2 {
		t.Fatalf("got %d items, want the 2 personalized ones", len(out))
	}
	for _, it := range out {
		if _, ok := it.GetLabel("cold_start"); ok {
			t.Errorf("cold start item %s injected without preferences", it.ID)
		}
	}
}

func TestCandidateSource_NoPreferencesEmpty(t *testing.T) {
	n, _, _ := blendFixture(t)

	got, err := n.Source.Candidates(context.Background(), "stranger", 10, nil)
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Candidates() without preferences = %d items, want none", len(got))
	}
}

func TestCandidateSource_ExcludesAndScores(t *testing.T) {
	n, _, profiles := blendFixture(t)
	profiles.SetGenrePreferences("u1", []string{"Action", "Comedy", "Sci-Fi"})
	src := n.Source

	got, err := src.Candidates(context.Background(), "u1", 10, map[string]struct{}{"pop1": {}})
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	for _, it := range got {
		if it.ID == "pop1" {
			t.Error("excluded item returned as candidate")
		}
	}
	if len(got) < 2 || got[0].Score <= got[1].Score {
		t.Errorf("candidate pseudo-scores not descending: %v", got)
	}
}
