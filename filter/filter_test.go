package filter

import (
	"context"
	"testing"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pkg/utils"
	"github.com/moviekit/moviekit/store"
)

func TestSeenFilter(t *testing.T) {
	interactions := store.NewMemoryInteractions()
	interactions.AddAll([]core.InteractionRecord{
		{UserID: "u1", ItemID: "rated", Kind: core.InteractionRating, Value: 2},
		{UserID: "u1", ItemID: "finished", Kind: core.InteractionView, State: core.ViewFinished},
		{UserID: "u1", ItemID: "halfway", Kind: core.InteractionView, Value: 0.4},
	})
	f := NewSeenFilter(interactions)
	rctx := &core.RecommendContext{UserID: "u1"}

	tests := []struct {
		itemID string
		want   bool
	}{
		{"rated", true},
		{"finished", true},
		{"halfway", false}, // resuming a half-watched movie is fine
		{"fresh", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.itemID))
		if err != nil {
			t.Fatalf("ShouldFilter(%s) error = %v", tt.itemID, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.itemID, got, tt.want)
		}
	}

	// The exclude set is cached on the request context after first use.
	if _, ok := rctx.GetParam("filter.seen.exclude"); !ok {
		t.Error("exclude set was not cached in rctx.Params")
	}
}

func TestSeenFilter_AnonymousUser(t *testing.T) {
	f := NewSeenFilter(store.NewMemoryInteractions())
	got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{}, core.NewItem("m1"))
	if err != nil || got {
		t.Errorf("anonymous user ShouldFilter = %v, %v, want false, nil", got, err)
	}
}

func TestRuleFilter(t *testing.T) {
	f, err := NewRuleFilter(`label.cb_fallback == "true" || item.score < 0.05`)
	if err != nil {
		t.Fatalf("NewRuleFilter() error = %v", err)
	}

	fallback := core.NewItem("fb")
	fallback.Score = 0.5
	fallback.PutLabel("cb_fallback", utils.Label{Value: "true", Source: "recall"})

	lowScore := core.NewItem("low")
	lowScore.Score = 0.01
	lowScore.PutLabel("cb_fallback", utils.Label{Value: "false", Source: "recall"})

	keeper := core.NewItem("keep")
	keeper.Score = 0.5
	keeper.PutLabel("cb_fallback", utils.Label{Value: "false", Source: "recall"})

	rctx := &core.RecommendContext{UserID: "u1"}
	for _, tt := range []struct {
		item *core.Item
		want bool
	}{
		{fallback, true},
		{lowScore, true},
		{keeper, false},
	} {
		got, err := f.ShouldFilter(context.Background(), rctx, tt.item)
		if err != nil {
			t.Fatalf("ShouldFilter(%s) error = %v", tt.item.ID, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.item.ID, got, tt.want)
		}
	}
}

func TestRuleFilter_BadExpression(t *testing.T) {
	if _, err := NewRuleFilter("this is not cel ==="); err == nil {
		t.Error("NewRuleFilter() with invalid expression should fail at construction")
	}
}

func TestBlacklistFilter(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	if err := kv.Set(ctx, "ops:blacklist", []byte(`["banned2"]`)); err != nil {
		t.Fatal(err)
	}
	f := NewBlacklistFilter([]string{"banned1"}, kv, "ops:blacklist")

	tests := []struct {
		itemID string
		want   bool
	}{
		{"banned1", true}, // static list
		{"banned2", true}, // store-backed list
		{"clean", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(ctx, &core.RecommendContext{UserID: "u1"}, core.NewItem(tt.itemID))
		if err != nil {
			t.Fatalf("ShouldFilter(%s) error = %v", tt.itemID, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.itemID, got, tt.want)
		}
	}
}

func TestFilterNode(t *testing.T) {
	interactions := store.NewMemoryInteractions()
	interactions.Add(core.InteractionRecord{UserID: "u1", ItemID: "seen", Kind: core.InteractionRating, Value: 4})

	n := &FilterNode{Filters: []Filter{NewSeenFilter(interactions)}}
	items := []*core.Item{core.NewItem("seen"), core.NewItem("fresh")}

	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "fresh" {
		t.Errorf("Process() = %v, want only fresh", out)
	}
	// Dropped item is labeled with the filter that removed it.
	lbl, ok := items[0].GetLabel("filtered")
	if !ok || lbl.Source != "filter.seen" {
		t.Errorf("filtered label = %+v, want source filter.seen", lbl)
	}
}
