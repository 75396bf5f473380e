package content

import (
	"math"
	"testing"

	"github.com/moviekit/moviekit/core"
)

func testMetas() []*core.ItemMeta {
	return []*core.ItemMeta{
		{ID: "m1", Title: "The Lost City", Genres: []string{"Action", "Adventure"}, ReleaseYear: 2022, AvgRating: 4.1, RatingCount: 500},
		{ID: "m2", Title: "Lost City Returns", Genres: []string{"Action", "Adventure"}, ReleaseYear: 2023, AvgRating: 4.0, RatingCount: 450},
		{ID: "m3", Title: "Quiet Garden", Genres: []string{"Drama"}, ReleaseYear: 1995, AvgRating: 3.2, RatingCount: 20},
	}
}

func TestCorpus_Similarity(t *testing.T) {
	c := NewCorpus(testMetas())

	i1, _ := c.IndexOf("m1")
	i2, _ := c.IndexOf("m2")
	i3, _ := c.IndexOf("m3")

	same := c.Similarity(i1, i2)
	diff := c.Similarity(i1, i3)
	if same <= diff {
		t.Errorf("same-genre similarity %v <= disjoint similarity %v", same, diff)
	}
	if same <= 0 || same >= 1 {
		t.Errorf("similarity %v out of (0,1)", same)
	}
	if c.Similarity(i1, i2) != c.Similarity(i2, i1) {
		t.Error("similarity is not symmetric")
	}
}

func TestCorpus_Similarity_ClipsBelowOne(t *testing.T) {
	// Two items with identical metadata must still land strictly below 1.
	metas := []*core.ItemMeta{
		{ID: "a", Title: "Twin", Genres: []string{"Drama"}, ReleaseYear: 2000, AvgRating: 4, RatingCount: 100},
		{ID: "b", Title: "Twin", Genres: []string{"Drama"}, ReleaseYear: 2000, AvgRating: 4, RatingCount: 100},
	}
	c := NewCorpus(metas)
	if sim := c.Similarity(0, 1); sim >= 1.0 {
		t.Errorf("identical items similarity = %v, want < 1.0", sim)
	}
}

func TestCorpus_DeterministicOrder(t *testing.T) {
	metas := testMetas()
	reversed := []*core.ItemMeta{metas[2], metas[0], metas[1]}
	c := NewCorpus(reversed)
	// Items are re-sorted by ID regardless of input order.
	for i, want := range []string{"m1", "m2", "m3"} {
		if c.IDAt(i) != want {
			t.Errorf("IDAt(%d) = %s, want %s", i, c.IDAt(i), want)
		}
	}
}

func TestTokenizeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"The Lost City", []string{"lost", "city"}},
		{"Se7en: A Story", []string{"se7en", "story"}},
		{"Up", []string{"up"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := tokenizeTitle(tt.title)
		if len(got) != len(tt.want) {
			t.Errorf("tokenizeTitle(%q) = %v, want %v", tt.title, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenizeTitle(%q) = %v, want %v", tt.title, got, tt.want)
				break
			}
		}
	}
}

func TestMinMaxScale(t *testing.T) {
	got := minMaxScale([]float64{10, 20, 30})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("minMaxScale[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Constant column collapses to zeros instead of dividing by zero.
	for _, v := range minMaxScale([]float64{5, 5, 5}) {
		if v != 0 {
			t.Errorf("constant column scaled to %v, want 0", v)
		}
	}
}
