package cf

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/feedback"
)

func testModel() *Model {
	m := &Model{
		SchemaVersion:  SchemaVersion,
		TrainedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Factors:        2,
		Iterations:     5,
		Regularization: 0.01,
		Users:          []string{"u1", "u2"},
		Items:          []string{"m1", "m2", "m3"},
		UserFactors:    [][]float64{{1, 0}, {0, 1}},
		ItemFactors:    [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}},
		Weights:        feedback.DefaultWeights(),
	}
	m.buildIndex()
	return m
}

func TestModel_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "cf.json")

	orig := testModel()
	if err := orig.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if !loaded.HasUser("u1") || loaded.HasUser("u3") {
		t.Error("loaded model lost user index")
	}
	v, ok := loaded.ItemVector("m3")
	if !ok || v[0] != 0.5 {
		t.Errorf("ItemVector(m3) = %v, %v", v, ok)
	}
	if !loaded.TrainedAt.Equal(orig.TrainedAt) {
		t.Errorf("TrainedAt = %v, want %v", loaded.TrainedAt, orig.TrainedAt)
	}
}

func TestLoadModel_MissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "nope.json"))
	if !os.IsNotExist(err) {
		t.Errorf("LoadModel() error = %v, want os.IsNotExist", err)
	}
}

func TestLoadModel_SchemaMismatch(t *testing.T) {
	m := testModel()
	m.SchemaVersion = SchemaVersion + 1
	path := filepath.Join(t.TempDir(), "cf.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, err := LoadModel(path)
	if !errors.Is(err, ErrModelSchema) {
		t.Errorf("LoadModel() error = %v, want ErrModelSchema", err)
	}
}

func TestLoadModel_SizeMismatch(t *testing.T) {
	m := testModel()
	m.UserFactors = m.UserFactors[:1] // one row fewer than Users
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "cf.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = LoadModel(path)
	var derr *core.DomainError
	if !errors.As(err, &derr) {
		t.Fatalf("LoadModel() error = %v, want DomainError", err)
	}
}

func TestModel_Save_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cf.json")
	if err := testModel().Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "cf.json" {
		t.Errorf("dir entries = %v, want only cf.json", entries)
	}
}
