package cf

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestLoader_Get_MissingModel(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "missing.json"), nil)

	_, err := l.Get(context.Background())
	if !errors.Is(err, ErrModelNotReady) {
		t.Errorf("Get() error = %v, want ErrModelNotReady", err)
	}

	st := l.Status()
	if st.Loaded || st.Loading {
		t.Errorf("Status() = %+v, want not loaded and not loading", st)
	}
	if st.Error == "" {
		t.Error("Status().Error should record the load failure")
	}
}

func TestLoader_GetAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cf.json")
	if err := testModel().Save(path); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(path, nil)

	m, err := l.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !m.HasUser("u1") {
		t.Error("loaded model missing expected user")
	}

	// Second Get returns the cached model without reloading.
	m2, err := l.Get(context.Background())
	if err != nil || m2 != m {
		t.Errorf("second Get() = %p, %v, want cached %p", m2, err, m)
	}

	// Replace the file on disk and reload.
	updated := testModel()
	updated.Users = append(updated.Users, "u3")
	updated.UserFactors = append(updated.UserFactors, []float64{0.5, 0.5})
	if err := updated.Save(path); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	m3, err := l.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !m3.HasUser("u3") {
		t.Error("Reload() did not pick up the new model")
	}

	st := l.Status()
	if !st.Loaded || st.Users != 3 {
		t.Errorf("Status() = %+v, want loaded with 3 users", st)
	}
}
