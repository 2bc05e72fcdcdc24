package keys

import (
	"os"
	"strings"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("PICFOUR_CONFIG_DIR", t.TempDir())

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestStore_SetGet(t *testing.T) {
	store := testStore(t)

	if err := store.Set(DefaultProvider, "sk-test-12345"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	key, err := store.Get(DefaultProvider)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if key != "sk-test-12345" {
		t.Errorf("Get() = %q, want %q", key, "sk-test-12345")
	}
}

func TestStore_GetAbsent(t *testing.T) {
	store := testStore(t)

	key, err := store.Get(DefaultProvider)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if key != "" {
		t.Errorf("Get() = %q, want empty for absent key", key)
	}
}

func TestStore_Delete(t *testing.T) {
	store := testStore(t)

	if err := store.Set(DefaultProvider, "sk-test"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Delete(DefaultProvider); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	key, err := store.Get(DefaultProvider)
	if err != nil || key != "" {
		t.Errorf("Get() after delete = %q, %v", key, err)
	}

	if err := store.Delete(DefaultProvider); err == nil {
		t.Error("Delete() error = nil for absent key")
	}
}

func TestStore_List(t *testing.T) {
	store := testStore(t)

	providers, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(providers) != 0 {
		t.Errorf("List() = %v, want empty", providers)
	}

	if err := store.Set(DefaultProvider, "sk-test"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	providers, err = store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(providers) != 1 || providers[0] != DefaultProvider {
		t.Errorf("List() = %v, want [%s]", providers, DefaultProvider)
	}
}

func TestStore_FilePermissions(t *testing.T) {
	store := testStore(t)

	if err := store.Set(DefaultProvider, "sk-secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("keys.json mode = %o, want 600", perm)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"12345678", "********"},
		{"sk-abcdefghij", "sk-a*****ghij"},
	}

	for _, tt := range tests {
		if got := MaskKey(tt.key); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGetAPIKey_Priority(t *testing.T) {
	t.Setenv("PICFOUR_CONFIG_DIR", t.TempDir())
	env := func(name string) string {
		if name == EnvVar {
			return "env-key"
		}
		return ""
	}

	// Flag wins over everything.
	key, source, err := GetAPIKey("flag-key", env)
	if err != nil {
		t.Fatalf("GetAPIKey() error = %v", err)
	}
	if key != "flag-key" || !strings.Contains(source, "flag") {
		t.Errorf("GetAPIKey() = %q from %q, want flag-key from the flag", key, source)
	}

	// Stored key beats the environment.
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Set(DefaultProvider, "stored-key"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	key, source, err = GetAPIKey("", env)
	if err != nil {
		t.Fatalf("GetAPIKey() error = %v", err)
	}
	if key != "stored-key" || !strings.Contains(source, "stored") {
		t.Errorf("GetAPIKey() = %q from %q, want the stored key", key, source)
	}

	// Environment is the fallback.
	if err := store.Delete(DefaultProvider); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	key, source, err = GetAPIKey("", env)
	if err != nil {
		t.Fatalf("GetAPIKey() error = %v", err)
	}
	if key != "env-key" || !strings.Contains(source, EnvVar) {
		t.Errorf("GetAPIKey() = %q from %q, want the env key", key, source)
	}
}

func TestGetAPIKey_NoneAvailable(t *testing.T) {
	t.Setenv("PICFOUR_CONFIG_DIR", t.TempDir())

	_, _, err := GetAPIKey("", func(string) string { return "" })
	if err == nil {
		t.Fatal("GetAPIKey() error = nil with no key anywhere")
	}
	if !strings.Contains(err.Error(), EnvVar) {
		t.Errorf("error %q does not mention %s", err, EnvVar)
	}
}
