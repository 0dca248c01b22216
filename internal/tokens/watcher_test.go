package tokens

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestWatcherNotifiesOnCredentialChange(t *testing.T) {
	store, err := NewStore(StoreConfig{StorageDir: t.TempDir(), FileMode: true})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save("watched", &oauth2.Token{AccessToken: "v1"}); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 1)
	w := NewWatcher(WatcherConfig{
		Store: store,
		Keys:  []string{"watched"},
		OnChange: func(key string) {
			select {
			case changed <- key:
			default:
			}
		},
	})
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()

	// Give the watcher a moment to attach before writing.
	time.Sleep(100 * time.Millisecond)

	if err := store.Save("watched", &oauth2.Token{AccessToken: "v2"}); err != nil {
		t.Fatal(err)
	}

	select {
	case key := <-changed:
		if key != "watched" {
			t.Errorf("Expected change for key watched, got %s", key)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the credential change")
	}

	// The cache was invalidated, so the new value is visible.
	cred := store.Get("watched")
	if cred == nil || cred.AccessToken != "v2" {
		t.Errorf("Expected refreshed credential v2, got %+v", cred)
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	store, err := NewStore(StoreConfig{StorageDir: t.TempDir(), FileMode: true})
	if err != nil {
		t.Fatal(err)
	}
	w := NewWatcher(WatcherConfig{Store: store, Keys: []string{"k"}})
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
