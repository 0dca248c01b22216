package tokens

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestStoreSaveAndGet(t *testing.T) {
	store, err := NewStore(StoreConfig{StorageDir: t.TempDir(), FileMode: false})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	token := &oauth2.Token{
		AccessToken:  "bearer-value",
		RefreshToken: "refresh-value",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := store.Save("uefBearerToken", token); err != nil {
		t.Fatalf("Failed to save credential: %v", err)
	}

	cred := store.Get("uefBearerToken")
	if cred == nil {
		t.Fatal("Expected stored credential, got nil")
	}
	if cred.AccessToken != "bearer-value" {
		t.Errorf("Expected access token %q, got %q", "bearer-value", cred.AccessToken)
	}
	if cred.RefreshToken != "refresh-value" {
		t.Errorf("Expected refresh token %q, got %q", "refresh-value", cred.RefreshToken)
	}
	if !cred.Valid() {
		t.Error("Expected credential to be valid")
	}
}

func TestStoreFilePersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(StoreConfig{StorageDir: dir, FileMode: true})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save("uefBearerToken", &oauth2.Token{AccessToken: "persisted"}); err != nil {
		t.Fatalf("Failed to save credential: %v", err)
	}

	// A fresh store over the same directory sees the credential.
	reopened, err := NewStore(StoreConfig{StorageDir: dir, FileMode: true})
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	cred := reopened.Get("uefBearerToken")
	if cred == nil || cred.AccessToken != "persisted" {
		t.Fatalf("Expected persisted credential, got %+v", cred)
	}

	keys := reopened.Keys()
	if len(keys) != 1 || keys[0] != "uefBearerToken" {
		t.Errorf("Expected keys [uefBearerToken], got %v", keys)
	}
}

func TestStoreDelete(t *testing.T) {
	store, err := NewStore(StoreConfig{StorageDir: t.TempDir(), FileMode: true})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save("key", &oauth2.Token{AccessToken: "x"}); err != nil {
		t.Fatalf("Failed to save credential: %v", err)
	}
	if err := store.Delete("key"); err != nil {
		t.Fatalf("Failed to delete credential: %v", err)
	}
	if store.Get("key") != nil {
		t.Error("Expected credential to be gone after delete")
	}
	// Deleting again is not an error.
	if err := store.Delete("key"); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
}

func TestCredentialValidity(t *testing.T) {
	var nilCred *StoredCredential
	if nilCred.Valid() {
		t.Error("nil credential must not be valid")
	}

	expired := &StoredCredential{AccessToken: "x", Expiry: time.Now().Add(-time.Minute)}
	if expired.Valid() {
		t.Error("expired credential must not be valid")
	}

	// Inside the expiry buffer counts as expired.
	closeToExpiry := &StoredCredential{AccessToken: "x", Expiry: time.Now().Add(10 * time.Second)}
	if closeToExpiry.Valid() {
		t.Error("credential inside the expiry buffer must not be valid")
	}

	noExpiry := &StoredCredential{AccessToken: "x"}
	if !noExpiry.Valid() {
		t.Error("credential without expiry must be valid")
	}
}
