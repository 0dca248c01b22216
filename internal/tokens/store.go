package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"uefbridge/pkg/logging"
)

// DefaultStorageDir is the default directory for stored credentials,
// relative to the user's home directory.
const DefaultStorageDir = ".config/uefbridge/credentials"

// expiryBuffer is the margin added when checking credential validity. It
// accounts for clock skew and the time between resolution and the
// authorization request reaching the host.
const expiryBuffer = 60 * time.Second

// StoredCredential is the persisted form of a bearer credential.
type StoredCredential struct {
	// AccessToken is the bearer value presented to the host.
	AccessToken string `json:"access_token"`

	// RefreshToken is used against the Token Provider (if available).
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// Expiry is when the access token expires. Zero means no expiry known.
	Expiry time.Time `json:"expiry,omitempty"`

	// Key is the storage key this credential was saved under.
	Key string `json:"key"`

	// CreatedAt is when the credential was stored.
	CreatedAt time.Time `json:"created_at"`
}

// ToOAuth2Token converts a stored credential to an oauth2.Token.
func (c *StoredCredential) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Valid reports whether the credential exists and has not passed its expiry
// (with buffer). Credentials without an expiry are considered valid.
func (c *StoredCredential) Valid() bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(expiryBuffer).Before(c.Expiry)
}

// StoreConfig configures the credential store.
type StoreConfig struct {
	// StorageDir is the directory for credential files.
	// Defaults to ~/.config/uefbridge/credentials.
	StorageDir string

	// FileMode enables file-based persistence. If false, credentials are
	// in-memory only.
	FileMode bool
}

// Store holds bearer credentials, keyed by a stable storage key name.
// It supports both file-based and in-memory storage.
type Store struct {
	mu         sync.RWMutex
	storageDir string
	creds      map[string]*StoredCredential
	fileMode   bool
}

// NewStore creates a credential store.
func NewStore(cfg StoreConfig) (*Store, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultStorageDir)
	}

	store := &Store{
		storageDir: storageDir,
		creds:      make(map[string]*StoredCredential),
		fileMode:   cfg.FileMode,
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create credential storage directory: %w", err)
		}
	}

	return store, nil
}

// Save stores a credential under the given key.
func (s *Store) Save(key string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred := &StoredCredential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Key:          key,
		CreatedAt:    time.Now(),
	}

	s.creds[key] = cred

	if s.fileMode {
		if err := s.writeCredentialFile(key, cred); err != nil {
			logging.Warn("Tokens", "credential persistence failed for key %s: %v", key, err)
			return fmt.Errorf("failed to persist credential: %w", err)
		}
		logging.Info("Tokens", "credential stored under key %s (expiry %s, refresh=%t)",
			key, expiryLabel(cred.Expiry), cred.RefreshToken != "")
	}

	return nil
}

// Get retrieves the credential stored under key. Returns nil when no
// credential exists. Expired credentials are returned as-is; expiry policy
// belongs to the caller, which may be able to refresh them.
func (s *Store) Get(key string) *StoredCredential {
	s.mu.RLock()
	if cred, ok := s.creds[key]; ok {
		s.mu.RUnlock()
		return cred
	}
	s.mu.RUnlock()

	if !s.fileMode {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cred, ok := s.creds[key]; ok {
		return cred
	}
	cred, err := s.readCredentialFile(key)
	if err != nil {
		return nil
	}
	s.creds[key] = cred
	return cred
}

// Delete removes the credential stored under key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, key)

	if s.fileMode {
		err := os.Remove(s.credentialPath(key))
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		logging.Info("Tokens", "credential deleted for key %s", key)
	}
	return nil
}

// Keys lists the keys of all credentials currently on disk or in memory.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(s.creds))
	var keys []string
	for key := range s.creds {
		seen[key] = true
		keys = append(keys, key)
	}

	if s.fileMode {
		entries, err := os.ReadDir(s.storageDir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
					continue
				}
				cred, err := s.readCredentialFileByName(entry.Name())
				if err != nil || cred.Key == "" || seen[cred.Key] {
					continue
				}
				seen[cred.Key] = true
				keys = append(keys, cred.Key)
			}
		}
	}
	return keys
}

// Invalidate drops the in-memory cache entry for key so the next Get
// re-reads the file. The watcher calls this when the file changes.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.creds, key)
	s.mu.Unlock()
}

// Path returns the file path a credential for key would be stored at.
func (s *Store) Path(key string) string {
	return s.credentialPath(key)
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.storageDir
}

// fileKey derives a filesystem-safe file name from a storage key.
func fileKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}

func (s *Store) credentialPath(key string) string {
	return filepath.Join(s.storageDir, fileKey(key)+".json")
}

func (s *Store) writeCredentialFile(key string, cred *StoredCredential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := os.WriteFile(s.credentialPath(key), data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

func (s *Store) readCredentialFile(key string) (*StoredCredential, error) {
	return s.readCredentialFileByName(fileKey(key) + ".json")
}

func (s *Store) readCredentialFileByName(name string) (*StoredCredential, error) {
	// #nosec G304 -- the path is derived from an internal hash, not user input
	data, err := os.ReadFile(filepath.Join(s.storageDir, name))
	if err != nil {
		return nil, err
	}
	var cred StoredCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

func expiryLabel(expiry time.Time) string {
	if expiry.IsZero() {
		return "none"
	}
	return expiry.Format(time.RFC3339)
}
