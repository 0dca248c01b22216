package tokens

import (
	"uefbridge/pkg/logging"
)

// Source names where a resolved credential came from.
type Source string

const (
	SourceInjected Source = "injected"
	SourcePrimary  Source = "primary"
	SourceLegacy   Source = "legacy"
)

// Resolver locates the bearer credential for a new session, in fixed
// priority order: a boot-injected value, the primary storage key, then the
// legacy storage key kept for tokens written by older builds.
type Resolver struct {
	// Injected is an in-memory bearer value handed over by the bootstrap
	// page, if any. Highest priority.
	Injected string

	// Store is the persistent credential store.
	Store *Store

	// PrimaryKey is the designated storage key.
	PrimaryKey string

	// LegacyKey is the alternate storage key consulted last. Empty disables
	// the legacy lookup.
	LegacyKey string
}

// Resolve returns the credential to authorize with and its source. The
// second return is false when no credential exists anywhere; the caller must
// then halt authorization rather than invent a login demand.
func (r *Resolver) Resolve() (*StoredCredential, Source, bool) {
	if r.Injected != "" {
		return &StoredCredential{AccessToken: r.Injected}, SourceInjected, true
	}

	if r.Store != nil && r.PrimaryKey != "" {
		if cred := r.Store.Get(r.PrimaryKey); cred != nil && cred.AccessToken != "" {
			return cred, SourcePrimary, true
		}
	}

	if r.Store != nil && r.LegacyKey != "" {
		if cred := r.Store.Get(r.LegacyKey); cred != nil && cred.AccessToken != "" {
			logging.Debug("Tokens", "credential resolved from legacy key %s", r.LegacyKey)
			return cred, SourceLegacy, true
		}
	}

	return nil, "", false
}
