package service

import (
	"context"
	"log"
	"sync"

	"rideid/internal/domain"
	"rideid/internal/provider"
	"rideid/internal/redis"
)

// GuardState is the authentication state of the process-wide session guard.
type GuardState string

const (
	GuardStateLoading         GuardState = "loading"
	GuardStateUnauthenticated GuardState = "unauthenticated"
	GuardStateAuthenticated   GuardState = "authenticated"
	GuardStateRejected        GuardState = "rejected"
)

// RejectionReason explains why a sign-in was rejected.
type RejectionReason string

const (
	RejectionBlocked     RejectionReason = "blocked"
	RejectionInactive    RejectionReason = "inactive"
	RejectionUnverified  RejectionReason = "unverified"
	RejectionDataMissing RejectionReason = "data-missing"
)

// SessionGuard observes provider sign-in and sign-out events, loads the
// resolved identity and enforces status gating. Blocked or inactive
// accounts never reach Authenticated: the guard forces a provider sign-out
// and parks in Rejected with a reason for UI messaging.
type SessionGuard struct {
	resolver   *ResolverService
	directory  provider.DirectoryAdmin
	cacheStore *redis.CacheStore

	mu        sync.Mutex
	state     GuardState
	identity  *domain.Identity
	subjectID string
	phone     string
	reason    RejectionReason
}

// NewSessionGuard creates a new SessionGuard in the Loading state.
// cacheStore may be nil.
func NewSessionGuard(resolver *ResolverService, directory provider.DirectoryAdmin, cacheStore *redis.CacheStore) *SessionGuard {
	return &SessionGuard{
		resolver:   resolver,
		directory:  directory,
		cacheStore: cacheStore,
		state:      GuardStateLoading,
	}
}

// Snapshot is the observable guard state.
type Snapshot struct {
	State    GuardState
	Identity *domain.Identity
	Reason   RejectionReason
}

// State returns the current guard state.
func (g *SessionGuard) State() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{State: g.state, Identity: g.identity, Reason: g.reason}
}

// HandleSignIn processes a provider sign-in event: it resolves the identity
// and admits or rejects the session. Rejection forces a provider sign-out.
func (g *SessionGuard) HandleSignIn(ctx context.Context, subjectID, phone string) (Snapshot, error) {
	res, err := g.resolver.Resolve(ctx, subjectID, phone)
	if err != nil {
		return g.State(), err
	}

	if !res.Exists {
		return g.reject(ctx, subjectID, RejectionDataMissing, true), ErrAccountDataMissing
	}

	if snapshot, gateErr := g.gate(ctx, subjectID, res.Identity, true); gateErr != nil {
		return snapshot, gateErr
	}

	g.mu.Lock()
	g.state = GuardStateAuthenticated
	g.identity = res.Identity
	g.subjectID = subjectID
	g.phone = phone
	g.reason = ""
	g.mu.Unlock()

	return g.State(), nil
}

// HandleSignOut processes a provider sign-out event (or an initial load
// with no prior session).
func (g *SessionGuard) HandleSignOut() Snapshot {
	g.mu.Lock()
	g.state = GuardStateUnauthenticated
	g.identity = nil
	g.subjectID = ""
	g.phone = ""
	g.reason = ""
	g.mu.Unlock()
	return g.State()
}

// SignOut terminates the provider session on explicit logout and resets the
// guard.
func (g *SessionGuard) SignOut(ctx context.Context) Snapshot {
	g.mu.Lock()
	subjectID := g.subjectID
	g.mu.Unlock()

	if subjectID != "" {
		if err := g.directory.RevokeSessions(ctx, subjectID); err != nil {
			log.Printf("[GUARD] session revoke for %s failed: %v", subjectID, err)
		}
		if g.cacheStore != nil {
			_ = g.cacheStore.InvalidateIdentity(ctx, subjectID)
		}
	}
	return g.HandleSignOut()
}

// RefreshIdentity re-runs resolution for the current subject without
// touching the provider session. Safe to call any number of times; it never
// triggers the sign-out side effects of the sign-in path. A deleted
// identity flips the guard to Unauthenticated.
func (g *SessionGuard) RefreshIdentity(ctx context.Context) (Snapshot, error) {
	g.mu.Lock()
	if g.state != GuardStateAuthenticated {
		snapshot := Snapshot{State: g.state, Identity: g.identity, Reason: g.reason}
		g.mu.Unlock()
		return snapshot, nil
	}
	subjectID, phone := g.subjectID, g.phone
	g.mu.Unlock()

	res, err := g.resolver.Resolve(ctx, subjectID, phone)
	if err != nil {
		return g.State(), err
	}

	if !res.Exists {
		return g.HandleSignOut(), nil
	}

	if snapshot, gateErr := g.gate(ctx, subjectID, res.Identity, false); gateErr != nil {
		return snapshot, gateErr
	}

	g.mu.Lock()
	g.identity = res.Identity
	g.mu.Unlock()
	return g.State(), nil
}

// gate enforces account status. On the sign-in event path the provider
// session is also revoked; refresh only updates the local state.
func (g *SessionGuard) gate(ctx context.Context, subjectID string, identity *domain.Identity, signOut bool) (Snapshot, error) {
	switch {
	case identity.Status == domain.AccountStatusBlocked:
		return g.reject(ctx, subjectID, RejectionBlocked, signOut), ErrAccountBlocked
	case identity.Status == domain.AccountStatusInactive:
		return g.reject(ctx, subjectID, RejectionInactive, signOut), ErrAccountInactive
	case !identity.IsVerified:
		return g.reject(ctx, subjectID, RejectionUnverified, signOut), ErrAccountNotVerified
	}
	return Snapshot{}, nil
}

func (g *SessionGuard) reject(ctx context.Context, subjectID string, reason RejectionReason, signOut bool) Snapshot {
	if signOut {
		if err := g.directory.RevokeSessions(ctx, subjectID); err != nil {
			log.Printf("[GUARD] forced sign-out for %s failed: %v", subjectID, err)
		}
	}

	g.mu.Lock()
	g.state = GuardStateRejected
	g.identity = nil
	g.subjectID = ""
	g.phone = ""
	g.reason = reason
	g.mu.Unlock()
	return g.State()
}
