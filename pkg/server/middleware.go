package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-Id"

type requestIDKey struct{}

// withRequestID tags every request with a uuid, reusing the caller's if present
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

var (
	errReplayedNonce = errors.New("nonce already used")
	errStalePayload  = errors.New("payload issued_at is outside the replay window")
)

// nonceCache accepts a signed payload only while its issued_at is within ttl
// of the clock, and only once per (signer, nonce). A nonce is remembered
// until its payload would be rejected as stale anyway. Payloads issued before
// notBefore are refused so a restart cannot reopen the window.
type nonceCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	notBefore time.Time
	seen      map[string]time.Time
	now       func() time.Time
}

func newNonceCache(ttl time.Duration) *nonceCache {
	return &nonceCache{
		ttl:       ttl,
		notBefore: time.Now().Truncate(time.Second),
		seen:      make(map[string]time.Time),
		now:       time.Now,
	}
}

// use checks freshness, then records the nonce
func (c *nonceCache) use(signer common.Address, nonce string, issuedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, expiry := range c.seen {
		if now.After(expiry) {
			delete(c.seen, k)
		}
	}

	if issuedAt.Before(c.notBefore) || issuedAt.Before(now.Add(-c.ttl)) || issuedAt.After(now.Add(c.ttl)) {
		return errStalePayload
	}

	key := signer.Hex() + "/" + nonce
	if _, ok := c.seen[key]; ok {
		return errReplayedNonce
	}
	c.seen[key] = issuedAt.Add(c.ttl)
	return nil
}
