package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"github.com/rs/zerolog/log"
)

const userKeyPrefix = "oidc.user:"

// Store persists the current session in a single well-known key of a
// storage scope. It is the only reader and writer of that key.
type Store struct {
	storage webstorage.Storage
	key     string
}

// NewStore creates a session store keyed by issuer and client id.
func NewStore(storage webstorage.Storage, issuer, clientID string) *Store {
	return &Store{
		storage: storage,
		key:     userKeyPrefix + issuer + ":" + clientID,
	}
}

// Key returns the storage key the session is persisted under.
func (s *Store) Key() string {
	return s.key
}

// Save persists a complete session, replacing any existing one.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if !sess.Complete() {
		return errors.ErrIncompleteSession
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		return errors.Wrapf(err, "session: save")
	}
	return nil
}

// Load returns the persisted session, or nil when none exists. Corrupt or
// partial records are reported as absent.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	val, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, errors.Wrapf(err, "session: load")
	}
	if !ok {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Discarding corrupt session record")
		return nil, nil
	}
	if !sess.Complete() {
		log.Warn().Str("key", s.key).Msg("Discarding incomplete session record")
		return nil, nil
	}

	return &sess, nil
}

// Remove deletes the persisted session.
func (s *Store) Remove(ctx context.Context) error {
	if err := s.storage.Remove(ctx, s.key); err != nil {
		return errors.Wrapf(err, "session: remove")
	}
	return nil
}
