// Package redissession implements sessionstore.Store on Redis. Each session
// is one JSON document at "<prefix>session:<id>". Deltas are applied with an
// optimistic WATCH/MULTI read-modify-write so concurrent writers never lose
// updates.
package redissession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"go.trai.ch/zerr"
)

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 32

// ErrContention is returned when a delta could not be applied because the
// session document kept changing underneath it.
var ErrContention = zerr.New("session document contention")

// Options configures the store.
type Options struct {
	// KeyPrefix is prepended to every key.
	KeyPrefix string
	// TTL expires a session after this much idle time. Zero disables expiry.
	TTL time.Duration
}

// Store is a Redis-backed session store.
type Store struct {
	client redis.UniversalClient
	opts   Options
}

var _ sessionstore.Store = (*Store)(nil)

// New wraps an existing client.
func New(client redis.UniversalClient, opts Options) *Store {
	return &Store{client: client, opts: opts}
}

// Dial parses a redis:// URL, connects and verifies the connection.
func Dial(ctx context.Context, url string, opts Options) (*Store, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to parse redis url")
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, zerr.With(zerr.Wrap(err, "failed to connect to redis"), "addr", ropts.Addr)
	}
	return New(client, opts), nil
}

func (s *Store) key(sessionID string) string {
	return fmt.Sprintf("%ssession:%s", s.opts.KeyPrefix, sessionID)
}

// Get loads a session document.
func (s *Store) Get(ctx context.Context, sessionID string) (*sessionstore.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, "failed to get session"), "session", sessionID)
	}
	snap, err := decode(data)
	if err != nil {
		return nil, false, zerr.With(err, "session", sessionID)
	}
	return snap, true, nil
}

// Create writes an empty document with SETNX, leaving an existing one alone.
func (s *Store) Create(ctx context.Context, sessionID string) (bool, error) {
	data, err := sonic.ConfigStd.Marshal(sessionstore.NewSnapshot())
	if err != nil {
		return false, zerr.Wrap(err, "failed to encode session")
	}
	created, err := s.client.SetNX(ctx, s.key(sessionID), data, s.opts.TTL).Result()
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to create session"), "session", sessionID)
	}
	return created, nil
}

// Put overwrites a session document.
func (s *Store) Put(ctx context.Context, sessionID string, snap *sessionstore.Snapshot) error {
	data, err := sonic.ConfigStd.Marshal(snap)
	if err != nil {
		return zerr.Wrap(err, "failed to encode session")
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.opts.TTL).Err(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to put session"), "session", sessionID)
	}
	return nil
}

// AppendNode upserts a node record.
func (s *Store) AppendNode(ctx context.Context, sessionID string, rec sessionstore.NodeRecord) error {
	return s.update(ctx, sessionID, func(snap *sessionstore.Snapshot) { snap.UpsertNode(rec) })
}

// RemoveNode deletes a node with its edges and settings.
func (s *Store) RemoveNode(ctx context.Context, sessionID, nodeID string) error {
	return s.update(ctx, sessionID, func(snap *sessionstore.Snapshot) { snap.DropNode(nodeID) })
}

// AppendEdge inserts an edge.
func (s *Store) AppendEdge(ctx context.Context, sessionID string, e sessionstore.Edge) error {
	return s.update(ctx, sessionID, func(snap *sessionstore.Snapshot) { snap.AddEdge(e) })
}

// RemoveEdge deletes an edge.
func (s *Store) RemoveEdge(ctx context.Context, sessionID string, e sessionstore.Edge) error {
	return s.update(ctx, sessionID, func(snap *sessionstore.Snapshot) { snap.DropEdge(e) })
}

// UpdateSettings merges a settings delta.
func (s *Store) UpdateSettings(ctx context.Context, sessionID, nodeID string, delta map[string]any) error {
	return s.update(ctx, sessionID, func(snap *sessionstore.Snapshot) { snap.MergeSettings(nodeID, delta) })
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// update applies fn to the session document inside an optimistic transaction.
func (s *Store) update(ctx context.Context, sessionID string, fn func(*sessionstore.Snapshot)) error {
	key := s.key(sessionID)

	txf := func(tx *redis.Tx) error {
		snap := sessionstore.NewSnapshot()
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if snap, err = decode(data); err != nil {
				return err
			}
		}

		fn(snap)

		out, err := sonic.ConfigStd.Marshal(snap)
		if err != nil {
			return zerr.Wrap(err, "failed to encode session")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.opts.TTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return zerr.With(zerr.Wrap(err, "failed to update session"), "session", sessionID)
	}
	return zerr.With(ErrContention, "session", sessionID)
}

func decode(data []byte) (*sessionstore.Snapshot, error) {
	snap := sessionstore.NewSnapshot()
	if err := sonic.ConfigStd.Unmarshal(data, snap); err != nil {
		return nil, zerr.Wrap(err, "failed to decode session")
	}
	if snap.Settings == nil {
		snap.Settings = map[string]map[string]any{}
	}
	if snap.Nodes == nil {
		snap.Nodes = []sessionstore.NodeRecord{}
	}
	if snap.Edges == nil {
		snap.Edges = []sessionstore.Edge{}
	}
	return snap, nil
}
