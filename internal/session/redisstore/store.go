// Package redisstore keeps authoritative game sessions as JSON blobs in
// Redis. Conditional writes run under WATCH so a race loser gets a rejected
// write instead of silently clobbering a newer state, and every accepted
// write is published on a per-game Pub/Sub channel serving as the change
// feed.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hpark-dev/footchess-server/internal/obslog"
	"github.com/hpark-dev/footchess-server/internal/session"
)

const gameTTL = 24 * time.Hour

type Store struct {
	rdb *redis.Client
}

func New(redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for session store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func gameKey(id string) string     { return "fc:game:" + strings.TrimSpace(id) }
func feedKey(id string) string     { return "fc:feed:" + strings.TrimSpace(id) }
func userIdxKey(pid string) string { return "fc:index:user:" + strings.TrimSpace(pid) }
func activeKey() string            { return "fc:active" }

func (s *Store) Fetch(ctx context.Context, gameID string) (*session.GameSession, error) {
	raw, err := s.rdb.Get(ctx, gameKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (s *Store) Create(ctx context.Context, g *session.GameSession) error {
	g.Normalize()
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, gameKey(g.ID), raw, gameTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return session.ErrExists
	}
	if err := s.indexParticipant(ctx, g.ID, g.Player1ID); err != nil {
		return err
	}
	if err := s.indexParticipant(ctx, g.ID, g.Player2ID); err != nil {
		return err
	}
	if g.Status != session.StatusFinished {
		if err := s.rdb.SAdd(ctx, activeKey(), g.ID).Err(); err != nil {
			return err
		}
	}
	s.publish(ctx, g)
	return nil
}

// Update is the conditional-write contract: re-read under WATCH, verify the
// precondition against the freshest record, apply mutate and write back in
// one transaction. Any interleaved write or failed precondition surfaces as
// ErrStale; mutate errors abort without writing.
func (s *Store) Update(ctx context.Context, gameID string, pre session.Precondition, mutate session.UpdateFunc) (*session.GameSession, error) {
	key := gameKey(gameID)
	var result *session.GameSession

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return session.ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decode(raw)
		if err != nil {
			return err
		}
		if !pre.Check(cur) {
			return session.ErrStale
		}
		prevPlayer2 := cur.Player2ID
		if err := mutate(cur); err != nil {
			return err
		}
		cur.UpdatedAt = time.Now().UTC()

		newRaw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, gameTTL)
		pipe.Publish(ctx, feedKey(gameID), newRaw)
		if cur.Status == session.StatusFinished {
			pipe.SRem(ctx, activeKey(), gameID)
		} else {
			pipe.SAdd(ctx, activeKey(), gameID)
		}
		if cur.Player2ID != "" && cur.Player2ID != prevPlayer2 {
			pipe.SAdd(ctx, userIdxKey(cur.Player2ID), gameID)
			pipe.Expire(ctx, userIdxKey(cur.Player2ID), gameTTL)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		result = cur
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, session.ErrStale
		}
		return nil, err
	}
	return result, nil
}

// Subscribe attaches fn to the game's change feed. Delivery is at-least-once
// and unordered; receivers are expected to reconcile. The returned func
// cancels the subscription and is safe to call more than once.
func (s *Store) Subscribe(ctx context.Context, gameID string, fn func(*session.GameSession)) (func(), error) {
	sub := s.rdb.Subscribe(ctx, feedKey(gameID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	go func() {
		for msg := range sub.Channel() {
			g, err := decode([]byte(msg.Payload))
			if err != nil {
				obslog.L().Warn("feed_decode_error", zap.String("game_id", gameID), zap.Error(err))
				continue
			}
			fn(g)
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { _ = sub.Close() }) }, nil
}

func (s *Store) ActiveGameIDs(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, activeKey()).Result()
}

func (s *Store) ActiveGameByUser(ctx context.Context, profileID string) (*session.GameSession, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, nil
	}
	ids, err := s.rdb.SMembers(ctx, userIdxKey(profileID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*session.GameSession
	for _, id := range ids {
		g, gerr := s.Fetch(ctx, id)
		if gerr != nil || g == nil {
			continue
		}
		if g.Status == session.StatusFinished {
			continue
		}
		list = append(list, g)
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

func (s *Store) indexParticipant(ctx context.Context, gameID, profileID string) error {
	if strings.TrimSpace(profileID) == "" {
		return nil
	}
	key := userIdxKey(profileID)
	if err := s.rdb.SAdd(ctx, key, gameID).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, gameTTL).Err()
}

func (s *Store) publish(ctx context.Context, g *session.GameSession) {
	raw, err := json.Marshal(g)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, feedKey(g.ID), raw).Err(); err != nil {
		obslog.L().Warn("feed_publish_error", zap.String("game_id", g.ID), zap.Error(err))
	}
}

func decode(raw []byte) (*session.GameSession, error) {
	var g session.GameSession
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	g.Normalize()
	return &g, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
