package match

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hpark-dev/footchess-server/internal/obslog"
	"github.com/hpark-dev/footchess-server/internal/session"
)

// RunTimeoutEnforcer scans active sessions and forces a pass for any side
// whose turn countdown expired. A timeout forfeits the move only: board and
// score stay untouched and no MoveRecord is appended. The loop stops when
// ctx is canceled.
func (m *Manager) RunTimeoutEnforcer(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.TimeoutScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.enforceTimeouts(ctx)
		}
	}
}

func (m *Manager) enforceTimeouts(ctx context.Context) {
	ids, err := m.store.ActiveGameIDs(ctx)
	if err != nil {
		obslog.L().Warn("timeout_scan_error", zap.Error(err))
		return
	}
	now := time.Now().UTC()
	for _, id := range ids {
		g, err := m.store.Fetch(ctx, id)
		if err != nil {
			continue
		}
		if !m.turnExpired(g, now) {
			continue
		}
		expired := g.State.Turn
		if _, err := m.ForcePass(ctx, id, expired, g.HistoryLen()); err != nil {
			obslog.L().Warn("turn_timeout_error", zap.String("game_id", id), zap.Error(err))
			continue
		}
		obslog.L().Info("turn_timeout",
			zap.String("game_id", id),
			zap.String("expired_player", string(expired)),
		)
	}
}

func (m *Manager) turnExpired(g *session.GameSession, now time.Time) bool {
	if g == nil || g.Status != session.StatusInProgress || !g.TimeoutEnabled {
		return false
	}
	if g.State == nil || g.TurnStartedAt.IsZero() {
		return false
	}
	return now.Sub(g.TurnStartedAt) >= m.cfg.TurnTimeout
}
