package archive

import (
	"context"
	"fmt"
	"time"

	"inventory-service/internal/repository"
	"inventory-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SweepResult summarises one retention pass.
type SweepResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// SweepExpired permanently deletes every record archived for longer than
// retention. Each record is deleted in its own transaction so one failure does
// not stop the pass; failures are logged and counted. Concurrent calls share
// one pass. The sweep is a system action and writes no audit entries.
func (e *Engine[T, P]) SweepExpired(ctx context.Context, retention time.Duration) (SweepResult, error) {
	if retention <= 0 {
		return SweepResult{}, fmt.Errorf("sweep %s: retention must be positive, got %s", e.entity, retention)
	}
	v, err, _ := e.sweeps.Do("sweep", func() (interface{}, error) {
		return e.sweep(ctx, retention)
	})
	if err != nil {
		return SweepResult{}, err
	}
	return v.(SweepResult), nil
}

func (e *Engine[T, P]) sweep(ctx context.Context, retention time.Duration) (SweepResult, error) {
	defer prometheus.TrackDBOperation("archive_sweep")(time.Now())

	cutoff := e.now().Add(-retention)
	expired, err := e.repo.FindAll(ctx, repository.Query{
		Scopes: []repository.Scope{
			repository.Where("archived = ?", true),
			repository.Where("archived_at < ?", cutoff),
		},
		Order: "archived_at asc",
	})
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep %s: list expired: %w", e.entity, err)
	}

	var res SweepResult
	for i := range expired {
		rec := P(&expired[i])
		ref := rec.Ref()
		err := repository.Transaction(ctx, e.db, func(tx *gorm.DB) error {
			return e.remove(ctx, tx, rec)
		})
		if err != nil {
			res.Failed++
			e.log.Warn("Sweep failed to delete record",
				zap.Uint("id", ref.ID), zap.String("name", ref.Name()), zap.Error(err))
			continue
		}
		res.Deleted++
		e.notifyRemoved(ref)
	}

	if len(expired) > 0 {
		e.log.Info("Archive sweep finished",
			zap.Time("cutoff", cutoff), zap.Int("deleted", res.Deleted), zap.Int("failed", res.Failed))
	}
	prometheus.RecordSweep(e.entity, res.Deleted, res.Failed)
	return res, nil
}
