package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/observability/metrics"
	"github.com/smallbiznis/astrolabe/internal/record/domain"
	"github.com/smallbiznis/astrolabe/pkg/db"
	"github.com/smallbiznis/astrolabe/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resultCreated    = "created"
	resultUpdated    = "updated"
	resultReconciled = "reconciled"
	resultFailed     = "failed"
)

// BuildFunc assembles a new row for an insert.
type BuildFunc[T domain.Record, K domain.Key, C domain.Changes] func(id snowflake.ID, key K, changes C, actor string, now time.Time) *T

// Store implements check-then-write upserts with duplicate reconciliation.
type Store[T domain.Record, K domain.Key, C domain.Changes] struct {
	kind    string
	rows    repository.Repository[T]
	node    *snowflake.Node
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.Metrics
	build   BuildFunc[T, K, C]
}

// Deps are the collaborators shared by every record store.
type Deps struct {
	DB      *gorm.DB
	Node    *snowflake.Node
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func NewStore[T domain.Record, K domain.Key, C domain.Changes](kind string, deps Deps, build BuildFunc[T, K, C]) *Store[T, K, C] {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Store[T, K, C]{
		kind:    kind,
		rows:    repository.ProvideStore[T](deps.DB),
		node:    deps.Node,
		clock:   clk,
		log:     log.Named("record." + kind),
		metrics: deps.Metrics,
		build:   build,
	}
}

func (s *Store[T, K, C]) Exists(ctx context.Context, key K) (snowflake.ID, bool, error) {
	row, err := s.rows.FindOne(ctx, key.Conditions())
	if err != nil {
		return 0, false, fmt.Errorf("%w: find %s: %v", domain.ErrStorage, s.kind, err)
	}
	if row == nil {
		return 0, false, nil
	}
	return (*row).RecordID(), true, nil
}

func (s *Store[T, K, C]) Upsert(ctx context.Context, key K, changes C, actor string) (snowflake.ID, error) {
	id, found, err := s.Exists(ctx, key)
	if err != nil {
		s.metrics.RecordUpsert(ctx, s.kind, resultFailed)
		return 0, err
	}

	if found {
		if _, err := s.Update(ctx, id, changes, actor); err != nil {
			s.log.Warn("update existing record failed",
				zap.Int64("id", id.Int64()),
				zap.Error(err),
			)
		}
		s.metrics.RecordUpsert(ctx, s.kind, resultUpdated)
		return id, nil
	}

	return s.create(ctx, key, changes, actor)
}

// create inserts a new row. A concurrent writer that won the race surfaces as
// ErrAlreadyExists, in which case the winner's id is returned.
func (s *Store[T, K, C]) create(ctx context.Context, key K, changes C, actor string) (snowflake.ID, error) {
	id, err := s.insert(ctx, key, changes, actor)
	if err == nil {
		s.metrics.RecordUpsert(ctx, s.kind, resultCreated)
		return id, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		s.metrics.RecordUpsert(ctx, s.kind, resultFailed)
		return 0, err
	}

	existing, found, findErr := s.Exists(ctx, key)
	if findErr != nil {
		s.metrics.RecordUpsert(ctx, s.kind, resultFailed)
		return 0, findErr
	}
	if !found {
		s.metrics.RecordUpsert(ctx, s.kind, resultFailed)
		return 0, err
	}

	s.log.Debug("reconciled concurrent insert", zap.Int64("id", existing.Int64()))
	s.metrics.RecordUpsert(ctx, s.kind, resultReconciled)
	return existing, nil
}

func (s *Store[T, K, C]) insert(ctx context.Context, key K, changes C, actor string) (snowflake.ID, error) {
	id := s.node.Generate()
	row := s.build(id, key, changes, actor, s.clock.Now())
	if err := s.rows.Create(ctx, row); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, s.kind)
		}
		return 0, fmt.Errorf("%w: insert %s: %v", domain.ErrStorage, s.kind, err)
	}
	return id, nil
}

func (s *Store[T, K, C]) Update(ctx context.Context, id snowflake.ID, changes C, actor string) (bool, error) {
	columns := changes.Columns()
	columns["update_time"] = s.clock.Now()
	columns["update_user"] = actor

	affected, err := s.rows.UpdateColumns(ctx, id, columns)
	if err != nil {
		return false, fmt.Errorf("%w: update %s: %v", domain.ErrStorage, s.kind, err)
	}
	return affected == 1, nil
}

func (s *Store[T, K, C]) Get(ctx context.Context, id snowflake.ID) (*T, error) {
	row, err := s.rows.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrStorage, s.kind, err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return row, nil
}
