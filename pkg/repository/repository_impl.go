package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	return &store[T]{db: tx}
}

// FindOne returns the first row by primary key matching conditions, or nil when none does.
func (r *store[T]) FindOne(ctx context.Context, conditions map[string]any) (*T, error) {
	var result T
	err := r.db.WithContext(ctx).Where(conditions).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) FindByID(ctx context.Context, id snowflake.ID) (*T, error) {
	return r.FindOne(ctx, map[string]any{"id": id})
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

// UpdateColumns writes only the given columns and reports the affected row count.
func (r *store[T]) UpdateColumns(ctx context.Context, id snowflake.ID, columns map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(columns)
	return res.RowsAffected, res.Error
}

func (r *store[T]) Count(ctx context.Context, conditions map[string]any) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where(conditions).Count(&count).Error
	return count, err
}
