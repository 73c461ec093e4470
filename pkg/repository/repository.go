package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is a thin gorm accessor over one table.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	FindOne(ctx context.Context, conditions map[string]any) (*T, error)
	FindByID(ctx context.Context, id snowflake.ID) (*T, error)
	Create(ctx context.Context, resource *T) error
	UpdateColumns(ctx context.Context, id snowflake.ID, columns map[string]any) (int64, error)
	Count(ctx context.Context, conditions map[string]any) (int64, error)
}
