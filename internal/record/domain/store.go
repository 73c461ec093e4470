package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Store persists rows of type T addressed by identity K, written with change set C.
type Store[T any, K Key, C Changes] interface {
	// Exists returns the id of the first row matching key.
	Exists(ctx context.Context, key K) (snowflake.ID, bool, error)
	// Upsert leaves exactly one row for key and returns its id.
	Upsert(ctx context.Context, key K, changes C, actor string) (snowflake.ID, error)
	// Update writes the supplied columns and reports whether exactly one row matched.
	Update(ctx context.Context, id snowflake.ID, changes C, actor string) (bool, error)
	Get(ctx context.Context, id snowflake.ID) (*T, error)
}

type ChartStore = Store[ChartRecord, ChartKey, ChartChanges]

type HoroscopeStore = Store[HoroscopeRecord, HoroscopeKey, HoroscopeChanges]
