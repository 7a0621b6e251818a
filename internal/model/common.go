// Package model holds the Postgres-backed persistence types for hldesk-api.
// Each table gets one self-contained file: a row struct plus sqlx.SqlConn-
// backed CRUD methods, rather than a split custom/generated pair.
package model

import (
	"database/sql"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup by id/name finds no matching row,
// mirroring go-zero's sqlx.ErrNotFound convention used by goctl-generated
// models.
var ErrNotFound = sql.ErrNoRows

// newID generates a fresh UUID primary key.
func newID() string {
	return uuid.NewString()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	val := v.Float64
	return &val
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	val := v.Int64
	return &val
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	val := v.String
	return &val
}
