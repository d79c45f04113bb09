package sqlutil

import (
	"database/sql"
	"encoding/json"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and sql.Null* types

// ToSqlString converts a Go string pointer to sql.NullString
func ToSqlString(val *string) sql.NullString {
	if val == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *val, Valid: true}
}

// FromSqlStringPtr converts sql.NullString to Go string pointer
func FromSqlStringPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	s := val.String
	return &s
}

// ToNullRawMessage converts optional JSON to pqtype.NullRawMessage
func ToNullRawMessage(val json.RawMessage) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: val, Valid: len(val) > 0}
}

// FromNullRawMessage converts pqtype.NullRawMessage to optional JSON
func FromNullRawMessage(val pqtype.NullRawMessage) json.RawMessage {
	if !val.Valid || len(val.RawMessage) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), val.RawMessage...)
}
