package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullTimeToTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func timePtrToNullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func nullStringValue(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

func stringToNullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func encodeJSON(value any) (string, error) {
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(encoded), nil
}

func decodeJSON(raw string, out any) error {
	if raw == "" {
		return nil
	}
	if err := sonic.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// expectOneRow fails when an UPDATE touched no row.
func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, sql.ErrNoRows)
	}
	return nil
}
