package errors

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	if err := MapDBError(sql.ErrNoRows); !IsNotFound(err) {
		t.Errorf("MapDBError(sql.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
	if err := MapDBError(pgx.ErrNoRows); !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantCode  ErrorCode
		wantField string
	}{
		{
			name:     "connection failure",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodeNetwork,
		},
		{
			name:     "undefined table",
			pgErr:    &pgconn.PgError{Code: pgerrcode.UndefinedTable},
			wantCode: ErrCodeInternal,
		},
		{
			name:      "not null",
			pgErr:     &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "value"},
			wantCode:  ErrCodeValidation,
			wantField: "value",
		},
		{
			name:     "unhandled",
			pgErr:    &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsAppError(err, tt.wantCode) {
				t.Fatalf("code = %v, want %v", GetCode(err), tt.wantCode)
			}
			if GetField(err) != tt.wantField {
				t.Errorf("field = %q, want %q", GetField(err), tt.wantField)
			}
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) {
				t.Errorf("expected cause to be preserved")
			}
		})
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	orig := errors.New("something else")
	if err := MapDBError(orig); !errors.Is(err, orig) {
		t.Errorf("expected original error to pass through, got %v", err)
	}
}
