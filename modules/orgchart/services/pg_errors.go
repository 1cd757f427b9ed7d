package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapStoreError turns repository errors into ServiceErrors. Errors that already are
// ServiceErrors pass through unchanged.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	if errors.Is(err, ErrRecordNotFound) || errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "ORGCHART_NOT_FOUND", "not found", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newServiceError(http.StatusServiceUnavailable, "ORGCHART_STORE_TIMEOUT", "store call canceled or timed out", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return newServiceError(http.StatusInternalServerError, "ORGCHART_STORE_FAILURE", "store failure", err)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		recordWriteConflict("unique")
		return newServiceError(http.StatusConflict, "ORGCHART_CODE_CONFLICT", "unique constraint violated", err)
	case "23P01": // exclusion_violation
		recordWriteConflict("overlap")
		return newServiceError(http.StatusConflict, "ORGCHART_PRIMARY_CONFLICT", "overlapping primary staff position", err)
	case "23503": // foreign_key_violation
		recordWriteConflict("foreign_key")
		return newServiceError(http.StatusConflict, "ORGCHART_REFERENCE_VIOLATION", "row is still referenced or references a missing row", err)
	case "23514": // check_violation
		return newServiceError(http.StatusBadRequest, "ORGCHART_CHECK_VIOLATION", fmt.Sprintf("check constraint %s violated", pgErr.ConstraintName), err)
	case "40001", "40P01": // serialization_failure, deadlock_detected
		recordWriteConflict("serialization")
		return newServiceError(http.StatusServiceUnavailable, "ORGCHART_STORE_CONFLICT", "concurrent update, not retried", err)
	default:
		return newServiceError(http.StatusInternalServerError, "ORGCHART_STORE_FAILURE", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
