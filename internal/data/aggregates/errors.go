package aggregates

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("store validation")
	// ErrConflict indicates an optimistic concurrency conflict.
	ErrConflict = errors.New("store conflict")
	// ErrUnavailable indicates a transient backend failure.
	ErrUnavailable = errors.New("store unavailable")
	// ErrNotFound indicates the addressed session does not exist.
	ErrNotFound = errors.New("store not found")
)

func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

func UnavailableError(msg string) error {
	return errors.Join(ErrUnavailable, errors.New(strings.TrimSpace(msg)))
}

func NotFoundError(msg string) error {
	return errors.Join(ErrNotFound, errors.New(strings.TrimSpace(msg)))
}

// MapError maps driver and infrastructure failures into assessment error codes.
// Errors that already carry a code pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return types.Wrap(types.CodeValidation, op, err)
	case errors.Is(err, ErrConflict):
		return types.Wrap(types.CodePersistenceConflict, op, err)
	case errors.Is(err, ErrUnavailable):
		return types.Wrap(types.CodePersistenceUnavailable, op, err)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, mongo.ErrNoDocuments):
		return types.Wrap(types.CodeSessionNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.Wrap(types.CodePersistenceUnavailable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return types.Wrap(types.CodePersistenceConflict, op, err) // unique_violation
		case "40001", "40P01", "55P03":
			return types.Wrap(types.CodePersistenceUnavailable, op, err) // serialization/deadlock/lock_not_available
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return types.Wrap(types.CodePersistenceUnavailable, op, err)
	}

	if mongo.IsDuplicateKeyError(err) {
		return types.Wrap(types.CodePersistenceConflict, op, err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return types.Wrap(types.CodePersistenceUnavailable, op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return types.Wrap(types.CodePersistenceUnavailable, op, err)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "already exists"):
		return types.Wrap(types.CodePersistenceConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return types.Wrap(types.CodePersistenceUnavailable, op, err)
	default:
		return types.Wrap(types.CodeInternal, op, err)
	}
}
