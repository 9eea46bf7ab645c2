package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jjudge-oj/useradmin/internal/metrics"
	"github.com/jjudge-oj/useradmin/types"
)

const (
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
)

// UserSource defines the operations the console needs from the system
// that owns user records.
type UserSource interface {
	List(ctx context.Context) ([]types.User, error)
	Update(ctx context.Context, user types.User) error
	Delete(ctx context.Context, id string) error
}

// TransportError reports any failure to reach the user data source or to
// get a successful answer from it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s users: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is, or wraps, a TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// UserService encapsulates user data source calls.
// Every failure it returns is a *TransportError.
type UserService struct {
	source  UserSource
	metrics *metrics.Collector
}

func NewUserService(source UserSource, collector *metrics.Collector) *UserService {
	return &UserService{source: source, metrics: collector}
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	started := time.Now()
	users, err := s.source.List(ctx)
	s.metrics.ObserveSource(OpList, started, err)
	if err != nil {
		return nil, wrapTransport(OpList, err)
	}
	return users, nil
}

func (s *UserService) Update(ctx context.Context, user types.User) error {
	started := time.Now()
	err := s.source.Update(ctx, user)
	s.metrics.ObserveSource(OpUpdate, started, err)
	return wrapTransport(OpUpdate, err)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	started := time.Now()
	err := s.source.Delete(ctx, id)
	s.metrics.ObserveSource(OpDelete, started, err)
	return wrapTransport(OpDelete, err)
}

func wrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
