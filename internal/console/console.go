package console

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/internal/audit"
	"github.com/jjudge-oj/useradmin/internal/report"
	"github.com/jjudge-oj/useradmin/internal/services"
	"github.com/jjudge-oj/useradmin/types"
)

// FieldError names one edit buffer field that failed validation.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned by Submit when the edit buffer is not a
// valid user. Nothing is sent to the data source.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed %q", f.Field, f.Rule))
	}
	return "invalid user: " + strings.Join(parts, ", ")
}

// Options configures a Console.
type Options struct {
	Notifier Notifier
	Auditor  services.Auditor
	Logger   *zap.Logger
	// RefreshOnFailedDelete reloads the collection after a failed delete
	// as well as after a successful one.
	RefreshOnFailedDelete bool
}

// Console owns the console State and performs the data source calls each
// operator action needs. Only one data source call runs at a time.
type Console struct {
	mu    sync.Mutex
	state State
	busy  bool

	users    services.UserSource
	notifier Notifier
	auditor  services.Auditor
	logger   *zap.Logger
	validate *validator.Validate

	refreshOnFailedDelete bool
}

func New(users services.UserSource, opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.ToLower(f.Name)
	})
	return &Console{
		state:                 Initial(),
		users:                 users,
		notifier:              opts.Notifier,
		auditor:               opts.Auditor,
		logger:                logger,
		validate:              v,
		refreshOnFailedDelete: opts.RefreshOnFailedDelete,
	}
}

// Snapshot returns a copy of the current state.
func (c *Console) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// View returns the on-screen table for the current state.
func (c *Console) View() TableView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Table(c.state)
}

// Search sets the query. It never calls the data source.
func (c *Console) Search(query string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.WithQuery(query)
	return c.state.Clone()
}

// Refresh reloads the collection from the data source. On failure the
// previous collection is kept and the operator is notified.
func (c *Console) Refresh(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()
	return c.refresh(ctx)
}

// Edit opens the edit buffer for a user.
func (c *Console) Edit(id string) (State, error) {
	return c.apply(func(s State) (State, error) { return s.BeginEdit(id) })
}

// Change sets one field of the edit buffer.
func (c *Console) Change(field, value string) (State, error) {
	return c.apply(func(s State) (State, error) { return s.EditField(field, value) })
}

// CancelEdit discards the edit buffer.
func (c *Console) CancelEdit() (State, error) {
	return c.apply(State.CancelEdit)
}

// Delete asks for confirmation before deleting a user.
func (c *Console) Delete(id string) (State, error) {
	return c.apply(func(s State) (State, error) { return s.RequestDelete(id) })
}

// CancelDelete drops the pending deletion without calling the data source.
func (c *Console) CancelDelete() (State, error) {
	return c.apply(State.CancelDelete)
}

// Submit validates the edit buffer and sends it to the data source. On
// success the edit buffer closes and the collection is reloaded; on
// failure the buffer stays open with the operator's changes.
func (c *Console) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state.Phase != PhaseEditing || c.state.Draft == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	draft := *c.state.Draft
	if err := c.check(draft); err != nil {
		c.mu.Unlock()
		c.notify(NoticeError, MsgUpdateFailed)
		return err
	}
	next, err := c.state.BeginSubmit()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.busy = true
	c.mu.Unlock()
	defer c.release()

	if err := c.users.Update(ctx, draft); err != nil {
		c.settle(State.SubmitFailed)
		c.logger.Error("update user", zap.String("user_id", draft.ID), zap.Error(err))
		c.notify(NoticeError, MsgUpdateFailed)
		return err
	}

	c.settle(State.SubmitSucceeded)
	c.logger.Info("user updated", zap.String("user_id", draft.ID))
	c.notify(NoticeSuccess, MsgUpdated)
	c.record(ctx, audit.Event{Type: audit.UserUpdated, UserID: draft.ID})
	c.reloadAfter(ctx, "update", draft.ID)
	return nil
}

// ConfirmDelete deletes the pending user. The collection is reloaded after
// a successful delete, and after a failed one only when
// RefreshOnFailedDelete is set.
func (c *Console) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	next, err := c.state.BeginDelete()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	id := next.PendingDelete
	c.state = next
	c.busy = true
	c.mu.Unlock()
	defer c.release()

	err = c.users.Delete(ctx, id)
	c.settle(State.DeleteSettled)
	if err != nil {
		c.logger.Error("delete user", zap.String("user_id", id), zap.Error(err))
		c.notify(NoticeError, MsgDeleteFailed)
		if c.refreshOnFailedDelete {
			c.reloadAfter(ctx, "failed delete", id)
		}
		return err
	}

	c.logger.Info("user deleted", zap.String("user_id", id))
	c.notify(NoticeSuccess, MsgDeleted)
	c.record(ctx, audit.Event{Type: audit.UserDeleted, UserID: id})
	c.reloadAfter(ctx, "delete", id)
	return nil
}

// Report builds the report document for the users matching the current
// query. It does not depend on the phase.
func (c *Console) Report(now time.Time) report.Document {
	c.mu.Lock()
	records := ReportRecords(c.state)
	c.mu.Unlock()
	return report.BuildReport(records, now)
}

// refresh must be called with busy held.
func (c *Console) refresh(ctx context.Context) error {
	users, err := c.users.List(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = c.state.LoadFailed()
		c.mu.Unlock()
		c.logger.Error("load users", zap.Error(err))
		c.notify(NoticeError, MsgLoadFailed)
		return err
	}
	c.mu.Lock()
	c.state = c.state.Loaded(users)
	c.mu.Unlock()
	c.logger.Debug("users loaded", zap.Int("count", len(users)))
	return nil
}

// reloadAfter refreshes the collection once a mutation has settled. The
// mutation's outcome stands even if the reload fails; the operator has
// already been told the load failed and the table keeps the old rows.
func (c *Console) reloadAfter(ctx context.Context, action, userID string) {
	if err := c.refresh(ctx); err != nil {
		c.logger.Warn("user table may be stale",
			zap.String("after", action),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func (c *Console) apply(fn func(State) (State, error)) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.state)
	if err != nil {
		return c.state.Clone(), err
	}
	c.state = next
	return c.state.Clone(), nil
}

// settle applies a transition that cannot fail while busy is held.
func (c *Console) settle(fn func(State) (State, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.state)
	if err != nil {
		c.logger.Error("settle console state", zap.String("phase", string(c.state.Phase)), zap.Error(err))
		return
	}
	c.state = next
}

func (c *Console) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Console) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// notify stores the notice in the state, then hands it to the notifier
// outside the lock.
func (c *Console) notify(kind NoticeKind, message string) {
	c.mu.Lock()
	c.state = c.state.WithNotice(kind, message)
	c.mu.Unlock()
	if c.notifier != nil {
		c.notifier.Notify(kind, message)
	}
}

func (c *Console) record(ctx context.Context, event audit.Event) {
	if c.auditor != nil {
		c.auditor.Record(ctx, event)
	}
}

func (c *Console) check(user types.User) error {
	err := c.validate.Struct(user)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
