// Package console drives the user administration screen: the loaded
// collection, the search box, the edit buffer and the delete confirmation.
//
// State is a plain value. Every transition is a pure function returning a
// new State, so the screen's behavior can be exercised without a renderer;
// Console layers the data source calls and notifications on top.
package console

import (
	"errors"
	"strings"

	"github.com/jjudge-oj/useradmin/internal/report"
	"github.com/jjudge-oj/useradmin/types"
)

// Phase is the position of the console in its edit/delete lifecycle.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseEditing          Phase = "editing"
	PhaseSubmitting       Phase = "submitting"
	PhaseConfirmingDelete Phase = "confirming_delete"
	PhaseDeleting         Phase = "deleting"
)

var (
	ErrInvalidTransition = errors.New("invalid console transition")
	ErrUnknownUser       = errors.New("unknown user")
	ErrUnknownField      = errors.New("unknown field")
	ErrBusy              = errors.New("another user request is in flight")
)

// NoticeKind classifies operator notifications.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the latest message shown to the operator.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// State is the complete, serializable state of the console.
type State struct {
	Users         []types.User `json:"users"`
	Query         string       `json:"query"`
	Loading       bool         `json:"loading"`
	Phase         Phase        `json:"phase"`
	Draft         *types.User  `json:"draft,omitempty"`
	PendingDelete string       `json:"pending_delete,omitempty"`
	Notice        *Notice      `json:"notice,omitempty"`
}

// Initial is the state before the first load completes.
func Initial() State {
	return State{
		Users:   []types.User{},
		Loading: true,
		Phase:   PhaseIdle,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Users = make([]types.User, len(s.Users))
	copy(out.Users, s.Users)
	if s.Draft != nil {
		draft := *s.Draft
		out.Draft = &draft
	}
	if s.Notice != nil {
		notice := *s.Notice
		out.Notice = &notice
	}
	return out
}

// Loaded replaces the collection wholesale.
func (s State) Loaded(users []types.User) State {
	next := s.Clone()
	next.Users = make([]types.User, len(users))
	copy(next.Users, users)
	next.Loading = false
	return next
}

// LoadFailed keeps the previous collection and stops loading.
func (s State) LoadFailed() State {
	next := s.Clone()
	next.Loading = false
	return next
}

// WithQuery sets the search text.
func (s State) WithQuery(query string) State {
	next := s.Clone()
	next.Query = query
	return next
}

// WithNotice records the latest operator notification.
func (s State) WithNotice(kind NoticeKind, message string) State {
	next := s.Clone()
	next.Notice = &Notice{Kind: kind, Message: message}
	return next
}

// BeginEdit opens the edit buffer with a copy of the user. A user with
// no role is edited as a plain user.
func (s State) BeginEdit(id string) (State, error) {
	if s.Phase != PhaseIdle {
		return s, ErrInvalidTransition
	}
	user, ok := s.find(id)
	if !ok {
		return s, ErrUnknownUser
	}
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	next := s.Clone()
	next.Phase = PhaseEditing
	next.Draft = &user
	return next, nil
}

// EditField changes one attribute of the edit buffer. The collection is
// never touched.
func (s State) EditField(field, value string) (State, error) {
	if s.Phase != PhaseEditing || s.Draft == nil {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	switch normalizeField(field) {
	case "name":
		next.Draft.Name = value
	case "email":
		next.Draft.Email = value
	case "phone":
		next.Draft.Phone = value
	case "country":
		next.Draft.Country = value
	case "role":
		next.Draft.Role = types.Role(strings.ToLower(strings.TrimSpace(value)))
	default:
		return s, ErrUnknownField
	}
	return next, nil
}

// KnownField reports whether EditField accepts field.
func KnownField(field string) bool {
	switch normalizeField(field) {
	case "name", "email", "phone", "country", "role":
		return true
	}
	return false
}

func normalizeField(field string) string {
	f := strings.ToLower(strings.TrimSpace(field))
	if f == "gmail" {
		return "email"
	}
	return f
}

// CancelEdit discards the edit buffer.
func (s State) CancelEdit() (State, error) {
	if s.Phase != PhaseEditing {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Phase = PhaseIdle
	next.Draft = nil
	return next, nil
}

// BeginSubmit marks the edit buffer as sent.
func (s State) BeginSubmit() (State, error) {
	if s.Phase != PhaseEditing || s.Draft == nil {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Phase = PhaseSubmitting
	return next, nil
}

// SubmitSucceeded closes the edit buffer.
func (s State) SubmitSucceeded() (State, error) {
	if s.Phase != PhaseSubmitting {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Phase = PhaseIdle
	next.Draft = nil
	return next, nil
}

// SubmitFailed reopens the edit buffer unchanged.
func (s State) SubmitFailed() (State, error) {
	if s.Phase != PhaseSubmitting {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Phase = PhaseEditing
	return next, nil
}

// RequestDelete asks for confirmation before deleting the user.
func (s State) RequestDelete(id string) (State, error) {
	if s.Phase != PhaseIdle {
		return s, ErrInvalidTransition
	}
	if _, ok := s.find(id); !ok {
		return s, ErrUnknownUser
	}
	next := s.Clone()
	next.Phase = PhaseConfirmingDelete
	next.PendingDelete = id
	return next, nil
}

// CancelDelete drops the pending deletion.
func (s State) CancelDelete() (State, error) {
	if s.Phase != PhaseConfirmingDelete {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Phase = PhaseIdle
	next.PendingDelete = ""
	return next, nil
}

// BeginDelete marks the confirmed deletion as sent. Nothing can cancel it
// from here.
func (s State) BeginDelete() (State, error) {
	if s.Phase != PhaseConfirmingDelete {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Phase = PhaseDeleting
	return next, nil
}

// DeleteSettled returns to idle once the delete request has finished,
// whatever its outcome.
func (s State) DeleteSettled() (State, error) {
	if s.Phase != PhaseDeleting {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Phase = PhaseIdle
	next.PendingDelete = ""
	return next, nil
}

func (s State) find(id string) (types.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return types.User{}, false
}

// TableRow is one line of the on-screen table. Number matches the row's
// position in the exported report.
type TableRow struct {
	Number int        `json:"number"`
	User   types.User `json:"user"`
}

// TableView is the on-screen table.
type TableView struct {
	Rows    []TableRow `json:"rows"`
	Total   int        `json:"total"`
	Empty   bool       `json:"empty"`
	Loading bool       `json:"loading"`
}

// Table filters the collection by the query and lists it newest first.
// Empty is set when nothing matches ("No users found.").
func Table(s State) TableView {
	ordered := report.SortByCreatedAt(ReportRecords(s), report.Descending)
	rows := make([]TableRow, 0, len(ordered))
	for i, u := range ordered {
		rows = append(rows, TableRow{Number: len(ordered) - i, User: u})
	}
	return TableView{
		Rows:    rows,
		Total:   len(s.Users),
		Empty:   !s.Loading && len(rows) == 0,
		Loading: s.Loading,
	}
}

// ReportRecords is the set of users a report exported now would contain.
func ReportRecords(s State) []types.User {
	return report.Filter(s.Users, s.Query)
}
