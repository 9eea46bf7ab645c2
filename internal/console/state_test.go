package console

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjudge-oj/useradmin/types"
)

func loadedState() State {
	return Initial().Loaded(sampleUsers())
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	s := loadedState()
	editing, err := s.BeginEdit("1")
	require.NoError(t, err)

	changed, err := editing.EditField("name", "Zed")
	require.NoError(t, err)

	assert.Equal(t, "Alice", editing.Draft.Name)
	assert.Equal(t, "Zed", changed.Draft.Name)
	assert.Equal(t, "Alice", changed.Users[0].Name)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Nil(t, s.Draft)
}

func TestEditFieldAliases(t *testing.T) {
	s, err := loadedState().BeginEdit("2")
	require.NoError(t, err)

	s, err = s.EditField("gmail", "robert@example.com")
	require.NoError(t, err)
	s, err = s.EditField(" Role ", " ADMIN ")
	require.NoError(t, err)

	assert.Equal(t, "robert@example.com", s.Draft.Email)
	assert.Equal(t, types.RoleAdmin, s.Draft.Role)

	_, err = s.EditField("createdAt", "2020-01-01")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestInvalidTransitions(t *testing.T) {
	idle := loadedState()

	_, err := idle.EditField("name", "x")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = idle.CancelEdit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = idle.BeginSubmit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = idle.SubmitSucceeded()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = idle.CancelDelete()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	confirming, err := idle.RequestDelete("1")
	require.NoError(t, err)
	_, err = confirming.BeginEdit("2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = confirming.RequestDelete("2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitLifecycle(t *testing.T) {
	s, err := loadedState().BeginEdit("3")
	require.NoError(t, err)
	s, err = s.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitting, s.Phase)

	failed, err := s.SubmitFailed()
	require.NoError(t, err)
	assert.Equal(t, PhaseEditing, failed.Phase)
	assert.NotNil(t, failed.Draft)

	done, err := s.SubmitSucceeded()
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, done.Phase)
	assert.Nil(t, done.Draft)
}

func TestTableNumbering(t *testing.T) {
	view := Table(loadedState())

	require.Len(t, view.Rows, 3)
	assert.Equal(t, "Bob", view.Rows[0].User.Name)
	assert.Equal(t, 3, view.Rows[0].Number)
	assert.Equal(t, "Carol", view.Rows[1].User.Name)
	assert.Equal(t, 2, view.Rows[1].Number)
	assert.Equal(t, "Alice", view.Rows[2].User.Name)
	assert.Equal(t, 1, view.Rows[2].Number)
	assert.False(t, view.Empty)
	assert.Equal(t, 3, view.Total)
}

func TestTableEmptyWhileLoading(t *testing.T) {
	view := Table(Initial())
	assert.True(t, view.Loading)
	assert.False(t, view.Empty)

	view = Table(loadedState().WithQuery("nobody"))
	assert.True(t, view.Empty)
	assert.Equal(t, 3, view.Total)
}

func TestStateSerializes(t *testing.T) {
	s, err := loadedState().WithNotice(NoticeSuccess, MsgDeleted).RequestDelete("2")
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Phase, decoded.Phase)
	assert.Equal(t, "2", decoded.PendingDelete)
	assert.Equal(t, *s.Notice, *decoded.Notice)
	require.Len(t, decoded.Users, 3)
	assert.Equal(t, s.Users[1].Email, decoded.Users[1].Email)
	assert.True(t, s.Users[1].CreatedAt.Equal(decoded.Users[1].CreatedAt.Time))
}

func TestKnownField(t *testing.T) {
	for _, field := range []string{"name", "Email", "gmail", " phone", "country", "ROLE"} {
		assert.True(t, KnownField(field), field)
	}
	for _, field := range []string{"", "_id", "createdAt", "password"} {
		assert.False(t, KnownField(field), field)
	}
}

func TestDeleteLifecycle(t *testing.T) {
	confirming, err := loadedState().RequestDelete("2")
	require.NoError(t, err)

	_, err = confirming.DeleteSettled()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	deleting, err := confirming.BeginDelete()
	require.NoError(t, err)
	assert.Equal(t, PhaseDeleting, deleting.Phase)
	assert.Equal(t, "2", deleting.PendingDelete)

	_, err = deleting.CancelDelete()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = deleting.BeginEdit("1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = deleting.RequestDelete("1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = deleting.BeginDelete()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	settled, err := deleting.DeleteSettled()
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, settled.Phase)
	assert.Empty(t, settled.PendingDelete)
}

func TestBeginEditDefaultsMissingRole(t *testing.T) {
	s := loadedState()
	s.Users[0].Role = ""

	editing, err := s.BeginEdit("1")
	require.NoError(t, err)
	assert.Equal(t, types.RoleUser, editing.Draft.Role)
	assert.Equal(t, types.Role(""), editing.Users[0].Role)
}
