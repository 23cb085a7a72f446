package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFromOpen(t *testing.T) {
	to, role, err := Next(StatusOpen, ActionClose)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, to)
	assert.Equal(t, RoleNone, role)

	to, role, err = Next(StatusOpen, ActionAdminCancel)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, to)
	assert.Equal(t, RoleAdmin, role)

	to, role, err = Next(StatusOpen, ActionUserCancel)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, to)
	assert.Equal(t, RoleUser, role)
}

func TestNextFromTerminalAlwaysFails(t *testing.T) {
	for _, from := range []Status{StatusClosed, StatusCanceled} {
		assert.True(t, from.Terminal())
		for _, action := range []Action{ActionClose, ActionAdminCancel, ActionUserCancel} {
			to, _, err := Next(from, action)
			assert.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, from, to)
		}
	}
	_, _, err := Next(StatusOpen, Action("reopen"))
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestReject(t *testing.T) {
	me, other := int64(100), int64(200)

	tests := []struct {
		name  string
		out   Outcome
		actor int64
		want  Rejection
	}{
		{"applied", Outcome{Applied: true, Found: true, Status: StatusClosed}, me, RejectNone},
		{"missing", Outcome{}, me, RejectNotFound},
		{"closed by me", Outcome{Found: true, Status: StatusClosed, ClosedBy: &me}, me, RejectClosed},
		{"closed by other", Outcome{Found: true, Status: StatusClosed, ClosedBy: &other}, me, RejectClosedByOther},
		{"closed seen by user", Outcome{Found: true, Status: StatusClosed, ClosedBy: &other}, 0, RejectClosed},
		{"canceled by user", Outcome{Found: true, Status: StatusCanceled, CanceledBy: RoleUser}, me, RejectCanceledByUser},
		{"canceled by other admin", Outcome{Found: true, Status: StatusCanceled, CanceledBy: RoleAdmin, ClosedBy: &other}, me, RejectCanceledByOther},
		{"canceled by me", Outcome{Found: true, Status: StatusCanceled, CanceledBy: RoleAdmin, ClosedBy: &me}, me, RejectCanceled},
		{"legacy canceled", Outcome{Found: true, Status: StatusCanceled}, me, RejectCanceled},
		{"open but not owned", Outcome{Found: true, Status: StatusOpen}, 0, RejectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.out.Reject(tt.actor))
		})
	}
}
