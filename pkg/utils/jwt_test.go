package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_IssueAndValidate(t *testing.T) {
	m := NewJWTManager("secret", "gst-billing", time.Hour)

	token, expires, err := m.Issue("counter-1", []string{RoleCashier})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "counter-1", claims.Operator())
	assert.True(t, claims.HasRole(RoleAdmin, RoleCashier))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestJWTManager_Rejections(t *testing.T) {
	m := NewJWTManager("secret", "gst-billing", time.Hour)

	_, _, err := m.Issue("", nil)
	assert.Error(t, err)

	other := NewJWTManager("other-secret", "gst-billing", time.Hour)
	token, _, err := other.Issue("counter-1", nil)
	require.NoError(t, err)
	_, err = m.Validate(token)
	assert.Error(t, err, "signed with another key")

	foreign := NewJWTManager("secret", "someone-else", time.Hour)
	token, _, err = foreign.Issue("counter-1", nil)
	require.NoError(t, err)
	_, err = m.Validate(token)
	assert.Error(t, err, "issued by another service")

	expired := NewJWTManager("secret", "gst-billing", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.Issue("counter-1", nil)
	require.NoError(t, err)
	_, err = m.Validate(token)
	assert.Error(t, err)
}
