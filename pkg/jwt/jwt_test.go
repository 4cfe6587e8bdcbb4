package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_SignVerify(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := NewIssuer("secreto", "stock-ledger", 30*time.Minute)
	i.now = func() time.Time { return fixed }

	tok, exp, err := i.Sign(Subject{UserID: "u-1", TenantID: "rest-1", Role: "vendedor"})
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(30*time.Minute), exp)

	got, err := i.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, Subject{UserID: "u-1", TenantID: "rest-1", Role: "vendedor"}, got)

	i.now = func() time.Time { return fixed.Add(31 * time.Minute) }
	_, err = i.Verify(tok)
	assert.Error(t, err, "vencido")
}

func TestIssuer_SinSecretoNiTenant(t *testing.T) {
	_, _, err := NewIssuer("", "x", time.Minute).Sign(Subject{TenantID: "rest-1"})
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = NewIssuer("", "x", time.Minute).Verify("a.b.c")
	assert.ErrorIs(t, err, ErrNoSecret)

	i := NewIssuer("secreto", "", time.Minute)
	tok, _, err := i.Sign(Subject{UserID: "u-1"})
	require.NoError(t, err)
	_, err = i.Verify(tok)
	assert.ErrorIs(t, err, ErrNoTenant)
}
