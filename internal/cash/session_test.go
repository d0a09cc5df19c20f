package cash

import (
	"fmt"
	"testing"

	"go-pos-store/internal/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn)
	require.NoError(t, err)
	return db
}

func TestOpenOnlyOneSessionAtATime(t *testing.T) {
	m := NewManager(newTestDB(t))

	session, err := m.Open(1, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "open", session.Status)

	_, err = m.Open(2, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrSessionAlreadyOpen)

	current, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, session.ID, current.ID)
}

func TestCurrentWithoutOpenSession(t *testing.T) {
	m := NewManager(newTestDB(t))

	_, err := m.Current()
	assert.ErrorIs(t, err, ErrNoOpenSession)

	_, err = m.RecordMovement(MovementSale, "cash", decimal.NewFromInt(10), "sale", nil)
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestCloseComputesExpectedAndVariance(t *testing.T) {
	m := NewManager(newTestDB(t))

	session, err := m.Open(1, decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = m.RecordMovement(MovementSale, "cash", decimal.NewFromInt(250), "sale", nil)
	require.NoError(t, err)
	_, err = m.RecordMovement(MovementRefund, "cash", decimal.NewFromInt(-30), "return", nil)
	require.NoError(t, err)
	_, err = m.RecordMovement(MovementPaymentOut, "cash", decimal.NewFromInt(-20), "window cleaner", nil)
	require.NoError(t, err)

	// expected 100 + 250 − 30 − 20 = 300, declared 298 → −2 short (0.67%)
	closed, err := m.Close(session.ID, decimal.NewFromInt(298))
	require.NoError(t, err)

	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.ExpectedAmount)
	require.NotNil(t, closed.Variance)
	assert.Equal(t, "300.00", closed.ExpectedAmount.StringFixed(2))
	assert.Equal(t, "-2.00", closed.Variance.StringFixed(2))
	assert.Equal(t, "normal", closed.VarianceLevel)
	assert.NotNil(t, closed.ClosedAt)

	// closing twice is refused
	_, err = m.Close(session.ID, decimal.NewFromInt(298))
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestVarianceClassification(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	assert.Equal(t, "normal", classifyVariance(hundred, decimal.Zero))
	assert.Equal(t, "normal", classifyVariance(hundred, decimal.NewFromInt(1)))
	assert.Equal(t, "warning", classifyVariance(hundred, decimal.NewFromInt(-3)))
	assert.Equal(t, "warning", classifyVariance(hundred, decimal.NewFromInt(5)))
	assert.Equal(t, "critical", classifyVariance(hundred, decimal.NewFromInt(6)))

	// an empty drawer tolerates no deviation at all
	assert.Equal(t, "normal", classifyVariance(decimal.Zero, decimal.Zero))
	assert.Equal(t, "critical", classifyVariance(decimal.Zero, decimal.NewFromFloat(0.5)))
}
