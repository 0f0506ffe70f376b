package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lablinkriparo/riparo-be/models"
)

// mockGateway scripts the payment provider
type mockGateway struct {
	createCalls   int
	retrieveCalls int
	session       *CheckoutSession
	err           error
}

func (m *mockGateway) CreateCheckoutSession(p CheckoutParams) (*CheckoutSession, error) {
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockGateway) RetrieveSession(sessionID string) (*CheckoutSession, error) {
	m.retrieveCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

// mockNotifier records notification intents
type mockNotifier struct {
	activations int
	warnings    int
	fail        bool
}

func (m *mockNotifier) LoyaltyCardActivated(card *models.LoyaltyCard, customer *models.Customer, centro *models.Centro) error {
	m.activations++
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *mockNotifier) ForfeitureWarning(repair *models.Repair) error {
	m.warnings++
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

// newMockDB returns a gorm handle backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}
