package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"eventhub/internal/database"
	"eventhub/internal/models"

	"github.com/stretchr/testify/require"
)

var userSeq int64

// setupTestDB opens a migrated SQLite database private to the test
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.NewConnection(database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "repositories_test.db"),
	})
	if err != nil {
		t.Skipf("Skipping database test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	return db.DB
}

func createTestUser(t *testing.T, db *sql.DB, role models.UserRole) *models.User {
	t.Helper()

	n := atomic.AddInt64(&userSeq, 1)
	user := &models.User{
		Name:         fmt.Sprintf("Test User %d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func createTestEvent(t *testing.T, db *sql.DB, organizerID, totalTickets int, price float64, status models.EventStatus) *models.Event {
	t.Helper()
	ctx := context.Background()
	repo := NewEventRepository(db)

	event, err := repo.Create(ctx, &models.EventCreateRequest{
		Title:        "Test Event",
		Description:  "A test event",
		Date:         time.Now().Add(14 * 24 * time.Hour).UTC().Truncate(time.Second),
		Location:     "Test Venue",
		Category:     models.CategoryConcert,
		TicketPrice:  price,
		TotalTickets: totalTickets,
	}, organizerID)
	require.NoError(t, err)

	if status != models.StatusPending {
		event, err = repo.UpdateStatus(ctx, event.ID, status, organizerID)
		require.NoError(t, err)
	}
	return event
}

// assertInventory checks both inventory invariants for an event
func assertInventory(t *testing.T, db *sql.DB, eventID int) *models.Event {
	t.Helper()
	ctx := context.Background()

	event, err := NewEventRepository(db).GetByID(ctx, eventID)
	require.NoError(t, err)

	active, err := NewBookingRepository(db).ActiveQuantity(ctx, eventID)
	require.NoError(t, err)

	require.GreaterOrEqual(t, event.RemainingTickets, 0)
	require.LessOrEqual(t, event.RemainingTickets, event.TotalTickets)
	require.Equal(t, event.TotalTickets-active, event.RemainingTickets,
		"remaining tickets must equal total minus active bookings")
	return event
}
