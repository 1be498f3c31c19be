package repositories

import (
	"context"
	"testing"
	"time"

	"eventhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventRequest(title string, category models.Category, date time.Time) *models.EventCreateRequest {
	return &models.EventCreateRequest{
		Title:        title,
		Description:  title + " description",
		Date:         date.UTC().Truncate(time.Second),
		Location:     "Main Hall",
		Category:     category,
		TicketPrice:  20,
		TotalTickets: 50,
	}
}

func TestEventRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	organizer := createTestUser(t, db, models.RoleOrganizer)
	repo := NewEventRepository(db)

	req := newEventRequest("Jazz Night", models.CategoryConcert, time.Now().Add(48*time.Hour))
	req.ImageURL = "https://example.com/jazz.png"

	created, err := repo.Create(ctx, req, organizer.ID)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, 50, created.RemainingTickets)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", fetched.Title)
	assert.Equal(t, models.CategoryConcert, fetched.Category)
	assert.Equal(t, "https://example.com/jazz.png", fetched.ImageURL)
	assert.Equal(t, 20.0, fetched.TicketPrice)
	assert.Equal(t, organizer.ID, fetched.OrganizerID)
	assert.True(t, req.Date.Equal(fetched.Date))
	assert.Nil(t, fetched.ReviewedBy)
	assert.Nil(t, fetched.ReviewedAt)

	_, err = repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestEventRepository_List(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	organizer := createTestUser(t, db, models.RoleOrganizer)
	other := createTestUser(t, db, models.RoleOrganizer)
	repo := NewEventRepository(db)

	base := time.Now().Add(24 * time.Hour)
	fixtures := []struct {
		title       string
		category    models.Category
		offset      time.Duration
		organizerID int
		status      models.EventStatus
	}{
		{"Rock Festival", models.CategoryFestival, 0, organizer.ID, models.StatusApproved},
		{"Chess Open", models.CategorySports, 24 * time.Hour, organizer.ID, models.StatusApproved},
		{"Go Conference", models.CategoryConference, 48 * time.Hour, other.ID, models.StatusApproved},
		{"Secret Gig", models.CategoryConcert, 72 * time.Hour, other.ID, models.StatusPending},
		{"Rejected Play", models.CategoryTheater, 96 * time.Hour, organizer.ID, models.StatusDeclined},
	}
	for _, f := range fixtures {
		event, err := repo.Create(ctx, newEventRequest(f.title, f.category, base.Add(f.offset)), f.organizerID)
		require.NoError(t, err)
		if f.status != models.StatusPending {
			_, err = repo.UpdateStatus(ctx, event.ID, f.status, f.organizerID)
			require.NoError(t, err)
		}
	}

	from := base.Add(12 * time.Hour)
	to := base.Add(60 * time.Hour)

	tests := []struct {
		name   string
		filter models.EventFilter
		titles []string
		total  int
	}{
		{"approved only", models.EventFilter{Status: models.StatusApproved}, []string{"Rock Festival", "Chess Open", "Go Conference"}, 3},
		{"every status", models.EventFilter{}, []string{"Rock Festival", "Chess Open", "Go Conference", "Secret Gig", "Rejected Play"}, 5},
		{"by category", models.EventFilter{Category: models.CategorySports}, []string{"Chess Open"}, 1},
		{"by organizer", models.EventFilter{OrganizerID: other.ID}, []string{"Go Conference", "Secret Gig"}, 2},
		{"date range", models.EventFilter{From: &from, To: &to}, []string{"Chess Open", "Go Conference"}, 2},
		{"search is case-insensitive", models.EventFilter{Search: "ROCK"}, []string{"Rock Festival"}, 1},
		{"search matches location", models.EventFilter{Search: "main hall", Status: models.StatusApproved}, []string{"Rock Festival", "Chess Open", "Go Conference"}, 3},
		{"paginated", models.EventFilter{Status: models.StatusApproved, Limit: 2, Offset: 1}, []string{"Chess Open", "Go Conference"}, 3},
		{"no match", models.EventFilter{Search: "opera"}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			titles := make([]string, 0, len(events))
			for _, e := range events {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestEventRepository_UpdateAdjustsRemaining(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	organizer := createTestUser(t, db, models.RoleOrganizer)
	attendee := createTestUser(t, db, models.RoleUser)
	event := createTestEvent(t, db, organizer.ID, 10, 30, models.StatusApproved)
	repo := NewEventRepository(db)
	bookings := NewBookingRepository(db)

	_, _, err := bookings.Create(ctx, attendee.ID, &models.BookingCreateRequest{EventID: event.ID, Quantity: 3})
	require.NoError(t, err)

	current := assertInventory(t, db, event.ID)
	require.Equal(t, 7, current.RemainingTickets)

	current.TotalTickets = 15
	current.Title = "Bigger Event"
	updated, err := repo.Update(ctx, current)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.TotalTickets)
	assert.Equal(t, 12, updated.RemainingTickets)
	assert.Equal(t, "Bigger Event", updated.Title)
	assertInventory(t, db, event.ID)

	updated.TotalTickets = 2
	_, err = repo.Update(ctx, updated)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindValidation))
	assert.Contains(t, err.Error(), "3 tickets already booked")

	unchanged := assertInventory(t, db, event.ID)
	assert.Equal(t, 15, unchanged.TotalTickets)
	assert.Equal(t, "Bigger Event", unchanged.Title)

	unchanged.ID = 999999
	_, err = repo.Update(ctx, unchanged)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestEventRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	organizer := createTestUser(t, db, models.RoleOrganizer)
	admin := createTestUser(t, db, models.RoleAdmin)
	event := createTestEvent(t, db, organizer.ID, 10, 10, models.StatusPending)
	repo := NewEventRepository(db)

	approved, err := repo.UpdateStatus(ctx, event.ID, models.StatusApproved, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin.ID, *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)

	_, err = repo.UpdateStatus(ctx, 999999, models.StatusApproved, admin.ID)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestEventRepository_SetImage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	organizer := createTestUser(t, db, models.RoleOrganizer)
	event := createTestEvent(t, db, organizer.ID, 10, 10, models.StatusApproved)
	repo := NewEventRepository(db)

	updated, err := repo.SetImage(ctx, event.ID, "https://cdn.example.com/events/1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/events/1/a.jpg", updated.ImageURL)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, 10, updated.RemainingTickets)

	cleared, err := repo.SetImage(ctx, event.ID, "")
	require.NoError(t, err)
	assert.Empty(t, cleared.ImageURL)

	_, err = repo.SetImage(ctx, 999999, "x")
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestEventRepository_DeleteCancelsBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	organizer := createTestUser(t, db, models.RoleOrganizer)
	attendee := createTestUser(t, db, models.RoleUser)
	event := createTestEvent(t, db, organizer.ID, 10, 10, models.StatusApproved)
	repo := NewEventRepository(db)
	bookings := NewBookingRepository(db)

	var ids []int
	for i := 0; i < 3; i++ {
		b, _, err := bookings.Create(ctx, attendee.ID, &models.BookingCreateRequest{EventID: event.ID, Quantity: 1})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	_, _, err := bookings.Cancel(ctx, ids[0])
	require.NoError(t, err)

	canceled, err := repo.Delete(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, canceled)

	_, err = repo.GetByID(ctx, event.ID)
	assert.ErrorIs(t, err, models.ErrEventNotFound)

	for _, id := range ids {
		b, err := bookings.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCanceled, b.Status)
	}

	_, err = repo.Delete(ctx, event.ID)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}
