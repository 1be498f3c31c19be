package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/repositories"
	"eventhub/internal/utils"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the SQL repositories. It keeps the
// same inventory rules so service behavior can be tested without a database.
type memStore struct {
	mu       sync.Mutex
	users    map[int]*models.User
	events   map[int]*models.Event
	bookings map[int]*models.Booking
	audit    []*models.AuditLog
	nextID   int

	// createErrs are returned, in order, by the next booking creates
	createErrs []error
	cancelErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int]*models.User{},
		events:   map[int]*models.Event{},
		bookings: map[int]*models.Booking{},
	}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	return &c
}

func (m *memStore) copyBooking(b *models.Booking) *models.Booking {
	c := *b
	if e, ok := m.events[b.EventID]; ok {
		c.Event = &models.EventSummary{ID: e.ID, Title: e.Title, Date: e.Date, Location: e.Location, TicketPrice: e.TicketPrice, Status: e.Status}
	}
	if u, ok := m.users[b.UserID]; ok {
		c.User = &models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return &c
}

func (m *memStore) activeQuantity(eventID int) int {
	total := 0
	for _, b := range m.bookings {
		if b.EventID == eventID && b.IsActive() {
			total += b.Quantity
		}
	}
	return total
}

type fakeUsers struct{ *memStore }

func (f fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.Email = models.NormalizeEmail(user.Email)
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.ID = f.id()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = copyUser(user)
	return nil
}

func (f fakeUsers) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f fakeUsers) GetByPasswordResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(time.Now()) {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f fakeUsers) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.User
	for _, u := range f.users {
		if filter.Role == "" || u.Role == filter.Role {
			matched = append(matched, copyUser(u))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (f fakeUsers) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return models.ErrUserNotFound
	}
	user.Email = models.NormalizeEmail(user.Email)
	for _, u := range f.users {
		if u.ID != user.ID && u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	f.users[user.ID] = copyUser(user)
	return nil
}

func (f fakeUsers) UpdateRole(ctx context.Context, id int, role models.UserRole) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	u.Role = role
	return copyUser(u), nil
}

func (f fakeUsers) SetPasswordResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	u.PasswordResetToken = &tokenHash
	u.PasswordResetExpires = &expires
	return nil
}

func (f fakeUsers) ResetPassword(ctx context.Context, id int, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func (f fakeUsers) Delete(ctx context.Context, id int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return 0, models.ErrUserNotFound
	}
	for _, e := range f.events {
		if e.OrganizerID == id {
			return 0, models.NewStateError("user still organizes events; delete them first")
		}
	}
	canceled := 0
	for _, b := range f.bookings {
		if b.UserID == id && b.IsActive() {
			b.Status = models.BookingCanceled
			if e, ok := f.events[b.EventID]; ok {
				e.RemainingTickets += b.Quantity
			}
			canceled++
		}
	}
	delete(f.users, id)
	return canceled, nil
}

type fakeEvents struct{ *memStore }

func (f fakeEvents) Create(ctx context.Context, req *models.EventCreateRequest, organizerID int) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	e := &models.Event{
		ID:               f.id(),
		Title:            req.Title,
		Description:      req.Description,
		Date:             req.Date,
		Location:         req.Location,
		Category:         req.Category,
		ImageURL:         req.ImageURL,
		TicketPrice:      req.TicketPrice,
		TotalTickets:     req.TotalTickets,
		RemainingTickets: req.TotalTickets,
		OrganizerID:      organizerID,
		Status:           models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.events[e.ID] = e
	return copyEvent(e), nil
}

func (f fakeEvents) GetByID(ctx context.Context, id int) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (f fakeEvents) List(ctx context.Context, filter models.EventFilter) ([]*models.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.Event
	for _, e := range f.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.OrganizerID > 0 && e.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, copyEvent(e))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.Before(matched[j].Date)
	})
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (f fakeEvents) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.events[event.ID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	booked := current.BookedTickets()
	if event.TotalTickets < booked {
		return nil, models.NewValidationError("total_tickets cannot be lower than the %d tickets already booked", booked)
	}
	updated := copyEvent(event)
	updated.Status = current.Status
	updated.RemainingTickets = current.RemainingTickets + (event.TotalTickets - current.TotalTickets)
	f.events[event.ID] = updated
	return copyEvent(updated), nil
}

func (f fakeEvents) UpdateStatus(ctx context.Context, id int, status models.EventStatus, reviewerID int) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	now := time.Now().UTC()
	e.Status = status
	e.ReviewedBy = &reviewerID
	e.ReviewedAt = &now
	return copyEvent(e), nil
}

func (f fakeEvents) SetImage(ctx context.Context, id int, imageURL string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	e.ImageURL = imageURL
	e.UpdatedAt = time.Now().UTC()
	return copyEvent(e), nil
}

func (f fakeEvents) Delete(ctx context.Context, id int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return 0, models.ErrEventNotFound
	}
	delete(f.events, id)
	canceled := 0
	for _, b := range f.bookings {
		if b.EventID == id && b.IsActive() {
			b.Status = models.BookingCanceled
			canceled++
		}
	}
	return canceled, nil
}

type fakeBookings struct{ *memStore }

func (f fakeBookings) Create(ctx context.Context, userID int, req *models.BookingCreateRequest) (*models.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return nil, false, err
	}
	if req.IdempotencyKey != "" {
		for _, b := range f.bookings {
			if b.UserID == userID && b.IdempotencyKey != nil && *b.IdempotencyKey == req.IdempotencyKey {
				return f.copyBooking(b), false, nil
			}
		}
	}

	e, ok := f.events[req.EventID]
	if !ok {
		return nil, false, models.ErrEventNotFound
	}
	if e.Status != models.StatusApproved {
		return nil, false, models.NewStateError("event is %s and not open for booking", e.Status)
	}
	if e.RemainingTickets < req.Quantity {
		return nil, false, models.NewCapacityError(e.RemainingTickets)
	}
	e.RemainingTickets -= req.Quantity

	b := &models.Booking{
		ID:         f.id(),
		UserID:     userID,
		EventID:    e.ID,
		Quantity:   req.Quantity,
		TotalPrice: models.RoundCents(e.TicketPrice * float64(req.Quantity)),
		Status:     models.BookingConfirmed,
		CreatedAt:  time.Now().UTC(),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		b.IdempotencyKey = &key
	}
	f.bookings[b.ID] = b
	return f.copyBooking(b), true, nil
}

func (f fakeBookings) GetByID(ctx context.Context, id int) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return f.copyBooking(b), nil
}

func (f fakeBookings) GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.UserID == userID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			return f.copyBooking(b), nil
		}
	}
	return nil, models.ErrBookingNotFound
}

func (f fakeBookings) list(match func(*models.Booking) bool) []*models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Booking{}
	for _, b := range f.bookings {
		if match(b) {
			result = append(result, f.copyBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}

func (f fakeBookings) ListByUser(ctx context.Context, userID int) ([]*models.Booking, error) {
	return f.list(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (f fakeBookings) ListByEvent(ctx context.Context, eventID int) ([]*models.Booking, error) {
	return f.list(func(b *models.Booking) bool { return b.EventID == eventID }), nil
}

func (f fakeBookings) Cancel(ctx context.Context, id int) (*models.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cancelErrs) > 0 {
		err := f.cancelErrs[0]
		f.cancelErrs = f.cancelErrs[1:]
		return nil, false, err
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, false, models.ErrBookingNotFound
	}
	if !b.IsActive() {
		return f.copyBooking(b), false, nil
	}
	e, ok := f.events[b.EventID]
	if !ok {
		return nil, false, models.ErrEventNotFound
	}
	now := time.Now().UTC()
	b.Status = models.BookingCanceled
	b.CanceledAt = &now
	e.RemainingTickets += b.Quantity
	if e.RemainingTickets > e.TotalTickets {
		e.RemainingTickets = e.TotalTickets
	}
	return f.copyBooking(b), true, nil
}

type fakeAnalytics struct{ *memStore }

func (f fakeAnalytics) EventAnalytics(ctx context.Context, filter repositories.AnalyticsFilter) ([]*models.EventAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.EventAnalytics
	for _, e := range f.events {
		if filter.OrganizerID > 0 && e.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.EventID > 0 && e.ID != filter.EventID {
			continue
		}
		a := &models.EventAnalytics{
			EventID:          e.ID,
			Title:            e.Title,
			Date:             e.Date,
			Status:           e.Status,
			OrganizerID:      e.OrganizerID,
			TicketPrice:      e.TicketPrice,
			TotalTickets:     e.TotalTickets,
			RemainingTickets: e.RemainingTickets,
		}
		for _, b := range f.bookings {
			if b.EventID == e.ID && b.IsActive() {
				a.BookedQuantity += b.Quantity
				a.ActiveBookings++
			}
		}
		a.Compute()
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EventID < result[j].EventID })
	return result, nil
}

type fakeAudit struct{ *memStore }

func (f fakeAudit) Create(ctx context.Context, req *models.AuditLogCreateRequest) (*models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := &models.AuditLog{
		ID:          f.id(),
		AdminUserID: req.AdminUserID,
		Action:      req.Action,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Details:     req.Details,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		CreatedAt:   time.Now().UTC(),
	}
	f.audit = append(f.audit, entry)
	return entry, nil
}

func (f fakeAudit) List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.AuditLog
	for i := len(f.audit) - 1; i >= 0; i-- {
		entry := f.audit[i]
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.TargetType != "" && entry.TargetType != filter.TargetType {
			continue
		}
		matched = append(matched, entry)
	}
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (f fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	actions := make([]string, len(f.audit))
	for i, entry := range f.audit {
		actions[i] = entry.Action
	}
	return actions
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	if items == nil {
		items = []T{}
	}
	return items
}

// mockNotifier records emails with testify/mock
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendWelcomeEmail(to, name string) error {
	args := m.Called(to, name)
	return args.Error(0)
}

func (m *mockNotifier) SendPasswordResetEmail(to, name, token string) error {
	args := m.Called(to, name, token)
	return args.Error(0)
}

func (m *mockNotifier) SendBookingConfirmation(to, name string, booking *models.Booking) error {
	args := m.Called(to, name, booking)
	return args.Error(0)
}

// testEnv wires every service to one memStore
type testEnv struct {
	store      *memStore
	notifier   *mockNotifier
	tokens     *TokenService
	auth       *AuthService
	audit      *AuditService
	events     *EventService
	moderation *EventModerationService
	bookings   *BookingService
	analytics  *AnalyticsService
	users      *UserService
}

// testHasher keeps argon2 cheap so auth tests stay fast
var testHasher = utils.NewPasswordHasher(utils.Argon2Params{MemoryKiB: 1024, Iterations: 1, Threads: 1})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	notifier := &mockNotifier{}
	notifier.On("SendWelcomeEmail", mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier.On("SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	tokens, err := NewTokenService("test-secret", "eventhub-test", 7*24*time.Hour)
	require.NoError(t, err)

	logger := discardLogger()
	audit := NewAuditService(fakeAudit{store}, logger)
	moderation := NewEventModerationService(fakeEvents{store}, audit, logger)
	retry := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}

	return &testEnv{
		store:      store,
		notifier:   notifier,
		tokens:     tokens,
		auth:       NewAuthService(fakeUsers{store}, tokens, testHasher, notifier, time.Hour, logger),
		audit:      audit,
		events:     NewEventService(fakeEvents{store}, moderation, audit, logger),
		moderation: moderation,
		bookings:   NewBookingService(fakeBookings{store}, fakeEvents{store}, notifier, retry, logger),
		analytics:  NewAnalyticsService(fakeAnalytics{store}, fakeEvents{store}),
		users:      NewUserService(fakeUsers{store}, audit, logger),
	}
}

var fixtureSeq int64

func (e *testEnv) addUser(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:         string(role) + " user",
		Email:        fmt.Sprintf("%s-%d@example.com", role, atomic.AddInt64(&fixtureSeq, 1)),
		PasswordHash: "unused",
		Role:         role,
	}
	require.NoError(t, fakeUsers{e.store}.Create(context.Background(), user))
	return user
}

func (e *testEnv) addEvent(t *testing.T, organizer *models.User, total int, price float64, status models.EventStatus) *models.Event {
	t.Helper()
	ctx := context.Background()
	event, err := fakeEvents{e.store}.Create(ctx, &models.EventCreateRequest{
		Title:        "Fixture Event",
		Description:  "Fixture",
		Date:         time.Now().Add(7 * 24 * time.Hour).UTC(),
		Location:     "Hall A",
		Category:     models.CategoryConcert,
		TicketPrice:  price,
		TotalTickets: total,
	}, organizer.ID)
	require.NoError(t, err)
	if status != models.StatusPending {
		event, err = fakeEvents{e.store}.UpdateStatus(ctx, event.ID, status, organizer.ID)
		require.NoError(t, err)
	}
	return event
}

func (e *testEnv) remaining(t *testing.T, eventID int) int {
	t.Helper()
	event, err := fakeEvents{e.store}.GetByID(context.Background(), eventID)
	require.NoError(t, err)
	require.Equal(t, event.TotalTickets-e.activeQuantity(eventID), event.RemainingTickets)
	return event.RemainingTickets
}

func (e *testEnv) activeQuantity(eventID int) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.activeQuantity(eventID)
}
