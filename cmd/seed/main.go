package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/database"
	"eventhub/internal/models"
	"eventhub/internal/repositories"
	"eventhub/internal/utils"
)

type sampleEvent struct {
	title       string
	description string
	category    models.Category
	location    string
	daysAhead   int
	price       float64
	tickets     int
}

var sampleEvents = []sampleEvent{
	{
		title:       "Tech Innovation Summit",
		description: "A day of talks, startup showcases and hands-on workshops on where technology is heading.",
		category:    models.CategoryConference,
		location:    "Convention Center, Hall A",
		daysAhead:   45,
		price:       150,
		tickets:     300,
	},
	{
		title:       "Summer Jazz Night",
		description: "Live jazz under the stars with food trucks and a local big band.",
		category:    models.CategoryConcert,
		location:    "Riverside Amphitheater",
		daysAhead:   20,
		price:       35,
		tickets:     500,
	},
	{
		title:       "City Marathon",
		description: "Full and half marathon routes through the old town. Registration includes a finisher medal.",
		category:    models.CategorySports,
		location:    "Central Park Start Line",
		daysAhead:   60,
		price:       40,
		tickets:     2000,
	},
	{
		title:       "Hamlet",
		description: "A modern staging of the classic tragedy by the city repertory company.",
		category:    models.CategoryTheater,
		location:    "Royal Theater",
		daysAhead:   14,
		price:       55.5,
		tickets:     220,
	},
	{
		title:       "Street Food Festival",
		description: "Two days of street food, craft stalls and live music.",
		category:    models.CategoryFestival,
		location:    "Harbor Square",
		daysAhead:   30,
		price:       0,
		tickets:     1500,
	},
}

func main() {
	var (
		email    = flag.String("organizer", "organizer@example.com", "Email of the organizer owning the sample events")
		password = flag.String("password", "organizer123", "Password used when the organizer has to be created")
		adminID  = flag.Int("reviewer", 0, "ID of the admin recorded as reviewer (0 leaves events pending)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(database.ConfigFrom(cfg.Database))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	userRepo := repositories.NewUserRepository(db.DB)
	eventRepo := repositories.NewEventRepository(db.DB)

	hasher := utils.NewPasswordHasher(cfg.Auth.PasswordParams())
	organizer, err := findOrCreateOrganizer(ctx, userRepo, hasher, *email, *password)
	if err != nil {
		log.Fatal(err)
	}

	for _, sample := range sampleEvents {
		date := time.Now().UTC().AddDate(0, 0, sample.daysAhead).Truncate(time.Hour).Add(19 * time.Hour)
		event, err := eventRepo.Create(ctx, &models.EventCreateRequest{
			Title:        sample.title,
			Description:  sample.description,
			Date:         date,
			Location:     sample.location,
			Category:     sample.category,
			TicketPrice:  sample.price,
			TotalTickets: sample.tickets,
		}, organizer.ID)
		if err != nil {
			log.Fatalf("Failed to create event %q: %v", sample.title, err)
		}

		if *adminID > 0 {
			if event, err = eventRepo.UpdateStatus(ctx, event.ID, models.StatusApproved, *adminID); err != nil {
				log.Fatalf("Failed to approve event %q: %v", sample.title, err)
			}
		}
		fmt.Printf("Created event %d: %s (%s)\n", event.ID, event.Title, event.Status)
	}
}

func findOrCreateOrganizer(ctx context.Context, users *repositories.UserRepository, hasher *utils.PasswordHasher, email, password string) (*models.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if err == nil {
		if !user.CanCreateEvents() {
			return nil, fmt.Errorf("user %s is a %s and cannot own events", email, user.Role)
		}
		fmt.Printf("Using existing organizer %s (ID %d)\n", user.Email, user.ID)
		return user, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up organizer: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user = &models.User{
		Name:         "Sample Organizer",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleOrganizer,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create organizer: %w", err)
	}
	fmt.Printf("Created organizer %s (ID %d)\n", user.Email, user.ID)
	return user, nil
}
