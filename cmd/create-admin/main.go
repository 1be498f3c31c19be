package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/database"
	"eventhub/internal/models"
	"eventhub/internal/repositories"
	"eventhub/internal/utils"
)

func main() {
	var (
		email    = flag.String("email", "admin@example.com", "Administrator email")
		name     = flag.String("name", "Admin User", "Administrator name")
		password = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Administrator password (defaults to $ADMIN_PASSWORD)")
	)
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal("A password of at least 6 characters is required (-password or ADMIN_PASSWORD)")
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := repositories.NewUserRepository(db.DB)

	passwordHash, err := utils.NewPasswordHasher(cfg.Auth.PasswordParams()).Hash(*password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	existing, err := userRepo.GetByEmail(ctx, *email)
	switch {
	case err == nil:
		if err := userRepo.ResetPassword(ctx, existing.ID, passwordHash); err != nil {
			log.Fatal("Failed to update admin password:", err)
		}
		if _, err := userRepo.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			log.Fatal("Failed to promote user:", err)
		}
		fmt.Printf("Existing user %d promoted to admin and password updated\n", existing.ID)
		return
	case !errors.Is(err, models.ErrUserNotFound):
		log.Fatal("Failed to look up user:", err)
	}

	admin := &models.User{
		Name:         *name,
		Email:        *email,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatal("Failed to create admin user:", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("User ID: %d\n", admin.ID)
}
