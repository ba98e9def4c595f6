//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/klarwerk/zielbord/internal/auth"
	"github.com/klarwerk/zielbord/internal/database"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/okr"
	"github.com/klarwerk/zielbord/pkg/config"
	"github.com/klarwerk/zielbord/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" {
		email = "admin@klarwerk.example"
	}
	if password == "" {
		password = "admin123!"
	}
	if name == "" {
		name = "Admin"
	}

	ctx := context.Background()

	resp, err := authService.Register(ctx, auth.RegisterInput{
		Email:      email,
		Password:   password,
		Name:       name,
		Department: "Operations",
	})
	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	admin := resp.User
	if err := db.Model(admin).Update("role", models.RoleAdmin).Error; err != nil {
		log.Fatalf("failed to promote admin: %v", err)
	}

	quarter := okr.CurrentQuarter(time.Now())
	demoOKR := models.OKR{
		UserID:         admin.ID,
		OrganizationID: admin.OrganizationID,
		Title:          "Onboarding-Zeit halbieren",
		Quarter:        quarter,
		Category:       "people",
		Status:         models.OKRStatusOnTrack,
		IsActive:       true,
		IsFocus:        true,
	}
	if err := db.Create(&demoOKR).Error; err != nil {
		log.Fatalf("failed to seed OKR: %v", err)
	}

	course := models.Course{
		OrganizationID: admin.OrganizationID,
		Title:          "OKR-Grundlagen",
		Description:    "Einführung in Zielsetzung und Check-ins",
		Category:       "methodik",
		IsActive:       true,
	}
	if err := db.Create(&course).Error; err != nil {
		log.Fatalf("failed to seed course: %v", err)
	}
	for i, title := range []string{"Was sind OKRs?", "Key Results formulieren", "Check-in-Routine"} {
		module := models.CourseModule{CourseID: course.ID, Title: title, OrderIndex: i}
		if err := db.Create(&module).Error; err != nil {
			log.Fatalf("failed to seed module: %v", err)
		}
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("Quarter: %s\n", quarter)
	fmt.Printf("Token: %s\n", resp.Token)
}
