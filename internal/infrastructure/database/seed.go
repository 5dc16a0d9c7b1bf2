package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Reset empties every table. It is the only hard delete in the system.
func Reset(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `TRUNCATE messages, conversations, sessions, profiles, locations CASCADE`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

type demoProfile struct {
	name     string
	offset   int
	details  domain.Details
	location *domain.Location
	roommate bool
}

func demoProfiles() []demoProfile {
	nyc := &domain.Location{Country: "USA", State: "NY", City: "New York", BoroughDistrict: "Manhattan"}
	brooklyn := &domain.Location{Country: "USA", State: "NY", City: "New York", BoroughDistrict: "Brooklyn"}
	sf := &domain.Location{Country: "USA", State: "CA", City: "San Francisco"}
	boston := &domain.Location{Country: "USA", State: "MA", City: "Boston"}
	chicago := &domain.Location{Country: "USA", State: "IL", City: "Chicago", BoroughDistrict: "Loop"}
	seattle := &domain.Location{Country: "USA", State: "WA", City: "Seattle"}
	london := &domain.Location{Country: "United Kingdom", City: "London"}

	return []demoProfile{
		{name: "Ada Okafor", details: domain.WorkDetails{Company: "Google", Title: "Software Engineer", Industry: "technology"}, location: nyc, roommate: true},
		{name: "Ben Alvarez", details: domain.WorkDetails{Company: "google", Title: "Product Manager", Industry: "technology"}, location: sf},
		{name: "Chloe Park", details: domain.WorkDetails{Company: "Goldman Sachs", Title: "Analyst", Industry: "finance"}, location: brooklyn, roommate: true},
		{name: "Dev Patel", details: domain.SchoolDetails{School: "MIT", Program: "PhD", Discipline: "Computer Science"}, location: boston},
		{name: "Emma Rossi", details: domain.SchoolDetails{School: "Harvard Law School", Program: "JD"}, location: boston, roommate: true},
		{name: "Farah Haddad", details: domain.WorkDetails{Company: "McKinsey", Title: "Business Analyst", Industry: "consulting"}, location: chicago},
		{name: "Gabe Lindqvist", details: domain.SeekingDetails{}},
		{name: "Hana Suzuki", details: domain.WorkDetails{Company: "Amazon", Title: "Data Scientist", Industry: "technology"}, location: seattle},
		{name: "Ivan Petrov", details: domain.SchoolDetails{School: "Oxford", Program: "MPhil", Discipline: "Economics"}, location: london},
		{name: "Jade Thompson", offset: 1, details: domain.WorkDetails{Internship: true, Company: "Stripe", Title: "Engineering Intern", Industry: "technology"}, location: sf},
		{name: "Kofi Mensah", offset: 1, details: domain.WorkDetails{Internship: true, Company: "GOOGLE", Title: "SWE Intern", Industry: "technology"}, location: nyc},
		{name: "Lena Fischer", offset: 2, details: domain.SeekingDetails{}},
	}
}

// SeedDemo inserts a small graduating class for local development.
func SeedDemo(ctx context.Context, db *sqlx.DB, currentYear int, logger *zap.Logger) error {
	profiles := postgres.NewProfileRepository(db)
	locations := postgres.NewLocationRepository(db)
	tx := postgres.NewTransactor(db)

	return tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, d := range demoProfiles() {
			handle := strings.ToLower(strings.ReplaceAll(d.name, " ", "."))
			p := domain.NewProfile(d.name, handle+"@flock.edu", nil)
			year := currentYear + d.offset
			p.ClassYear = &year
			p.Details = d.details
			p.LookingForRoommate = d.roommate
			p.IsOnboarded = true
			p.OnboardingStep = domain.StepComplete

			if d.location != nil {
				loc := *d.location
				agg, err := locations.Upsert(ctx, loc)
				if err != nil {
					return fmt.Errorf("failed to seed location: %w", err)
				}
				p.Location = &loc
				p.LocationID = &agg.ID
			}
			if err := p.Validate(); err != nil {
				return fmt.Errorf("invalid demo profile %q: %w", d.name, err)
			}
			if err := profiles.Create(ctx, p); err != nil {
				return fmt.Errorf("failed to seed profile: %w", err)
			}
			logger.Debug("Seeded profile", zap.String("name", p.Name), zap.Int("class_year", year))
		}
		return nil
	})
}
