package main

import (
	"os"
	"strings"

	"academic-auth-be/internal/config"
	"academic-auth-be/internal/model"
	"academic-auth-be/pkg/database"
	"academic-auth-be/pkg/provider/fixture"

	"github.com/fatih/color"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.DefaultOptions(true))
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Seeding institutions...")
	stanford := SeedInstitutions(db)

	color.Cyan("Seeding demo accounts...")
	SeedUsers(db, stanford)

	color.Cyan("Seeding notification types...")
	SeedNotificationTypes(db)

	color.Green("✅ Seeding completed")
}

// SeedInstitutions creates every institution of the catalog and returns
// the demo institution.
func SeedInstitutions(db *gorm.DB) *model.Institution {
	catalog, err := fixture.New()
	if err != nil {
		color.Red("Error: fixtures: %v", err)
		os.Exit(1)
	}

	var demo *model.Institution
	for _, opt := range catalog.Institutions() {
		inst := model.Institution{
			Code:               opt.Value,
			Name:               opt.Label,
			Type:               "Private Research University",
			EmailNotifications: true,
			ProcessingDays:     3,
		}
		if opt.Value == "stanford" {
			inst.EstablishedYear = 1885
			inst.Accreditation = "WASC Senior College and University Commission"
			inst.Website = "https://www.stanford.edu"
			inst.Email = "registrar@stanford.edu"
			inst.Phone = "+1 (650) 723-2300"
			inst.RegistrarName = "Dr. Michael Chen"
			inst.RegistrarEmail = "registrar@stanford.edu"
			inst.AddressStreet = "450 Jane Stanford Way"
			inst.AddressCity = "Stanford"
			inst.AddressState = "CA"
			inst.AddressZipCode = "94305"
			inst.AutoApprove = true
		}
		if err := db.Where("code = ?", inst.Code).FirstOrCreate(&inst).Error; err != nil {
			color.Red("  ✗ institution %s: %v", inst.Code, err)
			continue
		}
		color.Green("  ✓ institution %s", inst.Name)
		if inst.Code == "stanford" {
			i := inst
			demo = &i
		}
	}
	return demo
}

// SeedUsers creates a demo student and a registrar account for the demo
// institution. SEED_PASSWORD sets their password.
func SeedUsers(db *gorm.DB, inst *model.Institution) {
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "ChangeMe123!"
		color.Yellow("  ! SEED_PASSWORD not set, using the default demo password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		color.Red("Error: hash password: %v", err)
		return
	}

	users := []model.User{
		{
			Email:          "sarah.johnson@stanford.edu",
			PasswordHash:   string(hash),
			FirstName:      "Sarah",
			LastName:       "Johnson",
			Phone:          "+1 (555) 123-4567",
			StudentID:      "STU-2024-001",
			Institution:    "Stanford University",
			Program:        "Computer Science",
			GraduationYear: 2024,
			Role:           "student",
		},
	}
	if inst != nil {
		id := inst.Id
		users = append(users, model.User{
			Email:         inst.RegistrarEmail,
			PasswordHash:  string(hash),
			FirstName:     "Michael",
			LastName:      "Chen",
			Institution:   inst.Name,
			Role:          "institution_admin",
			InstitutionId: &id,
		})
	}

	for _, u := range users {
		u.Email = strings.ToLower(u.Email)
		if err := db.Where("email = ?", u.Email).FirstOrCreate(&u).Error; err != nil {
			color.Red("  ✗ user %s: %v", u.Email, err)
			continue
		}
		color.Green("  ✓ %s %s (%s)", u.Role, u.Email, u.Id)
	}
}
