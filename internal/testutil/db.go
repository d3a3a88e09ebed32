// Package testutil provides an in-memory store and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skillswipe/internal/database"
)

// NewDB opens an isolated sqlite memory database with the full schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db), "migrate")
	return db
}

// CreateUser inserts an active user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, role database.Role, mutate ...func(*database.User)) database.User {
	t.Helper()
	name := string(role) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	user := database.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Status:       database.UserActive,
	}
	for _, m := range mutate {
		m(&user)
	}
	require.NoError(t, db.Create(&user).Error, "create user")
	return user
}

// CreateDeveloper inserts a developer user with a profile.
func CreateDeveloper(t *testing.T, db *gorm.DB, mutate ...func(*database.DeveloperProfile)) (database.User, database.DeveloperProfile) {
	t.Helper()
	user := CreateUser(t, db, database.RoleDeveloper)
	profile := database.DeveloperProfile{
		UserID:          user.ID,
		Name:            "Dev " + user.Username,
		CurrentLocation: "Berlin",
		ExperienceYears: IntPtr(3),
		TopLanguages:    datatypes.JSONSlice[string]{"go"},
	}
	for _, m := range mutate {
		m(&profile)
	}
	require.NoError(t, db.Create(&profile).Error, "create developer profile")
	return user, profile
}

// CreateCompany inserts a company user, a company profile and an admin membership.
func CreateCompany(t *testing.T, db *gorm.DB, mutate ...func(*database.CompanyProfile)) (database.User, database.CompanyProfile) {
	t.Helper()
	owner := CreateUser(t, db, database.RoleCompany)
	company := database.CompanyProfile{
		CreatedByID: owner.ID,
		Name:        "Company " + owner.Username,
		About:       "We build things",
		Location:    "Berlin",
	}
	for _, m := range mutate {
		m(&company)
	}
	require.NoError(t, db.Create(&company).Error, "create company")
	AddMember(t, db, company, owner, database.MemberAdmin)
	return owner, company
}

// AddMember links a user to a company.
func AddMember(t *testing.T, db *gorm.DB, company database.CompanyProfile, user database.User, role database.MemberRole) database.CompanyMember {
	t.Helper()
	member := database.CompanyMember{UserID: user.ID, CompanyID: company.ID, Role: role}
	require.NoError(t, db.Create(&member).Error, "create member")
	return member
}

// CreateJob inserts an active job owned by company and created by creator.
func CreateJob(t *testing.T, db *gorm.DB, company database.CompanyProfile, creator database.User, mutate ...func(*database.JobPosting)) database.JobPosting {
	t.Helper()
	job := database.JobPosting{
		CompanyID:   company.ID,
		CreatedByID: creator.ID,
		Title:       "Backend Engineer",
		Description: strings.Repeat("Build and run services. ", 4),
		JobType:     database.JobFullTime,
		WorkMode:    database.WorkRemote,
		TechStack:   datatypes.JSONSlice[string]{"go"},
		Location:    "Berlin",
		Status:      database.JobActive,
	}
	for _, m := range mutate {
		m(&job)
	}
	require.NoError(t, db.Create(&job).Error, "create job")
	return job
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
