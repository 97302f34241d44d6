package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/logging"
	"storefront/internal/models"
)

// AdminSeed describes the single admin identity taken from configuration.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

func (s AdminSeed) configured() bool {
	return strings.TrimSpace(s.Email) != "" && s.Password != ""
}

// NewAdminProfile builds the profile document for the configured admin.
func NewAdminProfile(seed AdminSeed, now time.Time) (models.Profile, error) {
	if !seed.configured() {
		return models.Profile{}, errors.New("admin email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Profile{}, err
	}
	return models.Profile{
		Email:        strings.ToLower(strings.TrimSpace(seed.Email)),
		Name:         strings.TrimSpace(seed.Name),
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SeedAdmin inserts the configured admin once. An existing profile with the
// same email is left untouched.
func SeedAdmin(ctx context.Context, db *mongo.Database, seed AdminSeed) error {
	if !seed.configured() {
		logging.Info().Msg("admin seed skipped: ADMIN_EMAIL/ADMIN_PASSWORD not set")
		return nil
	}

	profiles := db.Collection(ProfilesCollection)
	email := strings.ToLower(strings.TrimSpace(seed.Email))

	count, err := profiles.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Debug().Str("email", email).Msg("admin already seeded")
		return nil
	}

	admin, err := NewAdminProfile(seed, time.Now())
	if err != nil {
		return err
	}
	if _, err := profiles.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}

	logging.Info().Str("email", email).Msg("admin profile seeded")
	return nil
}
