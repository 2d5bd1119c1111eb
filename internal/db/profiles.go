package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-memory/internal/types"
)

// LoadProfile retrieves a user's profile, or nil if none has been saved.
// The returned profile carries the stored version.
func (db *DB) LoadProfile(ctx context.Context, userID string) (*types.MemoryProfile, error) {
	var raw []byte
	var version int64
	err := db.pool.QueryRow(ctx,
		`SELECT profile, version FROM memory_profiles WHERE user_id = $1`,
		userID,
	).Scan(&raw, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile types.MemoryProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	profile.Version = version
	return &profile, nil
}

// SaveProfile writes profile if the stored version still equals profile.Version.
// Version 0 means the profile has never been saved. It returns the new version.
func (db *DB) SaveProfile(ctx context.Context, userID string, profile *types.MemoryProfile) (int64, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return 0, fmt.Errorf("failed to encode profile: %w", err)
	}

	var version int64
	if profile.Version == 0 {
		err = db.pool.QueryRow(ctx,
			`INSERT INTO memory_profiles (user_id, profile, version)
			 VALUES ($1, $2, 1)
			 ON CONFLICT (user_id) DO NOTHING
			 RETURNING version`,
			userID, raw,
		).Scan(&version)
	} else {
		err = db.pool.QueryRow(ctx,
			`UPDATE memory_profiles
			 SET profile = $2, version = version + 1, updated_at = NOW()
			 WHERE user_id = $1 AND version = $3
			 RETURNING version`,
			userID, raw, profile.Version,
		).Scan(&version)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &VersionConflictError{UserID: userID, Expected: profile.Version}
		}
		return 0, fmt.Errorf("failed to save profile: %w", err)
	}
	return version, nil
}
