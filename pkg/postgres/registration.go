package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/db"
)

const registrationColumns = `id, submitted_at, character, class, discord_user, realm, role,
	item_level, rating, highest_key, key_range, notes`

func scanRegistration(row pgx.Row) (db.RegistrationRow, error) {
	var r db.RegistrationRow
	var id int64
	err := row.Scan(&id, &r.Timestamp, &r.Character, &r.Class, &r.DiscordUser, &r.Realm, &r.Role,
		&r.ItemLevel, &r.Rating, &r.HighestKey, &r.KeyRange, &r.Notes)
	r.Index = int(id)
	return r, err
}

// FindByUser returns the earliest registration in the active sheet owned by userID
func (d *DB) FindByUser(ctx context.Context, userID string) (*db.Registration, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+registrationColumns+`
		FROM registration
		WHERE sheet = $1 AND discord_user = $2
		ORDER BY id
		LIMIT 1
	`, d.active.Name(), userID)

	r, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return &r.Registration, nil
}

// Append inserts a registration into the active sheet
func (d *DB) Append(ctx context.Context, reg *db.Registration) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO registration (sheet, submitted_at, character, class, discord_user, realm, role,
			item_level, rating, highest_key, key_range, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, d.active.Name(), reg.Timestamp, reg.Character, reg.Class, reg.DiscordUser, reg.Realm, reg.Role,
		reg.ItemLevel, reg.Rating, reg.HighestKey, reg.KeyRange, reg.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// ListRegistrations returns the active sheet in insertion order. Index is the row id.
func (d *DB) ListRegistrations(ctx context.Context) ([]db.RegistrationRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+registrationColumns+`
		FROM registration
		WHERE sheet = $1
		ORDER BY id
	`, d.active.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var result []db.RegistrationRow
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrations: %w", err)
	}

	return result, nil
}

// UpdateStats overwrites the stat columns of row id index. Empty values keep the stored value.
func (d *DB) UpdateStats(ctx context.Context, index int, stats model.CharacterStats) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE registration SET
			item_level = COALESCE(NULLIF($2, ''), item_level),
			rating = COALESCE(NULLIF($3, ''), rating),
			highest_key = COALESCE(NULLIF($4, ''), highest_key)
		WHERE id = $1
	`, int64(index), stats.ItemLevel, stats.Rating, stats.HighestKey)
	if err != nil {
		return fmt.Errorf("failed to update registration stats: %w", err)
	}
	return nil
}
