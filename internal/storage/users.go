package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"
)

const userColumns = `
	id,
	external_chat_id,
	COALESCE(first_name, '') AS first_name,
	COALESCE(last_name, '') AS last_name,
	COALESCE(phone, '') AS phone,
	created_at,
	last_active,
	activity_count,
	is_blocked`

// NormalizePhone keeps digits only; Uzbek numbers with the 998 country code collapse
// to the nine-digit subscriber number.
func NormalizePhone(value string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
	if strings.HasPrefix(digits, "998") && len(digits) >= 12 {
		return digits[len(digits)-9:]
	}
	return digits
}

// UpsertUser records a chat user on first contact and refreshes names afterwards.
func (s *Storage) UpsertUser(ctx context.Context, chatID int64, firstName, lastName string) (User, error) {
	const operation = "storage.UpsertUser"

	now := s.stamp()
	query := s.db.Rebind(`
		INSERT INTO users (external_chat_id, first_name, last_name, created_at, last_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (external_chat_id) DO UPDATE
		SET first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_active = excluded.last_active`)

	if _, err := s.db.ExecContext(ctx, query, chatID, nullString(firstName), nullString(lastName), now, now); err != nil {
		return User{}, fmt.Errorf("%s: %w", operation, err)
	}
	return s.UserByChatID(ctx, chatID)
}

func (s *Storage) UserByChatID(ctx context.Context, chatID int64) (User, error) {
	const operation = "storage.UserByChatID"

	var u User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE external_chat_id = ?`)
	if err := s.db.GetContext(ctx, &u, query, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%s: %w", operation, err)
	}
	return u, nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (User, error) {
	const operation = "storage.UserByID"

	var u User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%s: %w", operation, err)
	}
	return u, nil
}

// FindUserByPhone compares normalized numbers, so "+998 90 123-45-67" finds
// "901234567".
func (s *Storage) FindUserByPhone(ctx context.Context, phone string) (User, error) {
	const operation = "storage.FindUserByPhone"

	want := NormalizePhone(phone)
	if want == "" {
		return User{}, ErrUserNotFound
	}

	var users []User
	query := `SELECT ` + userColumns + ` FROM users WHERE phone IS NOT NULL AND phone <> '' ORDER BY id`
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return User{}, fmt.Errorf("%s: %w", operation, err)
	}
	for _, u := range users {
		if NormalizePhone(u.Phone) == want {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *Storage) SetUserPhone(ctx context.Context, chatID int64, phone string) error {
	const operation = "storage.SetUserPhone"

	query := s.db.Rebind(`UPDATE users SET phone = ? WHERE external_chat_id = ?`)
	res, err := s.db.ExecContext(ctx, query, phone, chatID)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// TouchUser bumps last_active and the activity counter.
func (s *Storage) TouchUser(ctx context.Context, chatID int64) error {
	const operation = "storage.TouchUser"

	query := s.db.Rebind(`
		UPDATE users
		SET last_active = ?,
			activity_count = COALESCE(activity_count, 0) + 1
		WHERE external_chat_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, s.stamp(), chatID); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// CreateWalkInUser stores a customer entered by an admin. Walk-ins have no chat
// identity.
func (s *Storage) CreateWalkInUser(ctx context.Context, name, phone string) (int64, error) {
	id, err := s.insertWalkIn(ctx, s.db, name, phone)
	if err != nil {
		return 0, fmt.Errorf("storage.CreateWalkInUser: %w", err)
	}
	return id, nil
}

func (s *Storage) insertWalkIn(ctx context.Context, q sqlx.QueryerContext, name, phone string) (int64, error) {
	now := s.stamp()
	query := s.db.Rebind(`
		INSERT INTO users (external_chat_id, first_name, phone, created_at, last_active)
		VALUES (NULL, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err := q.QueryRowxContext(ctx, query, name, phone, now, now).Scan(&id)
	return id, err
}

func (s *Storage) SetUserBlocked(ctx context.Context, userID int64, blocked bool) error {
	const operation = "storage.SetUserBlocked"

	query := s.db.Rebind(`UPDATE users SET is_blocked = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, boolToInt(blocked), userID)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IsBlocked is false for unknown chats.
func (s *Storage) IsBlocked(ctx context.Context, chatID int64) (bool, error) {
	const operation = "storage.IsBlocked"

	var blocked bool
	query := s.db.Rebind(`SELECT is_blocked FROM users WHERE external_chat_id = ?`)
	if err := s.db.GetContext(ctx, &blocked, query, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", operation, err)
	}
	return blocked, nil
}

// BroadcastRecipients lists chat ids of every user that can receive messages.
func (s *Storage) BroadcastRecipients(ctx context.Context) ([]int64, error) {
	const operation = "storage.BroadcastRecipients"

	var ids []int64
	query := `SELECT external_chat_id FROM users WHERE external_chat_id IS NOT NULL AND external_chat_id > 0 ORDER BY id`
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return ids, nil
}
