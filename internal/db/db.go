package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chats (
            id SERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            emergency_active BOOLEAN NOT NULL DEFAULT FALSE,
            emergency_initiator_id INT,
            emergency_activated_at TIMESTAMPTZ
        );`,
		`CREATE TABLE IF NOT EXISTS chat_participants (
            chat_id INT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            supervisor_id INT,
            external_id TEXT,
            email TEXT,
            PRIMARY KEY(chat_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            chat_id INT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            sender_id INT NOT NULL,
            kind TEXT NOT NULL DEFAULT 'text',
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		// RESTRICT: chats referenced by an emergency are never deleted.
		`CREATE TABLE IF NOT EXISTS emergencies (
            id SERIAL PRIMARY KEY,
            chat_id INT NOT NULL REFERENCES chats(id) ON DELETE RESTRICT,
            type TEXT NOT NULL,
            made_by_user INT NOT NULL,
            raised_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS emergency_resolvers (
            emergency_id INT NOT NULL REFERENCES emergencies(id) ON DELETE CASCADE,
            supervisor_id INT NOT NULL,
            PRIMARY KEY(emergency_id, supervisor_id)
        );`,
		`CREATE TABLE IF NOT EXISTS emergency_resolutions (
            emergency_id INT NOT NULL REFERENCES emergencies(id) ON DELETE CASCADE,
            supervisor_id INT NOT NULL,
            resolved_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(emergency_id, supervisor_id)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
