package identity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrResidentNotFound = errors.New("resident not found")

const (
	RoleResident = "resident"
	RoleAdmin    = "admin"
)

// Resident is a building member. Address is the wallet-equivalent
// principal every booking and refund is keyed by; it is minted once at
// registration and never changes.
type Resident struct {
	ID           int       `db:"id" json:"id"`
	Address      string    `db:"address" json:"address"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewAddress mints a fresh 20-byte hex principal.
func NewAddress() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(raw), nil
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, address, name, email, passwordHash, role string) (*Resident, error) {
	query := `
		INSERT INTO residents (address, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, address, name, email, password_hash, role, created_at
	`

	var resident Resident
	err := r.db.GetContext(ctx, &resident, query, address, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &resident, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Resident, error) {
	query := `
		SELECT id, address, name, email, password_hash, role, created_at
		FROM residents
		WHERE email = $1
	`

	var resident Resident
	err := r.db.GetContext(ctx, &resident, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResidentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &resident, nil
}

func (r *Repository) FindByAddress(ctx context.Context, address string) (*Resident, error) {
	query := `
		SELECT id, address, name, email, password_hash, role, created_at
		FROM residents
		WHERE address = $1
	`

	var resident Resident
	err := r.db.GetContext(ctx, &resident, query, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResidentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &resident, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM residents WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}
