package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown accounts, banned accounts and wrong
// passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AccountRow struct {
	Name         string
	PasswordHash string
	AccessLevel  int16
	IP           string
	Banned       bool
	Online       bool
	CreatedAt    time.Time
	LastActive   *time.Time
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Load(ctx context.Context, name string) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, password_hash, access_level, COALESCE(ip,''), banned, online, created_at, last_active
		 FROM accounts WHERE name = $1`, name,
	).Scan(
		&row.Name, &row.PasswordHash, &row.AccessLevel, &row.IP,
		&row.Banned, &row.Online, &row.CreatedAt, &row.LastActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Authenticate checks a login against the stored bcrypt hash and returns
// the account's access level.
func (r *AccountRepo) Authenticate(ctx context.Context, name, rawPassword string) (int16, error) {
	row, err := r.Load(ctx, name)
	if err != nil {
		return 0, err
	}
	if row == nil || row.Banned || !ValidatePassword(row.PasswordHash, rawPassword) {
		return 0, ErrInvalidCredentials
	}
	return row.AccessLevel, nil
}

func ValidatePassword(hash string, rawPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}
