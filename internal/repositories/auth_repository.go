package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kasir_pos_backend/internal/models"

	"github.com/lib/pq"
)

// AuthRepository defines the interface for user account storage.
type AuthRepository interface {
	CreateUser(user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
	GetUsers() ([]models.User, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new PostgreSQL-backed AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const selectUserFields = `id, username, full_name, role, is_active, created_at, updated_at`

func (r *authRepository) CreateUser(user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	var userID int64
	err := r.db.QueryRow(query,
		user.Username, hashedPassword, user.FullName, user.Role, true,
		currentTime, currentTime,
	).Scan(&userID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: username '%s'", ErrDuplicateKey, user.Username)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return userID, nil
}

func (r *authRepository) FindUserByUsername(username string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string

	query := `SELECT id, username, password_hash, full_name, role, is_active, created_at, updated_at
	          FROM users WHERE username = $1`
	err := r.db.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &hashedPassword, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, hashedPassword, nil
}

func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	query := "SELECT " + selectUserFields + " FROM users WHERE id = $1"
	err := r.db.QueryRow(query, userID).Scan(
		&user.ID, &user.Username, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func (r *authRepository) GetUsers() ([]models.User, error) {
	rows, err := r.db.Query("SELECT " + selectUserFields + " FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Username, &user.FullName,
			&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}
