package datastore

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/achievement-hub/api/models"
)

type UserRepository interface {
	Create(user models.User) (models.User, error)
	Get(userID string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	ValidateAndGetUser(userLogin models.Credentials) (models.User, error)
}

type NoRowsError struct {
	NoRows bool
	Err    error
}

func (nr NoRowsError) Error() string {
	return fmt.Sprintf("%v: no rows returned for scan: %v", nr.NoRows, nr.Err)
}

// IsNoRows reports whether err is the datastore's no-rows marker.
func IsNoRows(err error) bool {
	_, ok := err.(NoRowsError)
	return ok
}

type UserDatabase struct {
	database *sql.DB
}

func NewUserDatabase(db *sql.DB) (UserDatabase, error) {
	var userDB UserDatabase
	userDB.database = db
	return userDB, nil
}

func (pgdb UserDatabase) Create(user models.User) (models.User, error) {
	db := pgdb.database

	_, insertErr := db.Exec(`
		INSERT INTO users (
			user_id,
			email,
			password_hash,
			kind,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.UserID,
		user.Email,
		user.HashedPassword,
		user.Kind,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if insertErr != nil {
		return user, insertErr
	}

	return user, nil
}

func (pgdb UserDatabase) Get(userID string) (models.User, error) {
	db := pgdb.database

	sqlStatement := `
	SELECT
		user_id,
		email,
		password_hash,
		kind,
		created_at,
		updated_at
	FROM users
	WHERE user_id=$1;`

	row := db.QueryRow(sqlStatement, userID)

	var user models.User
	scanErr := row.Scan(
		&user.UserID,
		&user.Email,
		&user.HashedPassword,
		&user.Kind,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	switch scanErr {
	case sql.ErrNoRows:
		return models.User{}, NoRowsError{true, scanErr}
	case nil:
		return user, nil
	default:
		return models.User{}, scanErr
	}
}

func (pgdb UserDatabase) GetUserByEmail(email string) (models.User, error) {
	db := pgdb.database

	sqlStatement := `
	SELECT
		user_id,
		email,
		password_hash,
		kind,
		created_at,
		updated_at
	FROM users
	WHERE email=$1;`

	row := db.QueryRow(sqlStatement, email)

	var user models.User
	scanErr := row.Scan(
		&user.UserID,
		&user.Email,
		&user.HashedPassword,
		&user.Kind,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	switch scanErr {
	case sql.ErrNoRows:
		return models.User{}, NoRowsError{true, scanErr}
	case nil:
		return user, nil
	default:
		return models.User{}, scanErr
	}
}

func (pgdb UserDatabase) ValidateAndGetUser(userLogin models.Credentials) (models.User, error) {
	user, getUserErr := pgdb.GetUserByEmail(userLogin.Email)
	if getUserErr != nil {
		return models.User{}, fmt.Errorf("could not find user with email %v", userLogin.Email)
	}

	compareErr := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(userLogin.Password))
	if compareErr != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}

	return user, nil
}
