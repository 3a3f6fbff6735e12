package database

import (
	"errors"

	"github.com/avasile/snapvault/internal/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail is returned when a user registration reuses an email.
var ErrDuplicateEmail = errors.New("email already registered")

// Database defines the persistence interface for users and image metadata.
type Database interface {
	// Users
	CreateUser(u *model.User) error
	GetUser(id string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)

	// Images. All image lookups are scoped by the owning user: a record
	// owned by another user behaves exactly like a missing record.
	CreateImage(img *model.Image) error
	GetImage(imageID, userID string) (*model.Image, error)
	ListImages(userID string, page, perPage int) ([]*model.Image, int, error)
	UpdateImage(img *model.Image) error
	DeleteImage(imageID, userID string) error

	Close() error
}
