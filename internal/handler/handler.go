package handler

import (
	"github.com/go-chi/jwtauth/v5"

	"github.com/avasile/snapvault/internal/config"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/storage"
	"github.com/avasile/snapvault/internal/transform"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	DB        database.Database
	Store     storage.ObjectStore
	Transform *transform.Service
	Config    *config.Config
	TokenAuth *jwtauth.JWTAuth

	// Files is set when the filesystem object store is active; it backs
	// the signed /files/ delivery route.
	Files *storage.FileSystem
}
