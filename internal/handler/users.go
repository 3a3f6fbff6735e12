package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avasile/snapvault/internal/api"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/model"
)

const minPasswordLength = 6

// Register handles POST /api/users -- creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	if body.Name == "" {
		api.BadRequest(w, "Add a name")
		return
	}
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		api.BadRequest(w, "Add an email")
		return
	}
	if len(body.Password) < minPasswordLength {
		api.BadRequest(w, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.DB.CreateUser(user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			api.Conflict(w, "Email already registered")
			return
		}
		api.ServerError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/users/login -- verifies credentials and issues a
// JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	user, err := h.DB.GetUserByEmail(email)
	if err != nil {
		// Same response for unknown email and wrong password.
		api.Unauthorized(w)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		api.Unauthorized(w)
		return
	}

	token, err := api.IssueToken(h.TokenAuth, user.ID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Me handles GET /api/users/me -- returns the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())
	user, err := h.DB.GetUser(userID)
	if err != nil {
		api.NotFound(w, "User not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, user)
}
