package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// MessageResponse is the body shape used for plain status and error
// responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON serialises resp as JSON and writes it to w with the given HTTP
// status code.
func WriteJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// WriteMessage writes a {"message": ...} body with the given status code.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}
