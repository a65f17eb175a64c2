package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/services/auth"
)

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type RegisterResponse struct {
	User  userResponse  `json:"user"`
	Token tokenResponse `json:"token"`
}

func (s *APIServer) registerHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, msgMalformed)
			return
		}

		user, token, err := s.auth.Register(r.Context(), auth.RegisterInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
		})
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			User:  newUserResponse(user),
			Token: newTokenResponse(token),
		})
	}
}

type LoginRequest struct {
	Email      string          `json:"email"`
	Password   string          `json:"password"`
	RememberMe json.RawMessage `json:"remember_me"`
}

// validate checks the body and returns the parsed remember_me flag.
func (req LoginRequest) validate() (bool, error) {
	v := domain.NewValidationError()

	email := strings.TrimSpace(req.Email)
	if email == "" {
		v.Add("email", "This field is required.")
	} else if _, err := mail.ParseAddress(email); err != nil {
		v.Add("email", "Enter a valid email address.")
	}
	if req.Password == "" {
		v.Add("password", "This field is required.")
	}

	remember, ok := parseBoolean(req.RememberMe)
	if !ok {
		v.Add("remember_me", "Must be a valid boolean.")
	}

	return remember, v.OrNil()
}

var (
	trueStrings  = map[string]bool{"t": true, "y": true, "yes": true, "true": true, "on": true, "1": true}
	falseStrings = map[string]bool{"f": true, "n": true, "no": true, "false": true, "off": true, "0": true}
)

// parseBoolean accepts JSON booleans, 0 and 1, and the usual string
// spellings such as "true" or "off". A missing or null value is false.
func parseBoolean(raw json.RawMessage) (bool, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, true
	}

	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		return false, false
	}

	switch val := val.(type) {
	case bool:
		return val, true
	case float64:
		switch val {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		switch {
		case trueStrings[s]:
			return true, true
		case falseStrings[s]:
			return false, true
		}
	}

	return false, false
}

type LoginResponse struct {
	User    userResponse    `json:"user"`
	Token   tokenResponse   `json:"token"`
	Profile profileResponse `json:"profile"`
}

func (s *APIServer) loginHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, msgMalformed)
			return
		}

		remember, err := req.validate()
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		session, err := s.auth.Login(r.Context(), req.Email, req.Password, remember)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			User:    newUserResponse(session.User),
			Token:   newTokenResponse(session.Token),
			Profile: newProfileResponse(session.User, session.Profile),
		})
	}
}

func (s *APIServer) logoutHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeFailure(w, r, domain.ErrInvalidToken)
			return
		}

		if err := s.auth.Logout(r.Context(), token); err != nil {
			s.writeFailure(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": msgLoggedOut})
	}
}

type CheckTokenRequest struct {
	Token string `json:"token"`
}

type CheckTokenResponse struct {
	Valid   bool             `json:"valid"`
	User    *userResponse    `json:"user,omitempty"`
	Profile *profileResponse `json:"profile,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (s *APIServer) checkTokenHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, msgMalformed)
			return
		}

		if req.Token == "" {
			writeError(w, http.StatusBadRequest, msgTokenNotGiven)
			return
		}

		user, profile, err := s.auth.CheckToken(r.Context(), req.Token)
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrTokenExpired) {
			msg, _ := clientMessage(err)
			writeJSON(w, http.StatusOK, CheckTokenResponse{Valid: false, Error: msg})
			return
		}
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		u := newUserResponse(user)
		p := newProfileResponse(user, profile)
		writeJSON(w, http.StatusOK, CheckTokenResponse{Valid: true, User: &u, Profile: &p})
	}
}

// testHandler is an unauthenticated echo for connectivity checks.
func (s *APIServer) testHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": "API is working"})
			return
		}

		var data any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			data = map[string]any{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "API received your data",
			"data":    data,
		})
	}
}
