package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/crowdsight/crowdsight-core/internal/auth"
)

// ticketTTL is how long a WebSocket ticket is valid.
const ticketTTL = 60 * time.Second

// signupRequest is the request body for POST /auth/signup.
type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the response body for successful signup and login.
type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"`
	User        *auth.User `json:"user"`
}

// handleSignup registers a new account and returns an access token.
//
// The first account created on a fresh install becomes a manager so the
// system can be administered without seed data; all later signups get
// the user role.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if len(req.Password) < auth.MinPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeInternalError(w, "failed to hash password")
		return
	}

	role := auth.RoleUser
	count, err := s.users.Count(r.Context())
	if err != nil {
		writeInternalError(w, "failed to create account")
		return
	}
	if count == 0 {
		role = auth.RoleManager
	}

	user := &auth.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
	}
	if err := user.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeConflict(w, "email already registered")
			return
		}
		writeInternalError(w, "failed to create account")
		return
	}

	s.logger.Info("account created", "user_id", user.ID, "role", user.Role)
	s.writeTokenResponse(w, http.StatusCreated, user)
}

// handleLogin authenticates a user and returns an access token.
//
// Unknown emails and wrong passwords produce the same response so the
// endpoint cannot be used to enumerate accounts.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		writeInternalError(w, "login failed")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	s.writeTokenResponse(w, http.StatusOK, user)
}

// handleMe returns the authenticated caller's account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	user, err := s.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "account no longer exists")
			return
		}
		writeInternalError(w, "failed to load account")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// writeTokenResponse issues an access token for the user and writes the
// standard token envelope.
func (s *Server) writeTokenResponse(w http.ResponseWriter, status int, user *auth.User) {
	ttl := s.secCfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 60 //nolint:mnd // default 1-hour access token TTL
	}

	signed, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		writeInternalError(w, "failed to generate token")
		return
	}

	writeJSON(w, status, tokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60, // seconds
		User:        user,
	})
}

// ticketStore holds pending WebSocket authentication tickets.
// Tickets are single-use and expire after ticketTTL.
type ticketStore struct {
	tickets map[string]ticketEntry
	mu      sync.Mutex
}

type ticketEntry struct {
	userID    string
	role      auth.Role
	expiresAt time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]ticketEntry)}
}

// handleWSTicket generates a single-use WebSocket authentication ticket.
// The client uses this ticket to authenticate the WebSocket connection
// without exposing the JWT in the URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	ticket := generateTicket()

	s.tickets.mu.Lock()
	s.tickets.tickets[ticket] = ticketEntry{
		userID:    claims.Subject,
		role:      claims.Role,
		expiresAt: time.Now().Add(ticketTTL),
	}
	s.tickets.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// validateTicket checks if a ticket is valid and consumes it (single-use).
func (s *Server) validateTicket(ticket string) (ticketEntry, bool) {
	s.tickets.mu.Lock()
	defer s.tickets.mu.Unlock()

	entry, ok := s.tickets.tickets[ticket]
	if !ok {
		return ticketEntry{}, false
	}

	// Remove ticket (single-use)
	delete(s.tickets.tickets, ticket)

	if time.Now().After(entry.expiresAt) {
		return ticketEntry{}, false
	}
	return entry, true
}

// ticketBytes is the number of random bytes used for WebSocket tickets.
const ticketBytes = 32

// generateTicket creates a cryptographically random ticket string.
func generateTicket() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// cleanExpiredTickets removes expired tickets from the store.
func (s *Server) cleanExpiredTickets() {
	s.tickets.mu.Lock()
	defer s.tickets.mu.Unlock()

	now := time.Now()
	for ticket, entry := range s.tickets.tickets {
		if now.After(entry.expiresAt) {
			delete(s.tickets.tickets, ticket)
		}
	}
}

// cleanTicketsLoop runs cleanExpiredTickets periodically until the context is cancelled.
func (s *Server) cleanTicketsLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanExpiredTickets()
		}
	}
}
