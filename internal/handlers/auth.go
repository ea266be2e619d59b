package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Tokens are valid for seven days. There is no server-side revocation:
// logout is stateless and an issued token stays valid until expiry.
const defaultTokenTTL = 7 * 24 * time.Hour

var validate = validator.New(validator.WithRequiredStructEnabled())

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	secret      []byte
	tokenTTL    time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		secret:      []byte(jwtSecret),
		tokenTTL:    defaultTokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, jwtSecret string) {
	handler := NewAuthHandler(userService, jwtSecret)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Get("/logout", handler.Logout)
	r.Post("/logout", handler.Logout)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
				return
			}

			p, err := parseToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

// AuthorizeOrganizer admits only users holding the organizer role.
func AuthorizeOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
			return
		}
		if p.Role != types.RoleOrganizer {
			writeError(w, http.StatusForbidden, "Only organizers can create events.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthorizeAttendee admits only users holding the attendee role.
func AuthorizeAttendee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
			return
		}
		if p.Role != types.RoleAttendee {
			writeError(w, http.StatusForbidden, "Organizers can't participate in events.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register creates a new user account and returns a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, registerValidationMessage(err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Register error")
		return
	}

	// The unique index on email is the authority on duplicates; no
	// pre-check, so concurrent registrations cannot both succeed.
	user, err := h.userService.Create(r.Context(), types.User{
		Username:     req.Username,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Email already exists.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Register error")
		return
	}

	token, err := issueToken(user.ID, user.Role, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Register error")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		User:    userSummary(user),
		Token:   token,
	})
}

// Login verifies credentials and returns a JWT. Unknown email and
// wrong password produce the identical message so accounts cannot be
// enumerated.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid credentials.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Login error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}

	token, err := issueToken(user.ID, user.Role, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login error")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    userSummary(user),
		Token:   token,
	})
}

// Logout always succeeds. Nothing is invalidated server-side; the
// bearer token remains valid until its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=organizer attendee"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserSummary is the identity projection returned by auth endpoints.
type UserSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type AuthResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
	Token   string      `json:"token"`
}

func userSummary(user types.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

func registerValidationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return "All fields are required."
	}
	for _, fe := range fieldErrors {
		switch {
		case fe.Tag() == "required":
			return "All fields are required."
		case fe.Field() == "Password" && fe.Tag() == "min":
			return "Password must be at least 6 characters."
		case fe.Field() == "Email":
			return "A valid email address is required."
		case fe.Field() == "Role":
			return "Role must be organizer or attendee."
		}
	}
	return "All fields are required."
}

func issueToken(userID int, role string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := authClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// authClaims carries the user's role alongside the registered claims;
// the subject is the user ID.
type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func parseToken(tokenString string, secret []byte) (principal, error) {
	claims := authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return principal{}, err
	}
	if !token.Valid {
		return principal{}, errors.New("invalid token")
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return principal{}, errors.New("invalid subject")
	}
	if claims.Role != types.RoleOrganizer && claims.Role != types.RoleAttendee {
		return principal{}, errors.New("invalid role")
	}

	return principal{UserID: userID, Role: claims.Role}, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
