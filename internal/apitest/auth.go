package apitest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"finance-client/internal/auth"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// ErrEmailTaken is returned by AddUser when the email is already registered.
var ErrEmailTaken = errors.New("user with this email already exists")

type user struct {
	id           int64
	email        string
	passwordHash string
	firstName    string
	lastName     string
	createdAt    time.Time
}

func (u *user) object() object {
	return object{
		{"id", u.id},
		{"email", u.email},
		{"first_name", u.firstName},
		{"last_name", u.lastName},
		{"created_at", u.createdAt.Format(time.RFC3339)},
	}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AddUser registers an account directly and returns its id. Emails are
// unique regardless of case.
func (s *Server) AddUser(email, password, firstName, lastName string) (int64, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	email = strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return 0, ErrEmailTaken
	}
	u := &user{
		id:           s.nextID(),
		email:        email,
		passwordHash: hash,
		firstName:    firstName,
		lastName:     lastName,
		createdAt:    s.now(),
	}
	s.users[u.id] = u
	s.byEmail[u.email] = u.id
	return u.id, nil
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.AddUser(req.Email, req.Password, req.FirstName, req.LastName)
	if errors.Is(err, ErrEmailTaken) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to hash password")
		return
	}
	s.respondWithToken(c, http.StatusCreated, id)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	var u *user
	if id, ok := s.byEmail[strings.ToLower(req.Email)]; ok {
		u = s.users[id]
	}
	s.mu.Unlock()

	if u == nil || !auth.CheckPassword(req.Password, u.passwordHash) {
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}
	s.respondWithToken(c, http.StatusOK, u.id)
}

func (s *Server) respondWithToken(c *gin.Context, status int, userID int64) {
	s.mu.Lock()
	u := s.users[userID]
	secret := s.secret
	s.mu.Unlock()

	token, err := auth.IssueToken(secret, u.id, u.email, s.now(), auth.TokenTTL)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to generate token")
		return
	}
	c.JSON(status, s.render(object{
		{"token", token},
		{"user", object{
			{"id", u.id},
			{"email", u.email},
			{"first_name", u.firstName},
			{"last_name", u.lastName},
		}},
	}))
}

func (s *Server) profile(c *gin.Context) {
	s.mu.Lock()
	u := s.users[c.GetInt64(userIDKey)]
	s.mu.Unlock()
	c.JSON(http.StatusOK, s.render(u.object()))
}

// authRequired rejects requests without a valid bearer token.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respondError(c, http.StatusUnauthorized, "authorization header required")
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		s.mu.Lock()
		secret := s.secret
		s.mu.Unlock()

		claims, err := auth.VerifyToken(secret, token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		s.mu.Lock()
		_, known := s.users[claims.UserID]
		s.mu.Unlock()
		if !known {
			respondError(c, http.StatusUnauthorized, "user not found")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}
