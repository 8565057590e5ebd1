package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"badminton-ranking-system/middleware"
	"badminton-ranking-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionTTL = 24 * time.Hour

var errBadPassword = errors.New("bad password")

// authInputError reports a malformed registration field.
type authInputError struct{ msg string }

func (e *authInputError) Error() string { return e.msg }

// AuthService issues and clears session cookies for players.
type AuthService struct {
	DB           *gorm.DB
	Secret       string
	CookieSecure bool
}

func NewAuthService(db *gorm.DB, secret string, cookieSecure bool) *AuthService {
	return &AuthService{DB: db, Secret: secret, CookieSecure: cookieSecure}
}

func (a *AuthService) register(email, username, password string) (*models.Player, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if email == "" || !strings.Contains(email, "@") {
		return nil, &authInputError{"valid email is required"}
	}
	if username == "" {
		return nil, &authInputError{"username is required"}
	}
	if len(password) < 6 {
		return nil, &authInputError{"password must be at least 6 characters"}
	}

	var count int64
	if err := a.DB.Model(&models.Player{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	player := models.Player{Email: email, Username: username, PasswordHash: string(hash)}
	if err := a.DB.Create(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

// authenticate looks a player up by email or username and checks the
// password.
func (a *AuthService) authenticate(identifier, password string) (*models.Player, error) {
	identifier = strings.TrimSpace(identifier)

	var player models.Player
	err := a.DB.Where("email = ? OR username = ?", strings.ToLower(identifier), identifier).
		First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password)) != nil {
		return nil, errBadPassword
	}
	return &player, nil
}

func (a *AuthService) issueCookie(c *fiber.Ctx, userID uint) error {
	claims := middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "badminton-ranking",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Secret))
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		Secure:   a.CookieSecure,
		SameSite: "Lax",
		Path:     "/",
	})
	return nil
}

// Register handles POST /api/auth/register.
func (a *AuthService) Register(c *fiber.Ctx) error {
	type Req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	player, err := a.register(req.Email, req.Username, req.Password)
	if err != nil {
		var ie *authInputError
		switch {
		case errors.As(err, &ie):
			return c.Status(400).JSON(fiber.Map{"error": ie.msg})
		case errors.Is(err, ErrConflict):
			return c.Status(409).JSON(fiber.Map{"error": "email or username already taken"})
		default:
			log.Printf("[auth] register failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to register"})
		}
	}

	if err := a.issueCookie(c, player.ID); err != nil {
		log.Printf("[auth] cookie issue failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to start session"})
	}
	return c.Status(201).JSON(player)
}

// Login handles POST /api/auth/login. The identifier may be an email or a
// username.
func (a *AuthService) Login(c *fiber.Ctx) error {
	type Req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	player, err := a.authenticate(req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "no account with that email or username"})
		case errors.Is(err, errBadPassword):
			return c.Status(401).JSON(fiber.Map{"error": "incorrect password"})
		default:
			log.Printf("[auth] login failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to log in"})
		}
	}

	if err := a.issueCookie(c, player.ID); err != nil {
		log.Printf("[auth] cookie issue failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to start session"})
	}
	return c.JSON(player)
}

// Logout handles POST /api/auth/logout.
func (a *AuthService) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   a.CookieSecure,
		SameSite: "Lax",
		Path:     "/",
	})
	return c.JSON(fiber.Map{"message": "logged out"})
}

// Session handles GET /api/auth/session and returns the current player.
func (a *AuthService) Session(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var player models.Player
	if err := a.DB.First(&player, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "account no longer exists"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to load session"})
	}
	return c.JSON(player)
}
