package services

import (
	"strings"
	"time"

	"astrowell_go_backend/internal/models"
	"astrowell_go_backend/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	userKey                = "user"
	pendingBirthProfileKey = "pendingBirthProfile"
)

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SessionManager owns the authenticated-user record and, through the
// ledger, the credit balance. Authentication is simulated: the only
// failure mode is field validation, and every successful mutation is
// persisted immediately.
type SessionManager interface {
	SignIn(in SignInInput, today time.Time) (*models.Session, error)
	SignUp(in SignUpInput, today time.Time) (*models.Session, error)
	RestoreSession(today time.Time) (*models.Session, error)
	SignOut() error
	SetPendingBirthProfile(profile models.BirthProfile) error
	ConsumePendingBirthProfile() (*models.BirthProfile, error)
}

// DefaultSessionManager implements SessionManager.
type DefaultSessionManager struct {
	store   store.Store
	credits CreditLedger
}

func NewSessionManager(s store.Store, credits CreditLedger) SessionManager {
	return &DefaultSessionManager{store: s, credits: credits}
}

func (m *DefaultSessionManager) SignIn(in SignInInput, today time.Time) (*models.Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, validationError("Please fill in all required fields.")
	}

	// Fabricate the display name from the email local-part.
	displayName := email
	if at := strings.Index(email, "@"); at > 0 {
		displayName = email[:at]
	}

	return m.establish(models.User{Email: email, DisplayName: displayName}, today)
}

func (m *DefaultSessionManager) SignUp(in SignUpInput, today time.Time) (*models.Session, error) {
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" {
		return nil, validationError("Please fill in all required fields.")
	}
	if in.Password != in.ConfirmPassword {
		return nil, validationError("Passwords do not match.")
	}
	if name == "" {
		return nil, validationError("Please enter your full name.")
	}

	return m.establish(models.User{Email: email, DisplayName: name}, today)
}

func (m *DefaultSessionManager) establish(user models.User, today time.Time) (*models.Session, error) {
	if err := m.store.Set(userKey, user); err != nil {
		return nil, err
	}
	credits, err := m.credits.SeedIfAbsent(today)
	if err != nil {
		return nil, err
	}
	log.Info().Str("email", user.Email).Int("credits", credits).Msg("session established")
	return &models.Session{User: user, Credits: credits}, nil
}

// RestoreSession rebuilds the session from the store at startup.
// Returns nil when no user is stored.
func (m *DefaultSessionManager) RestoreSession(today time.Time) (*models.Session, error) {
	var user models.User
	ok, err := m.store.Get(userKey, &user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	credits, err := m.credits.Balance(today)
	if err != nil {
		return nil, err
	}
	return &models.Session{User: user, Credits: credits}, nil
}

func (m *DefaultSessionManager) SignOut() error {
	if err := m.store.Remove(userKey); err != nil {
		return err
	}
	return m.credits.Clear()
}

// SetPendingBirthProfile stashes an intake filled in before sign-in
// so it survives the auth round-trip.
func (m *DefaultSessionManager) SetPendingBirthProfile(profile models.BirthProfile) error {
	if !profile.Complete() {
		return validationError("All birth details are required.")
	}
	return m.store.Set(pendingBirthProfileKey, profile)
}

// ConsumePendingBirthProfile returns the stashed intake and removes
// it; it is read at most once. Nil when nothing is pending.
func (m *DefaultSessionManager) ConsumePendingBirthProfile() (*models.BirthProfile, error) {
	var profile models.BirthProfile
	ok, err := m.store.Get(pendingBirthProfileKey, &profile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if err := m.store.Remove(pendingBirthProfileKey); err != nil {
		return nil, err
	}
	return &profile, nil
}
