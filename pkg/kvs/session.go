package kvs

import (
	"context"

	"github.com/pkg/errors"
)

const (
	currentUserKey = "currentUser"
	authTokenKey   = "authToken"
	themeKey       = "theme"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// SessionUser is the signed-in user as cached on the device
type SessionUser struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role,omitempty"`
	Company string `json:"company,omitempty"`
}

// SessionStore keeps session, user and theme state in a Store
type SessionStore struct {
	store Store
}

func NewSessionStore(store Store) *SessionStore {
	return &SessionStore{store: store}
}

// CurrentUser returns the cached user, or nil when nobody is signed in
func (s *SessionStore) CurrentUser(ctx context.Context) (*SessionUser, error) {
	var user SessionUser
	err := GetJSON(ctx, s.store, currentUserKey, &user)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SignIn stores the user together with its auth token
func (s *SessionStore) SignIn(ctx context.Context, user SessionUser, token string) error {
	if err := SetJSON(ctx, s.store, currentUserKey, user); err != nil {
		return err
	}
	return s.store.Set(ctx, authTokenKey, token)
}

// Token returns the auth token, empty when signed out
func (s *SessionStore) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, authTokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

// SignOut removes user and token but keeps the theme
func (s *SessionStore) SignOut(ctx context.Context) error {
	if err := s.store.Remove(ctx, currentUserKey); err != nil {
		return err
	}
	return s.store.Remove(ctx, authTokenKey)
}

// Theme returns the stored theme, light by default
func (s *SessionStore) Theme(ctx context.Context) (Theme, error) {
	v, err := s.store.Get(ctx, themeKey)
	if errors.Is(err, ErrNotFound) {
		return ThemeLight, nil
	}
	if err != nil {
		return ThemeLight, err
	}
	return Theme(v), nil
}

func (s *SessionStore) SetTheme(ctx context.Context, theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return errors.Errorf("kvs: unknown theme %q", theme)
	}
	return s.store.Set(ctx, themeKey, string(theme))
}
