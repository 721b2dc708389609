// Package auth handles login, registration and OTP verification, and keeps
// the bearer token on the API client and in the persisted session.
package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/opencourier/driverd/internal/api"
	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/state"
)

type Service struct {
	client *api.Client
	store  *state.Store
}

func NewService(client *api.Client, store *state.Store) *Service {
	return &Service{client: client, store: store}
}

// Bootstrap restores a persisted session. It returns the stored driver
// profile and whether a usable token was found; an expired token counts as no
// session.
func (s *Service) Bootstrap() (*models.Driver, bool) {
	st, err := s.store.Load()
	if err != nil {
		log.Printf("Failed to load persisted session: %v", err)
		return nil, false
	}
	if st.Token == "" {
		return nil, false
	}
	if expired(st.Token) {
		log.Printf("Stored token is expired, login required")
		return nil, false
	}
	s.client.SetToken(st.Token)
	return st.Driver, true
}

// expired inspects the token's exp claim without verifying the signature; the
// backend remains the authority, this just avoids doomed requests.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false // opaque tokens pass through untouched
	}
	// required=false: a token without an exp claim never expires
	return !claims.VerifyExpiresAt(time.Now().Unix(), false)
}

func (s *Service) Login(ctx context.Context, phone, password string) (models.Driver, error) {
	res, err := s.client.Login(ctx, phone, password)
	if err != nil {
		return models.Driver{}, fmt.Errorf("login: %w", err)
	}
	s.persist(res)
	return res.Driver, nil
}

func (s *Service) Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResult, error) {
	res, err := s.client.Register(ctx, req)
	if err != nil {
		return api.RegisterResult{}, fmt.Errorf("register: %w", err)
	}
	return res, nil
}

func (s *Service) VerifyOTP(ctx context.Context, phone, otp string) (models.Driver, error) {
	res, err := s.client.VerifyOTP(ctx, phone, otp)
	if err != nil {
		return models.Driver{}, fmt.Errorf("verify otp: %w", err)
	}
	s.persist(res)
	return res.Driver, nil
}

func (s *Service) persist(res api.LoginResult) {
	s.client.SetToken(res.Token)
	driver := res.Driver
	if err := s.store.SetAuth(res.Token, &driver); err != nil {
		// storage trouble should not undo a successful login
		log.Printf("Failed to persist session: %v", err)
	}
}

func (s *Service) Logout() {
	s.client.SetToken("")
	if err := s.store.Clear(); err != nil {
		log.Printf("Failed to clear session: %v", err)
	}
}
