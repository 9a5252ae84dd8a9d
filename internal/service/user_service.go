package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"syscall"
	"time"

	"github.com/schemawatch/schemawatch/internal/settings"
	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/schemawatch/schemawatch/internal/util"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

type UserWriter interface {
	CreateUser(context.Context, store.Role, string, string) (*store.User, error)
	CreateSuperuser(context.Context, string, string) (*store.User, error)
	UpdateUserRole(context.Context, int64, store.Role) error
	UpdateUserPassword(context.Context, int64, string, *time.Time) error
	DeleteUser(context.Context, int64) error
}

type UserReader interface {
	ReadUserByID(context.Context, int64) (*store.User, error)
	ReadUserByUsername(context.Context, string) (*store.User, error)
	ReadUserBySessionID(context.Context, string) (*store.User, error)
	ListUsers(context.Context) ([]*store.User, error)
	ListSuperusers(context.Context) ([]store.User, error)
}

type AuthSessionWriter interface {
	CreateAuthSession(context.Context, string, int64, time.Time) (*store.AuthSession, error)
	DeleteAuthSessionsByUserID(context.Context, int64) error
}

type UserStore interface {
	UserWriter
	UserReader
	AuthSessionWriter
}

type UserService struct {
	userStore UserStore
}

func NewUserService(s UserStore) *UserService {
	return &UserService{userStore: s}
}

func (s *UserService) GetUserByID(ctx context.Context, userID int64) (*store.User, error) {
	return s.userStore.ReadUserByID(ctx, userID)
}

func (s *UserService) GetUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*store.User, error) {
	u, err := s.userStore.ReadUserBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !u.SessionExpires.Valid || u.SessionExpires.Time.Before(time.Now().UTC()) {
		return nil, errors.New("session expired")
	}
	return u, nil
}

func (s *UserService) GetUserByUsernameAndPassword(
	ctx context.Context,
	username, password string,
) (*store.User, error) {
	u, err := s.userStore.ReadUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) CreateAuthSession(
	ctx context.Context,
	userID int64,
) (*store.AuthSession, error) {
	expiresOn := time.Now().UTC().Add(settings.Settings.SessionExpires)
	return s.userStore.CreateAuthSession(ctx, newSessionID(), userID, expiresOn)
}

func newSessionID() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (s *UserService) CreateUser(
	ctx context.Context,
	role store.Role,
	username, password string,
) (*store.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.userStore.CreateUser(ctx, role, username, hash)
}

// ChangeUserPassword is the user-initiated change: the old password must
// match. The superuser's password only changes through SetUserPassword.
func (s *UserService) ChangeUserPassword(
	ctx context.Context,
	userID int64,
	oldPassword, newPassword string,
) error {
	u, err := s.userStore.ReadUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsSuperuser() {
		return errors.New("attempt to change superuser's password")
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(u.PasswordHash), []byte(oldPassword),
	); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userStore.UpdateUserPassword(ctx, u.UserID, hash, util.AsPtr(time.Now().UTC()))
}

// SetUserPassword sets the caller's own password without the old one, used
// when a provisional password must be replaced on first login.
func (s *UserService) SetUserPassword(
	ctx context.Context,
	userID int64,
	newPassword string,
) error {
	u, err := s.userStore.ReadUserByID(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userStore.UpdateUserPassword(ctx, u.UserID, hash, util.AsPtr(time.Now().UTC()))
}

// ResetUserPassword is the admin-initiated reset. Clearing password_changed_on
// forces the user to pick a new password on their next login.
func (s *UserService) ResetUserPassword(
	ctx context.Context,
	userID int64,
	newPassword string,
) error {
	u, err := s.userStore.ReadUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsSuperuser() {
		return errors.New("attempt to reset superuser's password")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userStore.UpdateUserPassword(ctx, u.UserID, hash, nil)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// DeleteUser removes the user and their live sessions so a deleted account
// cannot keep acting through an existing cookie.
func (s *UserService) DeleteUser(ctx context.Context, u *store.User) error {
	if err := s.userStore.DeleteAuthSessionsByUserID(ctx, u.UserID); err != nil {
		return err
	}
	return s.userStore.DeleteUser(ctx, u.UserID)
}

func (s *UserService) UpdateUserRole(ctx context.Context, userID int64, role store.Role) error {
	return s.userStore.UpdateUserRole(ctx, userID, role)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*store.User, error) {
	users, err := s.userStore.ListUsers(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return users, nil
}

func (s *UserService) ListSuperusers(ctx context.Context) ([]store.User, error) {
	users, err := s.userStore.ListSuperusers(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return users, nil
}

// InitializeSuperuser prompts for a superuser account on first boot. The
// server cannot be administered without one, so failures here are fatal.
func (s *UserService) InitializeSuperuser(ctx context.Context) {
	superusers, err := s.ListSuperusers(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(superusers) > 0 {
		return
	}

	fmt.Println("No superuser found. Create one now.")
	fmt.Print("Username: ")
	var username string
	if _, err := fmt.Scanln(&username); err != nil {
		log.Fatal(err)
	}
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()

	hash, err := hashPassword(string(passwordBytes))
	if err != nil {
		log.Fatal(err)
	}
	if _, err := s.userStore.CreateSuperuser(ctx, username, hash); err != nil {
		log.Fatal(err)
	}
}
