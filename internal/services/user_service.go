package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
)

var (
	// ErrUserInvalidInput signals bad lookup or creation parameters.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserNotFound indicates no auth account matches the lookup.
	ErrUserNotFound = errors.New("user: not found")
	// ErrUserUnavailable indicates the auth provider could not be reached.
	ErrUserUnavailable = errors.New("user: auth provider unavailable")
)

// AuthAccountClient is the subset of the Firebase Auth admin client the user
// service relies on. *firebaseauth.Client satisfies it.
type AuthAccountClient interface {
	GetUserByEmail(ctx context.Context, email string) (*firebaseauth.UserRecord, error)
	GetUserByPhoneNumber(ctx context.Context, phone string) (*firebaseauth.UserRecord, error)
	CreateUser(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *firebaseauth.UserToUpdate) (*firebaseauth.UserRecord, error)
}

// UserServiceDeps bundles collaborators required to construct the user service.
type UserServiceDeps struct {
	Auth   AuthAccountClient
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type userService struct {
	auth   AuthAccountClient
	logger func(context.Context, string, map[string]any)

	// isNotFound distinguishes missing-account errors from provider outages.
	isNotFound func(error) bool
}

var _ UserService = (*userService)(nil)

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Auth == nil {
		return nil, errors.New("user service: auth client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &userService{
		auth:       deps.Auth,
		logger:     logger,
		isNotFound: firebaseauth.IsUserNotFound,
	}, nil
}

// SearchUser looks up an auth account by email first, then phone.
func (s *userService) SearchUser(ctx context.Context, cmd UserSearchCommand) (UserAccount, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	phone := normalisePhone(cmd.Phone)
	if email == "" && phone == "" {
		return UserAccount{}, fmt.Errorf("%w: email or phone is required", ErrUserInvalidInput)
	}

	if email != "" {
		record, err := s.auth.GetUserByEmail(ctx, email)
		if err == nil {
			return userAccountFromRecord(record), nil
		}
		if !s.isNotFound(err) {
			return UserAccount{}, fmt.Errorf("%w: %v", ErrUserUnavailable, err)
		}
		if phone == "" {
			return UserAccount{}, fmt.Errorf("%w: no account for email %s", ErrUserNotFound, email)
		}
	}

	record, err := s.auth.GetUserByPhoneNumber(ctx, phone)
	if err != nil {
		if s.isNotFound(err) {
			return UserAccount{}, fmt.Errorf("%w: no account for phone %s", ErrUserNotFound, phone)
		}
		return UserAccount{}, fmt.Errorf("%w: %v", ErrUserUnavailable, err)
	}
	return userAccountFromRecord(record), nil
}

// CreateUser creates an auth account, or updates the existing account when the
// email is already registered. The second return value reports whether a new
// account was created.
func (s *userService) CreateUser(ctx context.Context, cmd UserCreateCommand) (UserAccount, bool, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" {
		return UserAccount{}, false, fmt.Errorf("%w: email is required", ErrUserInvalidInput)
	}
	phone := normalisePhone(cmd.Phone)
	displayName := strings.TrimSpace(cmd.DisplayName)

	existing, err := s.auth.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		update := (&firebaseauth.UserToUpdate{})
		if phone != "" {
			update = update.PhoneNumber(phone)
		}
		if displayName != "" {
			update = update.DisplayName(displayName)
		}
		record, err := s.auth.UpdateUser(ctx, existing.UID, update)
		if err != nil {
			return UserAccount{}, false, fmt.Errorf("%w: %v", ErrUserUnavailable, err)
		}
		s.logger(ctx, "user.account.updated", map[string]any{"uid": record.UID})
		return userAccountFromRecord(record), false, nil
	case s.isNotFound(err):
		// fall through to creation
	default:
		return UserAccount{}, false, fmt.Errorf("%w: %v", ErrUserUnavailable, err)
	}

	create := (&firebaseauth.UserToCreate{}).Email(email)
	if phone != "" {
		create = create.PhoneNumber(phone)
	}
	if displayName != "" {
		create = create.DisplayName(displayName)
	}
	if password := strings.TrimSpace(cmd.Password); password != "" {
		create = create.Password(password)
	}

	record, err := s.auth.CreateUser(ctx, create)
	if err != nil {
		return UserAccount{}, false, fmt.Errorf("%w: %v", ErrUserUnavailable, err)
	}
	s.logger(ctx, "user.account.created", map[string]any{"uid": record.UID})
	return userAccountFromRecord(record), true, nil
}

func userAccountFromRecord(record *firebaseauth.UserRecord) UserAccount {
	if record == nil {
		return UserAccount{}
	}
	account := UserAccount{
		UID:         record.UID,
		Email:       record.Email,
		Phone:       record.PhoneNumber,
		DisplayName: record.DisplayName,
		Disabled:    record.Disabled,
	}
	if record.UserMetadata != nil && record.UserMetadata.CreationTimestamp > 0 {
		account.CreatedAt = time.UnixMilli(record.UserMetadata.CreationTimestamp).UTC()
	}
	return account
}

// normalisePhone strips separators and rewrites local Thai numbers (leading 0)
// to E.164, which the auth provider requires.
func normalisePhone(phone string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "0") && len(cleaned) >= 9 {
		return "+66" + cleaned[1:]
	}
	return cleaned
}
