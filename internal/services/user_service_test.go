package services

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

var errAuthAccountMissing = errors.New("no matching auth account")

type stubAuthClient struct {
	byEmail map[string]*firebaseauth.UserRecord
	byPhone map[string]*firebaseauth.UserRecord
	getErr  error

	emailLookups []string
	phoneLookups []string

	created    *firebaseauth.UserToCreate
	createResp *firebaseauth.UserRecord
	createErr  error

	updatedUID string
	updateResp *firebaseauth.UserRecord
	updateErr  error
}

func (s *stubAuthClient) GetUserByEmail(_ context.Context, email string) (*firebaseauth.UserRecord, error) {
	s.emailLookups = append(s.emailLookups, email)
	if s.getErr != nil {
		return nil, s.getErr
	}
	if record, ok := s.byEmail[email]; ok {
		return record, nil
	}
	return nil, errAuthAccountMissing
}

func (s *stubAuthClient) GetUserByPhoneNumber(_ context.Context, phone string) (*firebaseauth.UserRecord, error) {
	s.phoneLookups = append(s.phoneLookups, phone)
	if s.getErr != nil {
		return nil, s.getErr
	}
	if record, ok := s.byPhone[phone]; ok {
		return record, nil
	}
	return nil, errAuthAccountMissing
}

func (s *stubAuthClient) CreateUser(_ context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error) {
	s.created = user
	return s.createResp, s.createErr
}

func (s *stubAuthClient) UpdateUser(_ context.Context, uid string, _ *firebaseauth.UserToUpdate) (*firebaseauth.UserRecord, error) {
	s.updatedUID = uid
	return s.updateResp, s.updateErr
}

func userRecord(uid, email, phone string) *firebaseauth.UserRecord {
	return &firebaseauth.UserRecord{
		UserInfo: &firebaseauth.UserInfo{UID: uid, Email: email, PhoneNumber: phone},
	}
}

func newTestUserService(t *testing.T, auth *stubAuthClient) UserService {
	t.Helper()
	svc, err := NewUserService(UserServiceDeps{Auth: auth})
	if err != nil {
		t.Fatalf("new user service: %v", err)
	}
	svc.(*userService).isNotFound = func(err error) bool {
		return errors.Is(err, errAuthAccountMissing)
	}
	return svc
}

func TestSearchUserByEmail(t *testing.T) {
	auth := &stubAuthClient{byEmail: map[string]*firebaseauth.UserRecord{
		"anan@example.com": userRecord("uid_1", "anan@example.com", ""),
	}}
	svc := newTestUserService(t, auth)

	account, err := svc.SearchUser(context.Background(), UserSearchCommand{Email: " Anan@Example.com "})
	if err != nil {
		t.Fatalf("search user: %v", err)
	}
	if account.UID != "uid_1" {
		t.Fatalf("unexpected account %+v", account)
	}
	if len(auth.emailLookups) != 1 || auth.emailLookups[0] != "anan@example.com" {
		t.Fatalf("expected lowercased trimmed email lookup, got %v", auth.emailLookups)
	}
	if len(auth.phoneLookups) != 0 {
		t.Fatalf("email hit must not trigger phone lookup")
	}
}

func TestSearchUserFallsBackToPhone(t *testing.T) {
	auth := &stubAuthClient{byPhone: map[string]*firebaseauth.UserRecord{
		"+66812345678": userRecord("uid_2", "", "+66812345678"),
	}}
	svc := newTestUserService(t, auth)

	account, err := svc.SearchUser(context.Background(), UserSearchCommand{
		Email: "missing@example.com",
		Phone: "081-234-5678",
	})
	if err != nil {
		t.Fatalf("search user: %v", err)
	}
	if account.UID != "uid_2" {
		t.Fatalf("unexpected account %+v", account)
	}
	if len(auth.phoneLookups) != 1 || auth.phoneLookups[0] != "+66812345678" {
		t.Fatalf("expected normalised phone lookup, got %v", auth.phoneLookups)
	}
}

func TestSearchUserNotFound(t *testing.T) {
	svc := newTestUserService(t, &stubAuthClient{})

	if _, err := svc.SearchUser(context.Background(), UserSearchCommand{Email: "nobody@example.com"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.SearchUser(context.Background(), UserSearchCommand{Phone: "0899999999"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSearchUserRequiresLookupKey(t *testing.T) {
	svc := newTestUserService(t, &stubAuthClient{})

	if _, err := svc.SearchUser(context.Background(), UserSearchCommand{}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected ErrUserInvalidInput, got %v", err)
	}
}

func TestSearchUserProviderOutage(t *testing.T) {
	auth := &stubAuthClient{getErr: errors.New("deadline exceeded")}
	svc := newTestUserService(t, auth)

	if _, err := svc.SearchUser(context.Background(), UserSearchCommand{Email: "anan@example.com"}); !errors.Is(err, ErrUserUnavailable) {
		t.Fatalf("expected ErrUserUnavailable, got %v", err)
	}
}

func TestCreateUserNewAccount(t *testing.T) {
	auth := &stubAuthClient{createResp: userRecord("uid_new", "anan@example.com", "+66812345678")}
	svc := newTestUserService(t, auth)

	account, created, err := svc.CreateUser(context.Background(), UserCreateCommand{
		Email:       "Anan@Example.com",
		Phone:       "0812345678",
		DisplayName: "Anan",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !created {
		t.Fatalf("expected a freshly created account")
	}
	if account.UID != "uid_new" {
		t.Fatalf("unexpected account %+v", account)
	}
	if auth.created == nil {
		t.Fatalf("expected CreateUser call on the auth client")
	}
}

func TestCreateUserUpdatesExistingAccount(t *testing.T) {
	auth := &stubAuthClient{
		byEmail: map[string]*firebaseauth.UserRecord{
			"anan@example.com": userRecord("uid_1", "anan@example.com", ""),
		},
		updateResp: userRecord("uid_1", "anan@example.com", "+66812345678"),
	}
	svc := newTestUserService(t, auth)

	account, created, err := svc.CreateUser(context.Background(), UserCreateCommand{
		Email: "anan@example.com",
		Phone: "0812345678",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created {
		t.Fatalf("existing account must report created=false")
	}
	if auth.updatedUID != "uid_1" {
		t.Fatalf("expected update of uid_1, got %q", auth.updatedUID)
	}
	if account.Phone != "+66812345678" {
		t.Fatalf("unexpected account %+v", account)
	}
}

func TestCreateUserRequiresEmail(t *testing.T) {
	svc := newTestUserService(t, &stubAuthClient{})

	if _, _, err := svc.CreateUser(context.Background(), UserCreateCommand{Phone: "0812345678"}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected ErrUserInvalidInput, got %v", err)
	}
}

func TestNormalisePhone(t *testing.T) {
	cases := map[string]string{
		"0812345678":     "+66812345678",
		"081-234-5678":   "+66812345678",
		" (081) 2345678": "+66812345678",
		"+66812345678":   "+66812345678",
		"":               "",
		"  ":             "",
	}
	for input, want := range cases {
		if got := normalisePhone(input); got != want {
			t.Fatalf("normalisePhone(%q) = %q, want %q", input, got, want)
		}
	}
}
