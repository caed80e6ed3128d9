package service

import (
	"context"
	"errors"
	"testing"
	"time"

	userserrors "deskbook/internal/users/errors"
	"deskbook/internal/users/validator"
	"deskbook/pkg/config"
	mongotx "deskbook/pkg/db/mongo"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	users       map[string]*model.User
	sessions    map[string]*model.Session
	bookings    map[string]int64
	clock       func() time.Time
	failFindAll error
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		users:    map[string]*model.User{},
		sessions: map[string]*model.Session{},
		bookings: map[string]int64{},
		clock:    clock,
	}
}

func (m *memStore) Create(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return userserrors.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return userserrors.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, userserrors.ErrNotFound
}

func (m *memStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, userserrors.ErrNotFound
}

func (m *memStore) FindAll(ctx context.Context) ([]*model.User, error) {
	if m.failFindAll != nil {
		return nil, m.failFindAll
	}
	users := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *memStore) FindIDsBySquad(ctx context.Context, squad string) ([]string, error) {
	var ids []string
	for _, u := range m.users {
		if u.Squad != nil && *u.Squad == squad {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (bool, int64, error) {
	if _, ok := m.users[id]; !ok {
		return false, 0, nil
	}
	delete(m.users, id)
	for sid, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, sid)
		}
	}
	cascaded := m.bookings[id]
	delete(m.bookings, id)
	return true, cascaded, nil
}

func (m *memStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func (m *memStore) CreateSession(ctx context.Context, session *model.Session) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *memStore) FindSession(ctx context.Context, id string) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(m.clock()) {
		return nil, userserrors.ErrSessionNotFound
	}
	return s, nil
}

func (m *memStore) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

type mockPublisher struct {
	events []model.BookingEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event model.BookingEvent) {
	m.events = append(m.events, event)
}

type fixture struct {
	svc   *userService
	store *memStore
	pub   *mockPublisher
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	f := &fixture{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), pub: &mockPublisher{}}
	f.store = newMemStore(func() time.Time { return f.now })
	cfg := &config.Config{Log: log, SessionTTL: time.Hour}
	f.svc = newUserService(f.store, validator.NewUserValidator(log), f.pub, cfg, bcrypt.MinCost)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), &model.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return user
}

func TestUserService_Register(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "Alice")
	if user.Username != "alice" {
		t.Errorf("username = %q, want lowercased", user.Username)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse" {
		t.Error("password must be stored hashed")
	}

	tests := []struct {
		name    string
		reg     *model.Registration
		code    string
		message string
	}{
		{
			name:    "taken username",
			reg:     &model.Registration{Username: "alice", Email: "other@example.com", Password: "correct horse"},
			code:    apperrors.CodeConflict,
			message: userserrors.MsgUsernameTaken,
		},
		{
			name:    "taken email",
			reg:     &model.Registration{Username: "alice2", Email: "ALICE@example.com", Password: "correct horse"},
			code:    apperrors.CodeConflict,
			message: userserrors.MsgEmailTaken,
		},
		{
			name: "invalid input",
			reg:  &model.Registration{Username: "a", Email: "nope", Password: "x"},
			code: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.reg)
			appErr := apperrors.AsAppError(err)
			if err == nil || appErr.Code != tt.code {
				t.Fatalf("Register() error = %v, want %s", err, tt.code)
			}
			if tt.message != "" && appErr.Message != tt.message {
				t.Errorf("message = %q, want %q", appErr.Message, tt.message)
			}
		})
	}
}

func TestUserService_LoginResolveLogout(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	ctx := context.Background()

	token, err := f.svc.Login(ctx, &model.Credentials{Username: " ALICE ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token.Token == "" || !token.ExpiresAt.Equal(f.now.Add(time.Hour)) {
		t.Errorf("token = %+v", token)
	}
	if _, stored := f.store.sessions[token.Token]; stored {
		t.Error("raw token must not be the session id")
	}

	resolved, err := f.svc.Resolve(ctx, token.Token)
	if err != nil || resolved == nil || resolved.ID != alice.ID {
		t.Fatalf("Resolve() = %v, %v", resolved, err)
	}

	if err := f.svc.Logout(ctx, token.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if resolved, _ := f.svc.Resolve(ctx, token.Token); resolved != nil {
		t.Error("token still resolves after logout")
	}
}

func TestUserService_LoginRejects(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	for name, creds := range map[string]*model.Credentials{
		"wrong password": {Username: "alice", Password: "battery staple"},
		"unknown user":   {Username: "mallory", Password: "correct horse"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), creds)
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeUnauthorized || appErr.Message != "invalid credentials" {
				t.Errorf("Login() error = %v, want invalid credentials", err)
			}
		})
	}
}

func TestUserService_ResolveExpired(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	token, err := f.svc.Login(context.Background(), &model.Credentials{Username: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	f.now = f.now.Add(2 * time.Hour)
	user, err := f.svc.Resolve(context.Background(), token.Token)
	if err != nil || user != nil {
		t.Errorf("Resolve(expired) = %v, %v, want no identity", user, err)
	}
}

func TestUserService_RequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	f.store.failFindAll = errors.New("must not be called")
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["Me"] = f.svc.Me(ctx, nil)
	_, checks["List"] = f.svc.List(ctx, nil)
	checks["DeleteMe"] = f.svc.DeleteMe(ctx, nil)
	checks["Logout"] = f.svc.Logout(ctx, "")

	for name, err := range checks {
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeUnauthorized || appErr.Message != "not logged in" {
			t.Errorf("%s error = %v, want not logged in", name, err)
		}
	}
}

func TestUserService_DeleteMeCascades(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.store.bookings[alice.ID] = 4

	token, err := f.svc.Login(context.Background(), &model.Credentials{Username: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := f.svc.DeleteMe(context.Background(), alice); err != nil {
		t.Fatalf("DeleteMe() error = %v", err)
	}
	if len(f.store.sessions) != 0 || len(f.store.users) != 0 {
		t.Error("user and sessions must be gone")
	}
	if user, _ := f.svc.Resolve(context.Background(), token.Token); user != nil {
		t.Error("deleted user still resolves")
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Type != model.EventUserDeleted || f.pub.events[0].CascadedBookings != 4 {
		t.Errorf("events = %+v", f.pub.events)
	}
}

func TestHashToken(t *testing.T) {
	if HashToken("a") == HashToken("b") {
		t.Error("different tokens must hash differently")
	}
	if len(HashToken("a")) != 64 {
		t.Errorf("hash length = %d, want hex sha256", len(HashToken("a")))
	}
}
