package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/auth-service/internal/core/domain"
	"github.com/clipstream/auth-service/internal/core/ports"
)

// memStore is an in-memory CredentialStore. Mutations apply immediately; the
// uniqueness translation mirrors what the sqlite repository does on its
// UNIQUE indexes.
type memStore struct {
	creds map[string]*domain.Credential
}

func newMemStore() *memStore {
	return &memStore{creds: make(map[string]*domain.Credential)}
}

func (s *memStore) InTx(_ context.Context, fn func(tx ports.CredentialTx) error) error {
	return fn(&memTx{store: s})
}

type memTx struct {
	store *memStore
}

func (t *memTx) FindByUsernameOrEmail(_ context.Context, username, email string) ([]domain.Credential, error) {
	var out []domain.Credential
	for _, c := range t.store.creds {
		if (username != "" && c.Username == username) || (email != "" && c.Email == email) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (t *memTx) FindByID(_ context.Context, id string) (*domain.Credential, error) {
	c, ok := t.store.creds[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (t *memTx) Insert(_ context.Context, cred *domain.Credential) error {
	for _, c := range t.store.creds {
		if c.Username == cred.Username {
			return domain.NewConflict("This name has already taken.")
		}
		if c.Email == cred.Email {
			return domain.NewConflict("This email has already taken.")
		}
	}
	clone := *cred
	t.store.creds[cred.ID] = &clone
	return nil
}

func (t *memTx) Update(_ context.Context, cred *domain.Credential) error {
	clone := *cred
	t.store.creds[cred.ID] = &clone
	return nil
}

func (t *memTx) Delete(_ context.Context, cred *domain.Credential) error {
	delete(t.store.creds, cred.ID)
	return nil
}

type stubSessions struct {
	n        int
	sessions map[string]domain.Session
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[string]domain.Session)}
}

func (s *stubSessions) Create(_ context.Context, userID, username string, role domain.Role) (string, error) {
	s.n++
	id := fmt.Sprintf("sess-%d", s.n)
	s.sessions[id] = domain.Session{UserID: userID, Username: username, Role: role}
	return id, nil
}

func (s *stubSessions) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.NewUnauthorized("Session expired or not found")
	}
	return &sess, nil
}

type recordingPublisher struct {
	created []string
	deleted []string
}

func (p *recordingPublisher) PublishCreated(_ context.Context, cred *domain.Credential) {
	p.created = append(p.created, cred.ID)
}

func (p *recordingPublisher) PublishDeleted(_ context.Context, cred *domain.Credential) {
	p.deleted = append(p.deleted, cred.ID)
}

type fixture struct {
	svc      *IdentityService
	store    *memStore
	tokens   *TokenService
	sessions *stubSessions
	events   *recordingPublisher
}

func newFixture() *fixture {
	store := newMemStore()
	tokens := NewTokenService("test-secret")
	sessions := newStubSessions()
	events := &recordingPublisher{}
	svc := NewIdentityService(store, tokens, sessions, events, 15*time.Minute, 7*24*time.Hour, zerolog.Nop())
	return &fixture{svc: svc, store: store, tokens: tokens, sessions: sessions, events: events}
}

func wantDomainError(t *testing.T, err error, status int, message string) {
	t.Helper()
	de, ok := domain.AsDomainError(err)
	if !ok {
		t.Fatalf("expected domain error, got %v", err)
	}
	if de.Status != status || de.Message != message {
		t.Fatalf("expected %d %q, got %d %q", status, message, de.Status, de.Message)
	}
}

func TestIdentityService_Register_Success(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Register(context.Background(), "alice", "a@x.com", "secret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if result.User.ID == "" || result.User.Username != "alice" || result.User.Email != "a@x.com" {
		t.Fatalf("unexpected public view: %+v", result.User)
	}
	if result.SessionID == "" {
		t.Fatal("expected session id")
	}

	stored := f.store.creds[result.User.ID]
	if stored == nil {
		t.Fatal("credential not persisted")
	}
	if stored.Role != domain.RoleUser {
		t.Fatalf("expected role USER, got %s", stored.Role)
	}
	if stored.PasswordHash == "secret" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	for _, token := range []string{result.AccessToken, result.RefreshToken} {
		claims, err := f.tokens.Validate(token)
		if err != nil {
			t.Fatalf("issued token invalid: %v", err)
		}
		if claims.UserID != result.User.ID || claims.Username != "alice" || claims.Role != domain.RoleUser {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	}

	if len(f.events.created) != 1 || f.events.created[0] != result.User.ID {
		t.Fatalf("expected one create event for %s, got %v", result.User.ID, f.events.created)
	}
}

func TestIdentityService_Register_Conflicts(t *testing.T) {
	f := newFixture()

	mustRegister(t, f, "alice", "a@x.com")
	mustRegister(t, f, "bob", "b@x.com")

	cases := []struct {
		name     string
		username string
		email    string
		want     string
	}{
		{"name taken", "alice", "new@x.com", "This name has already taken."},
		{"email taken", "carol", "a@x.com", "This email has already taken."},
		{"both taken", "alice", "b@x.com", "Those name and email have already taken."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tc.username, tc.email, "secret")
			wantDomainError(t, err, http.StatusConflict, tc.want)
		})
	}

	if len(f.events.created) != 2 {
		t.Fatalf("conflicting registrations must not publish events, got %d", len(f.events.created))
	}
}

func TestIdentityService_Authenticate(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	byName, err := f.svc.Authenticate(context.Background(), "alice", "", "secret")
	if err != nil {
		t.Fatalf("authenticate by username failed: %v", err)
	}
	if byName.User.ID != reg.User.ID {
		t.Fatalf("wrong user: %+v", byName.User)
	}
	if byName.SessionID == reg.SessionID {
		t.Fatal("expected a fresh session id")
	}

	if _, err := f.svc.Authenticate(context.Background(), "", "a@x.com", "secret"); err != nil {
		t.Fatalf("authenticate by email failed: %v", err)
	}
}

func TestIdentityService_Authenticate_Failures(t *testing.T) {
	f := newFixture()
	mustRegister(t, f, "alice", "a@x.com")

	_, err := f.svc.Authenticate(context.Background(), "", "", "secret")
	wantDomainError(t, err, http.StatusBadRequest, "Invalid credentials for authentication")

	_, err = f.svc.Authenticate(context.Background(), "alice", "", "wrong")
	wantDomainError(t, err, http.StatusBadRequest, "Invalid password")

	_, err = f.svc.Authenticate(context.Background(), "ghost", "", "secret")
	wantDomainError(t, err, http.StatusNotFound, "Cannot find user with such name or email")
}

func TestIdentityService_AuthenticateByToken(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	result, err := f.svc.AuthenticateByToken(context.Background(), reg.AccessToken)
	if err != nil {
		t.Fatalf("token auth failed: %v", err)
	}
	if result.User.ID != reg.User.ID {
		t.Fatalf("wrong user: %+v", result.User)
	}
	if result.SessionID == reg.SessionID {
		t.Fatal("expected a fresh session id")
	}
}

func TestIdentityService_AuthenticateByToken_Stale(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	// Profile edit after issuance: the live record no longer matches claims.
	f.store.creds[reg.User.ID].Username = "renamed"

	_, err := f.svc.AuthenticateByToken(context.Background(), reg.AccessToken)
	wantDomainError(t, err, http.StatusBadRequest, "Invalid token")
}

func TestIdentityService_AuthenticateByToken_DeletedUser(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	delete(f.store.creds, reg.User.ID)

	_, err := f.svc.AuthenticateByToken(context.Background(), reg.AccessToken)
	wantDomainError(t, err, http.StatusNotFound, "Cannot find user with such id")
}

func TestIdentityService_AuthenticateByToken_Expired(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	expired, err := f.tokens.Issue(reg.User.ID, "alice", domain.RoleUser, -time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = f.svc.AuthenticateByToken(context.Background(), expired)
	wantDomainError(t, err, http.StatusUnauthorized, "Token expired")
}

func TestIdentityService_Update_NoOp(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	_, err := f.svc.Update(context.Background(), reg.User.ID, ports.CredentialPatch{})
	wantDomainError(t, err, http.StatusNoContent, "Nothing to update")

	// Same values count as no change.
	_, err = f.svc.Update(context.Background(), reg.User.ID, ports.CredentialPatch{Username: "alice", Email: "a@x.com"})
	wantDomainError(t, err, http.StatusNoContent, "Nothing to update")

	// A new password without the old one never takes effect.
	_, err = f.svc.Update(context.Background(), reg.User.ID, ports.CredentialPatch{NewPassword: "other"})
	wantDomainError(t, err, http.StatusNoContent, "Nothing to update")
}

func TestIdentityService_Update_Fields(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	view, err := f.svc.Update(context.Background(), reg.User.ID, ports.CredentialPatch{
		Username: "alice2",
		Email:    "a2@x.com",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if view.Username != "alice2" || view.Email != "a2@x.com" {
		t.Fatalf("unexpected view: %+v", view)
	}

	stored := f.store.creds[reg.User.ID]
	if stored.Username != "alice2" || stored.Email != "a2@x.com" {
		t.Fatalf("update not persisted: %+v", stored)
	}
}

func TestIdentityService_Update_Password(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	_, err := f.svc.Update(context.Background(), reg.User.ID, ports.CredentialPatch{
		NewPassword: "next",
		OldPassword: "wrong",
	})
	wantDomainError(t, err, http.StatusBadRequest, "Invalid password")

	if _, err := f.svc.Update(context.Background(), reg.User.ID, ports.CredentialPatch{
		NewPassword: "next",
		OldPassword: "secret",
	}); err != nil {
		t.Fatalf("password update failed: %v", err)
	}

	if _, err := f.svc.Authenticate(context.Background(), "alice", "", "next"); err != nil {
		t.Fatalf("authenticate with new password failed: %v", err)
	}
}

func TestIdentityService_Update_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), "missing", ports.CredentialPatch{Username: "x"})
	wantDomainError(t, err, http.StatusNotFound, "Cannot find user with such id")
}

func TestIdentityService_Delete(t *testing.T) {
	f := newFixture()
	reg := mustRegister(t, f, "alice", "a@x.com")

	if err := f.svc.Delete(context.Background(), reg.User.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(f.events.deleted) != 1 || f.events.deleted[0] != reg.User.ID {
		t.Fatalf("expected one delete event, got %v", f.events.deleted)
	}

	err := f.svc.Delete(context.Background(), reg.User.ID)
	wantDomainError(t, err, http.StatusNotFound, "Cannot find user with such id")
}

func mustRegister(t *testing.T, f *fixture, username, email string) *ports.AuthResult {
	t.Helper()
	result, err := f.svc.Register(context.Background(), username, email, "secret")
	if err != nil {
		t.Fatalf("register %s failed: %v", username, err)
	}
	return result
}
