package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/auth-service/internal/core/domain"
	"github.com/clipstream/auth-service/internal/core/ports"
)

// IdentityService composes the credential store, token service, session
// store and event publisher into the register / authenticate / update /
// delete flows. Every flow runs its store work inside one transaction;
// events, tokens and sessions are produced only after the commit.
type IdentityService struct {
	store      ports.CredentialStore
	tokens     ports.TokenService
	sessions   ports.SessionStore
	events     ports.EventPublisher
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewIdentityService(
	store ports.CredentialStore,
	tokens ports.TokenService,
	sessions ports.SessionStore,
	events ports.EventPublisher,
	accessTTL, refreshTTL time.Duration,
	log zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		store:      store,
		tokens:     tokens,
		sessions:   sessions,
		events:     events,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

// Register creates a credential with role USER, publishes a create event and
// returns the public view with a fresh token pair and session.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*ports.AuthResult, error) {
	if username == "" || email == "" || password == "" {
		return nil, domain.NewBadRequest("Username, email and password are required")
	}

	var created *domain.Credential
	err := s.store.InTx(ctx, func(tx ports.CredentialTx) error {
		matches, err := tx.FindByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			return conflictFor(matches, username)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		created = &domain.Credential{
			ID:           uuid.NewString(),
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			Role:         domain.RoleUser,
			CreatedAt:    time.Now().UTC(),
		}
		// The UNIQUE indexes are the real guarantee; the pre-check above only
		// exists to produce the distinguished conflict messages.
		return tx.Insert(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	s.events.PublishCreated(ctx, created)

	return s.issueFor(ctx, created)
}

// conflictFor maps the duplicate-check result onto the three conflict
// messages: more than one match means both fields collide; a single match is
// attributed to whichever field it shares with the request.
func conflictFor(matches []domain.Credential, username string) error {
	switch {
	case len(matches) > 1:
		return domain.NewConflict("Those name and email have already taken.")
	case matches[0].Username == username:
		return domain.NewConflict("This name has already taken.")
	default:
		return domain.NewConflict("This email has already taken.")
	}
}

// Authenticate verifies a password against the stored hash for the
// credential matching the given username or email.
func (s *IdentityService) Authenticate(ctx context.Context, username, email, password string) (*ports.AuthResult, error) {
	if username == "" && email == "" {
		return nil, domain.NewBadRequest("Invalid credentials for authentication")
	}

	var cred *domain.Credential
	err := s.store.InTx(ctx, func(tx ports.CredentialTx) error {
		matches, err := tx.FindByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return domain.NewNotFound("Cannot find user with such name or email")
		}
		cred = &matches[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, domain.NewBadRequest("Invalid password")
	}

	return s.issueFor(ctx, cred)
}

// AuthenticateByToken validates a token, re-loads the live credential and
// cross-checks the claims against it. Tokens are not revocable, so this
// re-check is the only defense against tokens outliving profile edits or
// deletes; the new pair is issued from the live record, never from claims.
func (s *IdentityService) AuthenticateByToken(ctx context.Context, token string) (*ports.AuthResult, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	var cred *domain.Credential
	err = s.store.InTx(ctx, func(tx ports.CredentialTx) error {
		cred, err = tx.FindByID(ctx, claims.UserID)
		if err != nil {
			return err
		}
		if cred == nil {
			return domain.NewNotFound("Cannot find user with such id")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cred.Username != claims.Username || cred.Role != claims.Role {
		return nil, domain.NewBadRequest("Invalid token")
	}

	return s.issueFor(ctx, cred)
}

// Update applies the present patch fields to the credential. A password
// change takes effect only when the old password verifies. When nothing
// effectively changed the flow aborts with the no-content signal.
func (s *IdentityService) Update(ctx context.Context, id string, patch ports.CredentialPatch) (*domain.PublicView, error) {
	var view domain.PublicView
	err := s.store.InTx(ctx, func(tx ports.CredentialTx) error {
		cred, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cred == nil {
			return domain.NewNotFound("Cannot find user with such id")
		}

		changed := false
		if patch.Username != "" && patch.Username != cred.Username {
			cred.Username = patch.Username
			changed = true
		}
		if patch.Email != "" && patch.Email != cred.Email {
			cred.Email = patch.Email
			changed = true
		}
		if patch.NewPassword != "" && patch.OldPassword != "" {
			if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(patch.OldPassword)) != nil {
				return domain.NewBadRequest("Invalid password")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(patch.NewPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			cred.PasswordHash = string(hash)
			changed = true
		}

		if !changed {
			return domain.NewNoContent("Nothing to update")
		}

		if err := tx.Update(ctx, cred); err != nil {
			return err
		}
		view = cred.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Msg("user updated")
	return &view, nil
}

// Delete removes the credential and publishes a delete event after commit.
func (s *IdentityService) Delete(ctx context.Context, id string) error {
	var deleted *domain.Credential
	err := s.store.InTx(ctx, func(tx ports.CredentialTx) error {
		cred, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cred == nil {
			return domain.NewNotFound("Cannot find user with such id")
		}
		deleted = cred
		return tx.Delete(ctx, cred)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("user_id", deleted.ID).Msg("user deleted")
	s.events.PublishDeleted(ctx, deleted)
	return nil
}

// issueFor creates a session and an access/refresh token pair from the live
// credential record.
func (s *IdentityService) issueFor(ctx context.Context, cred *domain.Credential) (*ports.AuthResult, error) {
	sessionID, err := s.sessions.Create(ctx, cred.ID, cred.Username, cred.Role)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.Issue(cred.ID, cred.Username, cred.Role, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(cred.ID, cred.Username, cred.Role, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &ports.AuthResult{
		User:         cred.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sessionID,
	}, nil
}

var _ ports.IdentityService = (*IdentityService)(nil)
