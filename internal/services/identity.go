package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/cryptox"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/fxkeeper/internal/validation"
)

// IdentityService defines the account lifecycle.
//
// Contract:
//   - Register: validate every field, reject taken emails, store a hashed
//     credential and sign the new account in.
//   - Login: (nil, nil) when email or credential do not match; malformed
//     input is rejected before storage is consulted.
//   - Logout: return to anonymous.
//   - Update: change name/email and optionally the credential of an account.
//   - Delete: remove an account with its history, signing it out if active.
type IdentityService interface {
	ValidateName(name string) error
	ValidateEmail(email string) error
	ValidateCredential(credential string) error

	Register(ctx context.Context, name, email, credential string) (int64, error)
	Login(ctx context.Context, email, credential string) (*models.Account, error)
	Logout(ctx context.Context) error
	Update(ctx context.Context, upd AccountUpdate) (*models.Account, error)
	Delete(ctx context.Context, id int64) error
}

// AccountUpdate carries new values for an account. An empty Credential keeps
// the stored one.
type AccountUpdate struct {
	ID         int64
	Name       string
	Email      string
	Credential string
}

type identityService struct {
	accounts  accounts.Repository
	session   SessionCache
	hasher    cryptox.Hasher
	validator *validation.Validator
	log       logging.Logger
}

func NewIdentityService(repo accounts.Repository, sess SessionCache, hasher cryptox.Hasher,
	v *validation.Validator, log logging.Logger) IdentityService {
	if log == nil {
		log = logging.Discard()
	}
	return &identityService{
		accounts:  repo,
		session:   sess,
		hasher:    hasher,
		validator: v,
		log:       log.With("component", "identity"),
	}
}

func (s *identityService) ValidateName(name string) error { return s.validator.ValidateName(name) }

func (s *identityService) ValidateEmail(email string) error {
	return s.validator.ValidateEmail(email)
}

func (s *identityService) ValidateCredential(credential string) error {
	return s.validator.ValidateCredential(credential)
}

func (s *identityService) Register(ctx context.Context, name, email, credential string) (int64, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := s.validator.ValidateAccount(name, email, credential); err != nil {
		return 0, err
	}

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return 0, s.fault(ctx, "register", err)
	}
	if existing != nil {
		return 0, common.ErrDuplicateEmail
	}

	hash, err := s.hash(credential)
	if err != nil {
		return 0, err
	}

	acc := &models.Account{Name: name, Email: email, Credential: hash}
	id, err := s.accounts.Insert(ctx, acc)
	if err != nil {
		return 0, s.fault(ctx, "register", err)
	}
	acc.ID = id
	s.log.Info(ctx, "account registered", "account_id", id)

	if err := s.session.Activate(ctx, acc); err != nil {
		return id, fmt.Errorf("account %d created but not signed in: %w", id, s.fault(ctx, "activate session", err))
	}
	return id, nil
}

func (s *identityService) Login(ctx context.Context, email, credential string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	if err := validation.Join(s.validator.ValidateEmail(email), s.validator.RequireCredential(credential)); err != nil {
		return nil, err
	}

	acc, err := s.accounts.FindByCredentials(ctx, email, credential)
	if err != nil {
		return nil, s.fault(ctx, "login", err)
	}
	if acc == nil {
		s.log.Info(ctx, "login rejected")
		return nil, nil
	}

	if err := s.session.Activate(ctx, acc); err != nil {
		return nil, s.fault(ctx, "activate session", err)
	}
	s.log.Info(ctx, "logged in", "account_id", acc.ID)
	return acc, nil
}

func (s *identityService) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return s.fault(ctx, "logout", err)
	}
	return nil
}

func (s *identityService) Update(ctx context.Context, upd AccountUpdate) (*models.Account, error) {
	if upd.ID <= 0 {
		return nil, fmt.Errorf("%w: account id must be positive", common.ErrInvalidArgument)
	}

	upd.Name, upd.Email = strings.TrimSpace(upd.Name), strings.TrimSpace(upd.Email)
	checks := []error{s.validator.ValidateName(upd.Name), s.validator.ValidateEmail(upd.Email)}
	if upd.Credential != "" {
		checks = append(checks, s.validator.ValidateCredential(upd.Credential))
	}
	if err := validation.Join(checks...); err != nil {
		return nil, err
	}

	current, err := s.accounts.FindByID(ctx, upd.ID)
	if err != nil {
		return nil, s.fault(ctx, "update", err)
	}
	if current == nil {
		return nil, common.ErrNotFound
	}

	other, err := s.accounts.FindByEmail(ctx, upd.Email)
	if err != nil {
		return nil, s.fault(ctx, "update", err)
	}
	if other != nil && other.ID != upd.ID {
		return nil, common.ErrDuplicateEmail
	}

	updated := &models.Account{ID: upd.ID, Name: upd.Name, Email: upd.Email, Credential: current.Credential}
	if upd.Credential != "" {
		if updated.Credential, err = s.hash(upd.Credential); err != nil {
			return nil, err
		}
	}

	if err := s.accounts.Update(ctx, updated); err != nil {
		return nil, s.fault(ctx, "update", err)
	}
	s.log.Info(ctx, "account updated", "account_id", updated.ID)

	if active := s.session.Current().Account; active != nil && active.ID == updated.ID {
		if err := s.session.Activate(ctx, updated); err != nil {
			return updated, s.fault(ctx, "refresh session", err)
		}
	}
	return updated, nil
}

func (s *identityService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: account id must be positive", common.ErrInvalidArgument)
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return s.fault(ctx, "delete", err)
	}
	s.log.Info(ctx, "account deleted", "account_id", id)

	if active := s.session.Current().Account; active != nil && active.ID == id {
		if err := s.session.Clear(ctx); err != nil {
			return s.fault(ctx, "clear session", err)
		}
	}
	return nil
}

// hash encodes credential, reporting a credential the hasher cannot take as
// a validation failure.
func (s *identityService) hash(credential string) (string, error) {
	hash, err := s.hasher.Hash(credential)
	if errors.Is(err, cryptox.ErrCredentialTooLong) {
		return "", validation.NewError(validation.FieldError{
			Field:   validation.FieldCredential,
			Message: "credential is too long for the configured hasher",
		})
	}
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return hash, nil
}

// fault logs storage faults and passes every error through unchanged.
func (s *identityService) fault(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrStorageFault) || errors.Is(err, common.ErrSchemaTooNew) {
		s.log.Error(ctx, op+" failed", "error", err)
	}
	return err
}
