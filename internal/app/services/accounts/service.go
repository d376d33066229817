// Package accounts implements signup, email confirmation, login and password
// reset for user accounts.
package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/harborline/fleetd/internal/app/auth"
	"github.com/harborline/fleetd/internal/app/domain/user"
	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/logging"
	"github.com/harborline/fleetd/internal/mailer"
)

// Service manages user accounts and credentials.
type Service struct {
	users  storage.UserStore
	tokens *auth.Manager
	mail   mailer.Sender
	log    *logging.Logger
}

// New creates the accounts service.
func New(users storage.UserStore, tokens *auth.Manager, mail mailer.Sender, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("accounts")
	}
	if mail == nil {
		mail = mailer.NewNoop(log)
	}
	return &Service{users: users, tokens: tokens, mail: mail, log: log}
}

func newCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Signup registers a new account and mails the confirmation code. Delivery
// failures are logged; the account still exists and can be confirmed later.
func (s *Service) Signup(ctx context.Context, email, password, name, institution, contact string) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, errors.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return user.User{}, errors.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, errors.Internal("hash password", err)
	}
	code, err := newCode()
	if err != nil {
		return user.User{}, errors.Internal("generate confirmation code", err)
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Institution:  institution,
		Contact:      contact,
		ConfirmCode:  code,
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return user.User{}, errors.Conflict("an account with this email already exists")
		}
		return user.User{}, errors.Internal("create user", err)
	}

	body := fmt.Sprintf("Welcome aboard. Confirm your account with code %s.", code)
	if err := s.mail.Send(ctx, email, "Confirm your account", body); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("email", email).Warn("confirmation email delivery failed")
	}
	return created, nil
}

// Confirm marks the account's email as verified when the code matches.
func (s *Service) Confirm(ctx context.Context, email, code string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.InvalidCode("invalid confirmation code")
		}
		return errors.Internal("resolve user", err)
	}
	if u.EmailConfirmed {
		return nil
	}
	if code == "" || u.ConfirmCode != code {
		return errors.InvalidCode("invalid confirmation code")
	}

	u.EmailConfirmed = true
	u.ConfirmCode = ""
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return errors.Internal("update user", err)
	}
	return nil
}

// Login verifies credentials and issues an access token. Unknown email, bad
// password and unconfirmed email all surface as Unauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (string, user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return "", user.User{}, errors.Unauthorized("invalid credentials")
		}
		return "", user.User{}, errors.Internal("resolve user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.log.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"email": u.Email})
		return "", user.User{}, errors.Unauthorized("invalid credentials")
	}
	if !u.EmailConfirmed {
		return "", user.User{}, errors.Unauthorized("email not confirmed")
	}

	token, err := s.tokens.Issue(u.ID, u.Email, "user")
	if err != nil {
		return "", user.User{}, errors.Internal("issue token", err)
	}
	return token, u, nil
}

// RequestPasswordReset issues a reset code. An unknown email is not an error,
// so the endpoint does not leak which addresses have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			s.log.WithContext(ctx).WithField("email", email).Debug("password reset requested for unknown email")
			return nil
		}
		return errors.Internal("resolve user", err)
	}

	code, err := newCode()
	if err != nil {
		return errors.Internal("generate reset code", err)
	}
	u.ResetCode = code
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return errors.Internal("update user", err)
	}

	body := fmt.Sprintf("Reset your password with code %s.", code)
	if err := s.mail.Send(ctx, u.Email, "Password reset", body); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("email", u.Email).Warn("reset email delivery failed")
	}
	return nil
}

// ResetPassword redeems a reset code and installs the new password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.Validation("password must be at least 8 characters")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.InvalidCode("invalid reset code")
		}
		return errors.Internal("resolve user", err)
	}
	if code == "" || u.ResetCode != code {
		return errors.InvalidCode("invalid reset code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("hash password", err)
	}
	u.PasswordHash = string(hash)
	u.ResetCode = ""
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return errors.Internal("update user", err)
	}
	s.log.LogSecurityEvent(ctx, "password_reset", map[string]interface{}{"user_id": u.ID})
	return nil
}
