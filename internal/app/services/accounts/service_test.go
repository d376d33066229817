package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/harborline/fleetd/internal/app/auth"
	"github.com/harborline/fleetd/internal/app/storage/memory"
	"github.com/harborline/fleetd/internal/errors"
)

type captureMailer struct {
	to   []string
	body []string
}

func (c *captureMailer) Send(_ context.Context, to, _ string, body string) error {
	c.to = append(c.to, to)
	c.body = append(c.body, body)
	return nil
}

func newService() (*Service, *memory.Store, *captureMailer) {
	store := memory.New()
	mail := &captureMailer{}
	svc := New(store, auth.NewManager("test-secret", time.Hour), mail, nil)
	return svc, store, mail
}

func TestSignupConfirmLogin(t *testing.T) {
	svc, store, mail := newService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, "Captain@Harborline.test", "seaworthy1", "Cap", "Harborline", "+4712345678")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Email != "captain@harborline.test" {
		t.Fatalf("email should be normalized, got %q", u.Email)
	}
	if len(mail.to) != 1 {
		t.Fatalf("expected confirmation mail, got %d", len(mail.to))
	}

	if _, _, err := svc.Login(ctx, u.Email, "seaworthy1"); !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("login before confirmation should be Unauthorized, got %v", err)
	}

	stored, _ := store.GetUser(ctx, u.ID)
	if err := svc.Confirm(ctx, u.Email, stored.ConfirmCode); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	token, loggedIn, err := svc.Login(ctx, u.Email, "seaworthy1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || loggedIn.ID != u.ID {
		t.Fatalf("unexpected login result: token=%q user=%+v", token, loggedIn)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "not-an-email", "seaworthy1", "", "", ""); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("bad email: expected Validation, got %v", err)
	}
	if _, err := svc.Signup(ctx, "a@b.test", "short", "", "", ""); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("short password: expected Validation, got %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "cap@harborline.test", "seaworthy1", "", "", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Signup(ctx, "CAP@harborline.test", "seaworthy2", "", "", ""); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestConfirmRejectsWrongCode(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "cap@harborline.test", "seaworthy1", "", "", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := svc.Confirm(ctx, "cap@harborline.test", "wrong"); !errors.Is(err, errors.CodeInvalidCode) {
		t.Fatalf("expected InvalidCode, got %v", err)
	}
	if err := svc.Confirm(ctx, "ghost@harborline.test", "wrong"); !errors.Is(err, errors.CodeInvalidCode) {
		t.Fatalf("unknown email: expected InvalidCode, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, "cap@harborline.test", "seaworthy1", "", "", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	stored, _ := store.GetUser(ctx, u.ID)
	if err := svc.Confirm(ctx, u.Email, stored.ConfirmCode); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, _, err := svc.Login(ctx, u.Email, "wrong-password"); !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, store, mail := newService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, "cap@harborline.test", "seaworthy1", "", "", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	stored, _ := store.GetUser(ctx, u.ID)
	if err := svc.Confirm(ctx, u.Email, stored.ConfirmCode); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, u.Email); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(mail.to) != 2 {
		t.Fatalf("expected reset mail, got %d total mails", len(mail.to))
	}

	stored, _ = store.GetUser(ctx, u.ID)
	if stored.ResetCode == "" {
		t.Fatal("reset code should be stored")
	}

	if err := svc.ResetPassword(ctx, u.Email, "wrong", "newpassword1"); !errors.Is(err, errors.CodeInvalidCode) {
		t.Fatalf("wrong code: expected InvalidCode, got %v", err)
	}
	if err := svc.ResetPassword(ctx, u.Email, stored.ResetCode, "newpassword1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, _, err := svc.Login(ctx, u.Email, "seaworthy1"); !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("old password should stop working, got %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "newpassword1"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestRequestResetUnknownEmailIsSilent(t *testing.T) {
	svc, _, mail := newService()

	if err := svc.RequestPasswordReset(context.Background(), "ghost@harborline.test"); err != nil {
		t.Fatalf("unknown email should not error: %v", err)
	}
	if len(mail.to) != 0 {
		t.Fatalf("no mail should be sent for unknown email, got %d", len(mail.to))
	}
}
