package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/user"
	"github.com/peladahub/pelada-api/internal/infrastructure/repository/memory"
	"github.com/peladahub/pelada-api/internal/platform/token"
)

type staticIssuer struct {
	token     string
	expiresAt time.Time
}

func (i staticIssuer) Issue(user.User) (string, time.Time, error) {
	return i.token, i.expiresAt, nil
}

// recordingNotifier captures outgoing mail so tests can assert on the tokens
// embedded in the links.
type recordingNotifier struct {
	confirmations []string
	resets        []string
	invitations   []InvitationMail
}

func (n *recordingNotifier) AccountConfirmation(_ context.Context, _, _, token string) {
	n.confirmations = append(n.confirmations, token)
}

func (n *recordingNotifier) PasswordReset(_ context.Context, _, _, token string) {
	n.resets = append(n.resets, token)
}

func (n *recordingNotifier) Invitations(_ context.Context, mails []InvitationMail) {
	n.invitations = append(n.invitations, mails...)
}

type accountFixture struct {
	svc       *AccountService
	userRepo  *memory.UserRepository
	groupRepo *memory.GroupRepository
	notifier  *recordingNotifier
	group     group.Group
	now       time.Time
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	userRepo := memory.NewUserRepository()
	groupRepo := memory.NewGroupRepository()
	notifier := &recordingNotifier{}

	g, err := groupRepo.Create(t.Context(), group.Group{Name: "Pelada de Quarta"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := staticIssuer{token: "access-token", expiresAt: now.Add(time.Hour)}
	svc := NewAccountService(userRepo, groupRepo, token.NewRandomGenerator(), issuer, notifier, 2*time.Hour)
	svc.now = func() time.Time { return now }

	return &accountFixture{
		svc:       svc,
		userRepo:  userRepo,
		groupRepo: groupRepo,
		notifier:  notifier,
		group:     g,
		now:       now,
	}
}

func (f *accountFixture) register(t *testing.T, email string) user.User {
	t.Helper()

	u, err := f.svc.Register(t.Context(), RegisterInput{
		Name:     "Rafa",
		Email:    email,
		Password: "segredo",
		GroupID:  f.group.ID,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestAccountService_Register_CreatesInactiveUser(t *testing.T) {
	f := newAccountFixture(t)

	u := f.register(t, "  Rafa@Pelada.example.COM ")

	if u.Email != "rafa@pelada.example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.IsActive {
		t.Fatalf("expected inactive account before confirmation")
	}
	if u.Status != user.StatusAvulso {
		t.Fatalf("expected avulso default, got %s", u.Status)
	}
	if u.ConfirmationToken == nil {
		t.Fatalf("expected confirmation token")
	}
	if len(f.notifier.confirmations) != 1 || f.notifier.confirmations[0] != *u.ConfirmationToken {
		t.Fatalf("expected confirmation mail with token, got %v", f.notifier.confirmations)
	}
}

func TestAccountService_Register_RejectsDuplicateEmail(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "rafa@pelada.example.com")

	_, err := f.svc.Register(t.Context(), RegisterInput{
		Name:     "Outro Rafa",
		Email:    "RAFA@pelada.example.com",
		Password: "segredo",
		GroupID:  f.group.ID,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAccountService_Register_RejectsUnknownGroup(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Register(t.Context(), RegisterInput{
		Name:     "Rafa",
		Email:    "rafa@pelada.example.com",
		Password: "segredo",
		GroupID:  999,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAccountService_Login(t *testing.T) {
	f := newAccountFixture(t)
	u := f.register(t, "rafa@pelada.example.com")

	// Unconfirmed accounts are rejected even with the right password.
	if _, err := f.svc.Login(t.Context(), u.Email, "segredo"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied before confirmation, got %v", err)
	}

	if _, _, err := f.svc.Confirm(t.Context(), *u.ConfirmationToken); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := f.svc.Login(t.Context(), u.Email, "errada"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong password, got %v", err)
	}
	if _, err := f.svc.Login(t.Context(), "ninguem@pelada.example.com", "segredo"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown email, got %v", err)
	}

	out, err := f.svc.Login(t.Context(), "RAFA@pelada.example.com", "segredo")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.AccessToken != "access-token" {
		t.Fatalf("unexpected access token: %q", out.AccessToken)
	}
	if out.User.ID != u.ID {
		t.Fatalf("unexpected user in login output: %d", out.User.ID)
	}
}

func TestAccountService_Confirm_ActivatesOnce(t *testing.T) {
	f := newAccountFixture(t)
	u := f.register(t, "rafa@pelada.example.com")
	confirmationToken := *u.ConfirmationToken

	confirmed, confirmedNow, err := f.svc.Confirm(t.Context(), confirmationToken)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmedNow {
		t.Fatalf("expected first confirmation to report confirmedNow")
	}
	if !confirmed.IsActive || confirmed.ConfirmationToken != nil {
		t.Fatalf("unexpected user state after confirmation: %+v", confirmed)
	}

	// Replaying the link resolves through the last confirmation token and is
	// reported as already confirmed instead of failing.
	again, confirmedNow, err := f.svc.Confirm(t.Context(), confirmationToken)
	if err != nil {
		t.Fatalf("replayed confirm: %v", err)
	}
	if confirmedNow {
		t.Fatalf("expected replay to report already confirmed")
	}
	if again.ID != u.ID {
		t.Fatalf("unexpected user on replay: %d", again.ID)
	}
}

func TestAccountService_Confirm_UnknownToken(t *testing.T) {
	f := newAccountFixture(t)

	if _, _, err := f.svc.Confirm(t.Context(), "nao-existe"); !errors.Is(err, ErrStaleToken) {
		t.Fatalf("expected ErrStaleToken, got %v", err)
	}
	if _, _, err := f.svc.Confirm(t.Context(), "  "); !errors.Is(err, ErrStaleToken) {
		t.Fatalf("expected ErrStaleToken for blank token, got %v", err)
	}
}

func TestAccountService_ForgotPassword_DoesNotLeakExistence(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "rafa@pelada.example.com")

	if err := f.svc.ForgotPassword(t.Context(), "ninguem@pelada.example.com"); err != nil {
		t.Fatalf("forgot password for unknown email: %v", err)
	}
	if len(f.notifier.resets) != 0 {
		t.Fatalf("expected no reset mail for unknown email")
	}

	if err := f.svc.ForgotPassword(t.Context(), "rafa@pelada.example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if len(f.notifier.resets) != 1 {
		t.Fatalf("expected one reset mail, got %d", len(f.notifier.resets))
	}
}

func TestAccountService_ResetPassword(t *testing.T) {
	f := newAccountFixture(t)
	u := f.register(t, "rafa@pelada.example.com")
	if _, _, err := f.svc.Confirm(t.Context(), *u.ConfirmationToken); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := f.svc.ForgotPassword(t.Context(), u.Email); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	resetToken := f.notifier.resets[0]

	if err := f.svc.ResetPassword(t.Context(), resetToken, "nova-senha"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := f.svc.Login(t.Context(), u.Email, "segredo"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := f.svc.Login(t.Context(), u.Email, "nova-senha"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// The token is single use.
	if err := f.svc.ResetPassword(t.Context(), resetToken, "outra-senha"); !errors.Is(err, ErrStaleToken) {
		t.Fatalf("expected ErrStaleToken on reuse, got %v", err)
	}
}

func TestAccountService_ResetPassword_ExpiredToken(t *testing.T) {
	f := newAccountFixture(t)
	u := f.register(t, "rafa@pelada.example.com")

	if err := f.svc.ForgotPassword(t.Context(), u.Email); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	resetToken := f.notifier.resets[0]

	f.svc.now = func() time.Time { return f.now.Add(3 * time.Hour) }

	if err := f.svc.ResetPassword(t.Context(), resetToken, "nova-senha"); !errors.Is(err, ErrStaleToken) {
		t.Fatalf("expected ErrStaleToken after expiry, got %v", err)
	}
}

func TestAccountService_EnsureSuperadmin_PromotesExisting(t *testing.T) {
	f := newAccountFixture(t)
	u := f.register(t, "chefe@pelada.example.com")

	if err := f.svc.EnsureSuperadmin(t.Context(), "Chefe", u.Email, "segredo"); err != nil {
		t.Fatalf("ensure superadmin: %v", err)
	}

	promoted, _, err := f.userRepo.GetByID(t.Context(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if promoted.Role != user.RoleSuperadmin {
		t.Fatalf("expected superadmin role, got %s", promoted.Role)
	}

	// Idempotent on the second run.
	if err := f.svc.EnsureSuperadmin(t.Context(), "Chefe", u.Email, "segredo"); err != nil {
		t.Fatalf("ensure superadmin again: %v", err)
	}
}

func TestAccountService_EnsureSuperadmin_CreatesAccountAndGroup(t *testing.T) {
	f := newAccountFixture(t)

	if err := f.svc.EnsureSuperadmin(t.Context(), "Chefe", "chefe@pelada.example.com", "segredo"); err != nil {
		t.Fatalf("ensure superadmin: %v", err)
	}

	created, exists, err := f.userRepo.GetByEmail(t.Context(), "chefe@pelada.example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !exists {
		t.Fatalf("expected superadmin created")
	}
	if created.Role != user.RoleSuperadmin || !created.IsActive {
		t.Fatalf("unexpected superadmin state: %+v", created)
	}

	if _, exists, err := f.groupRepo.GetByName(t.Context(), "Chefe"); err != nil || !exists {
		t.Fatalf("expected default group created, exists=%v err=%v", exists, err)
	}
	if created.GroupID == nil {
		t.Fatalf("expected superadmin attached to a group")
	}

	// Login works immediately, no confirmation round-trip.
	if _, err := f.svc.Login(t.Context(), "chefe@pelada.example.com", "segredo"); err != nil {
		t.Fatalf("login as superadmin: %v", err)
	}
}
