package usecase

import "context"

// InvitationMail is the payload for one invitation email.
type InvitationMail struct {
	Email     string
	Name      string
	Token     string
	GroupName string
}

// Notifier sends transactional email. Implementations deliver asynchronously
// and never surface delivery failures to the caller; a lost email is
// recoverable through the resend flows, a failed request is not.
type Notifier interface {
	AccountConfirmation(ctx context.Context, email, name, token string)
	PasswordReset(ctx context.Context, email, name, token string)
	Invitations(ctx context.Context, mails []InvitationMail)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) AccountConfirmation(context.Context, string, string, string) {}
func (NopNotifier) PasswordReset(context.Context, string, string, string)      {}
func (NopNotifier) Invitations(context.Context, []InvitationMail)              {}
