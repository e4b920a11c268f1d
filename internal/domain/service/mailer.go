package service

import "context"

// Mailer defines the interface for outbound transactional mail.
type Mailer interface {
	// SendPasswordReset mails the reset link to the user. The raw token is
	// embedded in resetURL and never stored server-side.
	SendPasswordReset(ctx context.Context, toEmail, name, resetURL string) error
}
