package mailer

import (
	"time"

	"github.com/propernest/lettings/internal/domain"
)

// Service delivers transactional email. Implementations must be safe for
// concurrent use; callers treat delivery failures as non-fatal.
type Service interface {
	SendActivationEmail(toEmail, toName, token string, code int) error
	SendPasswordResetEmail(toEmail, toName, token string, code int) error
	SendPropertyConfirmation(toEmail, toName, address string) error
	SendViewingConfirmation(toEmail, toName, address string, date time.Time) error
	SendOwnerViewingAlert(toEmail, toName, requesterName, address string, date time.Time) error
	SendViewingDecision(toEmail, toName, address string, date time.Time, decision domain.Decision) error
}
