package mailer

import (
	"time"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/pkg/logger"
)

// DevMailer logs outbound mail instead of delivering it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendActivationEmail(toEmail, toName, token string, code int) error {
	logger.Info("[DEV MAIL] Activation Email",
		"to", toEmail,
		"name", toName,
		"token", token,
		"code", code,
	)
	return nil
}

func (d *DevMailer) SendPasswordResetEmail(toEmail, toName, token string, code int) error {
	logger.Info("[DEV MAIL] Password Reset Email",
		"to", toEmail,
		"name", toName,
		"token", token,
		"code", code,
	)
	return nil
}

func (d *DevMailer) SendPropertyConfirmation(toEmail, toName, address string) error {
	logger.Info("[DEV MAIL] Property Upload Confirmation",
		"to", toEmail,
		"name", toName,
		"address", address,
	)
	return nil
}

func (d *DevMailer) SendViewingConfirmation(toEmail, toName, address string, date time.Time) error {
	logger.Info("[DEV MAIL] Viewing Confirmation",
		"to", toEmail,
		"name", toName,
		"address", address,
		"date", date.Format("2006-01-02"),
	)
	return nil
}

func (d *DevMailer) SendOwnerViewingAlert(toEmail, toName, requesterName, address string, date time.Time) error {
	logger.Info("[DEV MAIL] Owner Viewing Alert",
		"to", toEmail,
		"name", toName,
		"requester", requesterName,
		"address", address,
		"date", date.Format("2006-01-02"),
	)
	return nil
}

func (d *DevMailer) SendViewingDecision(toEmail, toName, address string, date time.Time, decision domain.Decision) error {
	logger.Info("[DEV MAIL] Viewing Decision",
		"to", toEmail,
		"name", toName,
		"address", address,
		"date", date.Format("2006-01-02"),
		"decision", string(decision),
	)
	return nil
}
