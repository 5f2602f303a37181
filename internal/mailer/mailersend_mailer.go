package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/propernest/lettings/internal/domain"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendActivationEmail(toEmail, toName, token string, code int) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Activate your ProperNest account"
	html := fmt.Sprintf(`
		<h2>Welcome to ProperNest!</h2>
		<p>Hi %s,</p>
		<p>Your activation code is: <strong style="font-size: 24px;">%d</strong></p>
		<p>Enter it together with your activation token to verify your account.</p>
		<p>This code expires in 24 hours.</p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, toName, code)

	text := fmt.Sprintf("Your ProperNest activation code is: %d\n\nActivation token: %s\n\nThe code expires in 24 hours.", code, token)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendPasswordResetEmail(toEmail, toName, token string, code int) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Reset your ProperNest password"
	html := fmt.Sprintf(`
		<h2>Password Reset</h2>
		<p>Hi %s,</p>
		<p>Your password reset code is: <strong style="font-size: 24px;">%d</strong></p>
		<p>Use it together with your reset token to choose a new password.</p>
		<p>This code expires in 24 hours.</p>
		<p>If you didn't request a reset, your account is still secure and you can ignore this email.</p>
	`, toName, code)

	text := fmt.Sprintf("Your ProperNest password reset code is: %d\n\nReset token: %s\n\nThe code expires in 24 hours.", code, token)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendPropertyConfirmation(toEmail, toName, address string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your property is now listed"
	html := fmt.Sprintf(`
		<h2>Property Listed</h2>
		<p>Hi %s,</p>
		<p>Your property at <strong>%s</strong> has been uploaded and is now visible to renters.</p>
		<p>You will be notified when someone requests a viewing.</p>
	`, toName, address)

	text := fmt.Sprintf("Your property at %s has been uploaded and is now visible to renters.", address)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendViewingConfirmation(toEmail, toName, address string, date time.Time) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your viewing request was received"
	html := fmt.Sprintf(`
		<h2>Viewing Request Received</h2>
		<p>Hi %s,</p>
		<p>We passed your viewing request for <strong>%s</strong> on <strong>%s</strong> to the landlord.</p>
		<p>You will hear back once they accept or decline.</p>
	`, toName, address, date.Format("2 January 2006"))

	text := fmt.Sprintf("We passed your viewing request for %s on %s to the landlord. You will hear back once they decide.", address, date.Format("2 January 2006"))

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendOwnerViewingAlert(toEmail, toName, requesterName, address string, date time.Time) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "New viewing request for your property"
	html := fmt.Sprintf(`
		<h2>New Viewing Request</h2>
		<p>Hi %s,</p>
		<p><strong>%s</strong> would like to view <strong>%s</strong> on <strong>%s</strong>.</p>
		<p>Log in to accept or decline the request.</p>
	`, toName, requesterName, address, date.Format("2 January 2006"))

	text := fmt.Sprintf("%s would like to view %s on %s. Log in to accept or decline.", requesterName, address, date.Format("2 January 2006"))

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendViewingDecision(toEmail, toName, address string, date time.Time, decision domain.Decision) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	verb, heading := "accepted", "Viewing Request Accepted"
	if decision == domain.DecisionRejected {
		verb, heading = "declined", "Viewing Request Declined"
	}

	subject := fmt.Sprintf("Your viewing request was %s", verb)
	html := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Hi %s,</p>
		<p>The landlord has %s your request to view <strong>%s</strong> on <strong>%s</strong>.</p>
	`, heading, toName, verb, address, date.Format("2 January 2006"))

	text := fmt.Sprintf("The landlord has %s your request to view %s on %s.", verb, address, date.Format("2 January 2006"))

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
