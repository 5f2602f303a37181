package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/propernest/lettings/internal/domain"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
	}
}

func (s *SMTPMailer) SendActivationEmail(toEmail, toName, token string, code int) error {
	subject := "Activate your ProperNest account"
	text := fmt.Sprintf("Your ProperNest activation code is: %d\n\nActivation token: %s\n\nThe code expires in 24 hours.", code, token)
	html := fmt.Sprintf(`
		<h2>Welcome to ProperNest!</h2>
		<p>Hi %s,</p>
		<p>Your activation code is: <strong style="font-size: 24px;">%d</strong></p>
		<p>Enter it together with your activation token to verify your account.</p>
		<p>This code expires in 24 hours.</p>
	`, toName, code)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendPasswordResetEmail(toEmail, toName, token string, code int) error {
	subject := "Reset your ProperNest password"
	text := fmt.Sprintf("Your ProperNest password reset code is: %d\n\nReset token: %s\n\nThe code expires in 24 hours.", code, token)
	html := fmt.Sprintf(`
		<h2>Password Reset</h2>
		<p>Hi %s,</p>
		<p>Your password reset code is: <strong style="font-size: 24px;">%d</strong></p>
		<p>Use it together with your reset token to choose a new password.</p>
		<p>This code expires in 24 hours.</p>
	`, toName, code)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendPropertyConfirmation(toEmail, toName, address string) error {
	subject := "Your property is now listed"
	text := fmt.Sprintf("Your property at %s has been uploaded and is now visible to renters.", address)
	html := fmt.Sprintf(`
		<h2>Property Listed</h2>
		<p>Hi %s,</p>
		<p>Your property at <strong>%s</strong> has been uploaded and is now visible to renters.</p>
	`, toName, address)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendViewingConfirmation(toEmail, toName, address string, date time.Time) error {
	subject := "Your viewing request was received"
	when := date.Format("2 January 2006")
	text := fmt.Sprintf("We passed your viewing request for %s on %s to the landlord. You will hear back once they decide.", address, when)
	html := fmt.Sprintf(`
		<h2>Viewing Request Received</h2>
		<p>Hi %s,</p>
		<p>We passed your viewing request for <strong>%s</strong> on <strong>%s</strong> to the landlord.</p>
	`, toName, address, when)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendOwnerViewingAlert(toEmail, toName, requesterName, address string, date time.Time) error {
	subject := "New viewing request for your property"
	when := date.Format("2 January 2006")
	text := fmt.Sprintf("%s would like to view %s on %s. Log in to accept or decline.", requesterName, address, when)
	html := fmt.Sprintf(`
		<h2>New Viewing Request</h2>
		<p>Hi %s,</p>
		<p><strong>%s</strong> would like to view <strong>%s</strong> on <strong>%s</strong>.</p>
		<p>Log in to accept or decline the request.</p>
	`, toName, requesterName, address, when)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendViewingDecision(toEmail, toName, address string, date time.Time, decision domain.Decision) error {
	verb, heading := "accepted", "Viewing Request Accepted"
	if decision == domain.DecisionRejected {
		verb, heading = "declined", "Viewing Request Declined"
	}

	subject := fmt.Sprintf("Your viewing request was %s", verb)
	when := date.Format("2 January 2006")
	text := fmt.Sprintf("The landlord has %s your request to view %s on %s.", verb, address, when)
	html := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Hi %s,</p>
		<p>The landlord has %s your request to view <strong>%s</strong> on <strong>%s</strong>.</p>
	`, heading, toName, verb, address, when)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) sendEmail(toEmail, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// Text part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	// HTML part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth, no TLS)
	if !s.UseTLS && s.User == "" {
		return smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	// Try plain SMTP first (with STARTTLS if supported)
	if err := smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes()); err == nil {
		return nil
	}

	// Fallback to implicit TLS (port 465)
	if s.UseTLS {
		tlsCfg := &tls.Config{ServerName: s.Host, InsecureSkipVerify: false}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if s.User != "" {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}

		if err := c.Mail(s.From); err != nil {
			return err
		}
		if err := c.Rcpt(toEmail); err != nil {
			return err
		}

		w, err := c.Data()
		if err != nil {
			return err
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}

		return w.Close()
	}

	return fmt.Errorf("smtp send failed")
}
