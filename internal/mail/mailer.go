// Package mail delivers best-effort notification email. Delivery failures
// are logged and never propagated into the primary request flow.
package mail

import (
	"fmt"

	"github.com/pluto-chenxin/game-master-support/internal/config"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends a single message to a single recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// New selects the mailer implementation once at startup: SMTP when email is
// configured, otherwise a log-only mailer.
func New(cfg *config.Config) Mailer {
	if cfg.EmailEnabled && cfg.EmailHost != "" {
		return &SMTPMailer{
			dialer: gomail.NewDialer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword),
			from:   cfg.EmailFrom,
		}
	}
	logrus.Warn("email is not configured, invitation mail will only be logged")
	return &LogMailer{}
}

// SMTPMailer delivers mail over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("Game Master Support <%s>", m.from))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// LogMailer logs messages instead of sending them. Used when no SMTP
// configuration is present.
type LogMailer struct{}

func (*LogMailer) Send(to, subject, body string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("email delivery disabled, message logged instead")
	return nil
}

// InviteMessage builds the mail sent to a prospective user with an
// acceptance link.
func InviteMessage(inviterName, workspaceName, inviteURL string) (subject, body string) {
	subject = fmt.Sprintf("Invitation to join %s on Game Master Support", workspaceName)
	body = fmt.Sprintf(
		"Hi there,\n\n%s has invited you to join the %q workspace in Game Master Support. "+
			"Open the following link to accept the invitation and create your account: %s\n\n"+
			"This link will expire in 7 days.\n\nBest regards,\nThe Game Master Support Team",
		inviterName, workspaceName, inviteURL)
	return subject, body
}

// AddedMessage builds the mail sent to an existing user who was added to a
// workspace directly.
func AddedMessage(inviterName, workspaceName, loginURL string) (subject, body string) {
	subject = fmt.Sprintf("You've been added to %s", workspaceName)
	body = fmt.Sprintf(
		"Hi there,\n\n%s has added you to the %q workspace in Game Master Support. "+
			"You can access it by logging in at %s.\n\nBest regards,\nThe Game Master Support Team",
		inviterName, workspaceName, loginURL)
	return subject, body
}
