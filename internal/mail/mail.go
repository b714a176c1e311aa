// Package mail composes and delivers outbound email.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

// Message is a plain-text email to a single recipient.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(
	`Hi {{.Name}},

Someone asked to reset the password for your BookBuddy account.
If it was you, open this link to choose a new password:

{{.Link}}

The link works once and expires in {{.Expiry}}.
If you did not ask for this, you can ignore this email.

BookBuddy
`))

// PasswordResetMessage builds the email carrying a reset link.
func PasswordResetMessage(to, name, link string, ttl time.Duration) Message {
	var buf bytes.Buffer
	// Executing a parsed template into a buffer cannot fail for these fields.
	_ = passwordResetTemplate.Execute(&buf, struct {
		Name, Link, Expiry string
	}{name, link, humanDuration(ttl)})

	return Message{
		To:      to,
		Subject: "Reset your BookBuddy password",
		Text:    buf.String(),
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute:
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	default:
		return d.String()
	}
}
