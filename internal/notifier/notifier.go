package notifier

import (
	"fmt"

	"github.com/trendr-app/trendr/internal/config"
	"github.com/trendr-app/trendr/internal/notifier/providers"
	"github.com/trendr-app/trendr/internal/report"
)

// Notifier handles sending flow digest notifications
type Notifier struct {
	sender Sender
	toAddr string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier with the given sender
func New(sender Sender, toAddr string) *Notifier {
	return &Notifier{sender: sender, toAddr: toAddr}
}

// NewFromConfig creates a notifier based on configuration
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	var sender Sender

	switch cfg.Provider {
	case "smtp":
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// SendDigest sends a flow digest email
func (n *Notifier) SendDigest(d *report.Digest) error {
	return n.sender.Send(n.toAddr, d.Subject, d.HTMLBody, d.PlainBody)
}
