// Package notify delivers approval notifications to the legal team.
package notify

import (
	"context"
	"fmt"

	awsclients "client-onboarding/internal/common/aws"
	"client-onboarding/internal/common/logger"
)

// Provider names accepted by notifications.provider.
const (
	ProviderGraph = "graph"
	ProviderSES   = "ses"
)

// Notifier sends one HTML email to the configured approver mailbox.
type Notifier interface {
	Notify(ctx context.Context, subject, htmlBody string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, subject, htmlBody string) error

func (f NotifierFunc) Notify(ctx context.Context, subject, htmlBody string) error {
	return f(ctx, subject, htmlBody)
}

func scoped(log logger.Logger, provider string) logger.Logger {
	return log.WithFields(map[string]interface{}{"component": "notify", "provider": provider})
}

// Options selects and wires the notification providers.
type Options struct {
	Provider   string
	From       string
	To         string
	Mail       MailAPI
	SES        awsclients.SESService
	SMSEnabled bool
	SMSPhone   string
	SNS        awsclients.SNSService
}

// New builds the configured notifier, decorated with the SMS ping when enabled.
func New(opts Options, log logger.Logger) (Notifier, error) {
	var n Notifier
	switch opts.Provider {
	case ProviderGraph, "":
		if opts.Mail == nil {
			return nil, fmt.Errorf("graph provider requires a mail client")
		}
		n = NewGraphNotifier(opts.Mail, opts.From, opts.To, log)
	case ProviderSES:
		if opts.SES == nil {
			return nil, fmt.Errorf("ses provider requires an SES client")
		}
		n = NewSESNotifier(opts.SES, opts.From, opts.To, log)
	default:
		return nil, fmt.Errorf("unknown notification provider %q", opts.Provider)
	}

	if opts.SMSEnabled {
		if opts.SNS == nil {
			return nil, fmt.Errorf("sms enabled without an SNS client")
		}
		n = WithSMS(n, opts.SNS, opts.SMSPhone, log)
	}
	return n, nil
}
