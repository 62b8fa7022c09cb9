package notify

import (
	"context"

	awsclients "client-onboarding/internal/common/aws"
	"client-onboarding/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SMSNotifier wraps an email notifier and pings the approver by SMS after
// each successful email. SMS failures are logged and never returned.
type SMSNotifier struct {
	next   Notifier
	client awsclients.SNSService
	phone  string
	logger logger.Logger
}

func WithSMS(next Notifier, client awsclients.SNSService, phone string, log logger.Logger) *SMSNotifier {
	return &SMSNotifier{next: next, client: client, phone: phone, logger: scoped(log, "sns")}
}

func (n *SMSNotifier) Notify(ctx context.Context, subject, htmlBody string) error {
	if err := n.next.Notify(ctx, subject, htmlBody); err != nil {
		return err
	}

	_, err := n.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(n.phone),
		Message:     aws.String(subject),
	})
	if err != nil {
		n.logger.Warn("SMS ping failed", map[string]interface{}{"error": err})
	}
	return nil
}
