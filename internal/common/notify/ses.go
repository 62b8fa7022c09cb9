package notify

import (
	"context"

	awsclients "client-onboarding/internal/common/aws"
	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESNotifier sends mail through Amazon SES.
type SESNotifier struct {
	client awsclients.SESService
	from   string
	to     string
	logger logger.Logger
}

func NewSESNotifier(client awsclients.SESService, from, to string, log logger.Logger) *SESNotifier {
	return &SESNotifier{client: client, from: from, to: to, logger: scoped(log, ProviderSES)}
}

func (n *SESNotifier) Notify(ctx context.Context, subject, htmlBody string) error {
	out, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{n.to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return apperrors.NewNotifyFailedError(ProviderSES, err)
	}
	n.logger.Info("approval email sent", map[string]interface{}{
		"to":        n.to,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}
