package notify

import (
	"context"

	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/common/graph"
	"client-onboarding/internal/common/logger"
)

// MailAPI is the subset of the Graph client used to send mail.
type MailAPI interface {
	SendMail(ctx context.Context, from string, message graph.Message) error
}

// GraphNotifier sends mail from a tenant mailbox through Microsoft Graph.
type GraphNotifier struct {
	api    MailAPI
	from   string
	to     string
	logger logger.Logger
}

func NewGraphNotifier(api MailAPI, from, to string, log logger.Logger) *GraphNotifier {
	return &GraphNotifier{api: api, from: from, to: to, logger: scoped(log, ProviderGraph)}
}

func (n *GraphNotifier) Notify(ctx context.Context, subject, htmlBody string) error {
	msg := graph.Message{
		Subject:      subject,
		Body:         graph.ItemBody{ContentType: "HTML", Content: htmlBody},
		ToRecipients: []graph.Recipient{graph.NewRecipient(n.to)},
	}
	if err := n.api.SendMail(ctx, n.from, msg); err != nil {
		return apperrors.NewNotifyFailedError(ProviderGraph, err)
	}
	n.logger.Info("approval email sent", map[string]interface{}{"to": n.to})
	return nil
}
