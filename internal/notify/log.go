package notify

import (
	"context"

	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes verification links to the log instead of mailing them.
// Meant for local development.
type LogNotifier struct {
	baseURL string
	logger  *logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(baseURL string, logger *logger.Logger) *LogNotifier {
	return &LogNotifier{baseURL: baseURL, logger: logger}
}

// SendVerification logs the link.
func (n *LogNotifier) SendVerification(_ context.Context, email, token string) error {
	n.logger.Info("Notifier: verification link",
		"email", email,
		"link", VerificationLink(n.baseURL, token))
	return nil
}
