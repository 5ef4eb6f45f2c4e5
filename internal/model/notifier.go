package model

import "context"

// Notifier delivers verification links to account owners.
type Notifier interface {
	SendVerification(ctx context.Context, email, verificationToken string) error
}
