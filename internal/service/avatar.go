package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/avatar"
)

// UpdateAvatar resizes image, stores it under a fresh key and points the
// account at it. The stored object is removed again if the account update fails.
func (a *Account) UpdateAvatar(ctx context.Context, accountID uuid.UUID, image io.Reader, originalFilename string) (string, error) {
	a.logger.Debug("Account service: updating avatar",
		"account_id", accountID,
		"filename", originalFilename)

	img, err := a.images.Normalize(image)
	if err != nil {
		a.logger.Error("Account service: failed to process avatar",
			"account_id", accountID,
			"error", err.Error())
		return "", fmt.Errorf("failed to process avatar: %w", err)
	}

	key := avatar.Key(accountID, originalFilename)
	if err := a.storage.Upload(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		a.logger.Error("Account service: failed to upload avatar",
			"account_id", accountID,
			"key", key,
			"error", err.Error())
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	avatarURL := avatar.URL(key)
	if err := a.store.SetAvatarURL(ctx, accountID, avatarURL); err != nil {
		a.logger.Error("Account service: failed to set avatar url",
			"account_id", accountID,
			"error", err.Error())
		if delErr := a.storage.Delete(ctx, key); delErr != nil {
			a.logger.Warn("Account service: failed to remove orphaned avatar",
				"key", key,
				"error", delErr.Error())
		}
		return "", fmt.Errorf("failed to set avatar url: %w", err)
	}

	a.logger.Info("Account service: avatar updated",
		"account_id", accountID,
		"avatar_url", avatarURL)

	return avatarURL, nil
}
