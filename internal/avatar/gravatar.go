// Package avatar derives default avatar references and storage keys.
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the public path under which stored avatars are served.
const URLPrefix = "avatars"

const gravatarBase = "//www.gravatar.com/avatar/"

// Gravatar returns the gravatar reference for email.
func Gravatar(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return gravatarBase + hex.EncodeToString(sum[:])
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key builds a collision-free storage key for an upload by accountID.
// The random component means the same filename never maps to the same key twice.
func Key(accountID uuid.UUID, originalFilename string) string {
	name := unsafeChars.ReplaceAllString(path.Base(strings.ReplaceAll(originalFilename, `\`, "/")), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "avatar"
	}
	return fmt.Sprintf("%s_%s_%s", accountID, uuid.NewString(), name)
}

// URL returns the public reference for a stored key.
func URL(key string) string {
	return path.Join(URLPrefix, key)
}
