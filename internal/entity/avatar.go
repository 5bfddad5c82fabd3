package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

const (
	gravatarSize    = 40
	gravatarDefault = "identicon"
	gravatarRating  = "g"
	gravatarHost    = "gravatar.com"
)

// GravatarURL derives the fallback avatar for an email. The result only depends on the
// lower-cased, trimmed address.
func GravatarURL(email string) string {
	digest := sha256.Sum256([]byte(NormalizeEmail(email)))
	return fmt.Sprintf(
		"https://www.gravatar.com/avatar/%s?s=%d&d=%s&r=%s",
		hex.EncodeToString(digest[:]), gravatarSize, gravatarDefault, gravatarRating,
	)
}

// IsUploadedAvatar reports whether avatarURL points at an uploaded image rather than a gravatar
// fallback, whichever email the fallback was derived from.
func IsUploadedAvatar(avatarURL string) bool {
	u, err := url.Parse(strings.TrimSpace(avatarURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host != gravatarHost && !strings.HasSuffix(host, "."+gravatarHost)
}
