package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GravatarURL returns the deterministic default avatar for an email address.
// The digest follows the gravatar convention: md5 of the trimmed, lower-cased
// address.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	digest := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s", hex.EncodeToString(digest[:]))
}
