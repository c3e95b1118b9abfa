package validation

import (
	"net/mail"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func ValidateUsername(username string) bool {
	username = NormalizeUsername(username)
	return usernameRe.MatchString(username)
}

func PasswordMinLength() int {
	minStr := os.Getenv("PASSWORD_MIN_LENGTH")
	if minStr == "" {
		return 10
	}
	min, err := strconv.Atoi(minStr)
	if err != nil || min < 8 {
		return 10
	}
	return min
}

func ValidatePassword(password string) bool {
	return len(password) >= PasswordMinLength()
}

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 100000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 100000
	}
	return max
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

// Attachment upload constraints. Drawings ride in message content, so only
// real file uploads pass through here.
var allowedAttachmentMimes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
}

func MaxAttachmentBytes() int64 {
	maxStr := os.Getenv("MAX_ATTACHMENT_BYTES")
	if maxStr == "" {
		return 10 * 1024 * 1024
	}
	max, err := strconv.ParseInt(maxStr, 10, 64)
	if err != nil || max < 1 {
		return 10 * 1024 * 1024
	}
	return max
}

func ValidateAttachmentMime(mime string) bool {
	return allowedAttachmentMimes[strings.ToLower(strings.TrimSpace(mime))]
}

func ValidateAttachmentSize(size int64) bool {
	return size > 0 && size <= MaxAttachmentBytes()
}
