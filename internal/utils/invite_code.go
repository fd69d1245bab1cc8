package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// inviteAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	inviteGroups    = 3
	inviteGroupSize = 4
)

// GenerateInviteCode returns a product invite code such as "K7QM-2XHD-9PWA".
func GenerateInviteCode() (string, error) {
	raw := make([]byte, inviteGroups*inviteGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}

	var b strings.Builder
	for i, v := range raw {
		if i > 0 && i%inviteGroupSize == 0 {
			b.WriteByte('-')
		}
		// 256 is a multiple of len(inviteAlphabet), so the modulo is unbiased
		b.WriteByte(inviteAlphabet[int(v)%len(inviteAlphabet)])
	}
	return b.String(), nil
}

// NormalizeInviteCode upper-cases a user supplied code and trims blanks
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
