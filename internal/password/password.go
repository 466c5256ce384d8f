// Package password wraps the one-way adaptive hash used for stored
// credentials. Both operations are stateless; comparison failures of any kind
// (wrong password, malformed digest) collapse to false so that no parsing
// detail leaks to callers.
package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a bcrypt digest from the plaintext. bcrypt embeds a per-call
// random salt, so two hashes of the same password differ.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Matches reports whether the plaintext corresponds to the digest.
func Matches(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
