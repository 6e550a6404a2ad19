package crypto

import "golang.org/x/crypto/bcrypt"

// HashAPIKey returns a bcrypt hash of the supplied agent credential.
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey compares a stored credential hash with the plaintext
// candidate. Anything that is not a valid bcrypt hash (such as the
// anonymization sentinel) fails structurally.
func VerifyAPIKey(hashedKey, apiKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(apiKey)) == nil
}
