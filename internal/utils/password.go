package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword checks a supplied password against a stored credential.
// New records store bcrypt hashes. Records imported from the legacy system
// hold the password in plaintext; those are matched by exact comparison so
// existing accounts keep working without a migration. The plaintext scheme
// is a defect of the legacy data, not something new writes ever produce.
func VerifyPassword(stored, plain string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	return stored != "" && stored == plain
}

// TemporaryPassword derives the initial password handed out when a dependent
// account is created. The scheme is deliberately deterministic and documented
// ("vacun" + document id) so the owner can relay it to the dependent; it is
// not a secret and the dependent is expected to change it.
func TemporaryPassword(documentID string) string {
	return "vacun" + documentID
}
