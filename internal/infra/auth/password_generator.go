package auth

import (
	"crypto/rand"
	"math/big"

	"bizdir/internal/domain/service"

	"github.com/pkg/errors"
)

// Letters and digits that are easy to confuse when read aloud or retyped (0/O, 1/l/I) are left out.
const (
	passwordLower   = "abcdefghijkmnpqrstuvwxyz"
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordDigits  = "23456789"
	passwordSymbols = "!@#$%&*"

	// PasswordLength is the length of every temporary password.
	PasswordLength = 12
)

var passwordAlphabet = passwordLower + passwordUpper + passwordDigits + passwordSymbols

// randomPasswordGenerator draws temporary passwords from crypto/rand.
type randomPasswordGenerator struct{}

// NewPasswordGenerator is the constructor for randomPasswordGenerator.
func NewPasswordGenerator() service.PasswordGenerator {
	return &randomPasswordGenerator{}
}

// Generate returns a password holding at least one character of every class.
func (g *randomPasswordGenerator) Generate() (string, error) {
	classes := []string{passwordLower, passwordUpper, passwordDigits, passwordSymbols}

	buf := make([]byte, 0, PasswordLength)
	for _, class := range classes {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < PasswordLength {
		c, err := pick(passwordAlphabet)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Shuffle so the class-guaranteed characters are not always in front.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", errors.Wrap(err, "failed to shuffle password")
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}

	return string(buf), nil
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, errors.Wrap(err, "failed to read random source")
	}

	return alphabet[n.Int64()], nil
}
