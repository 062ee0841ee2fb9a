package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	upperChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars    = "abcdefghijklmnopqrstuvwxyz"
	digitChars    = "0123456789"
	alnumChars    = upperChars + lowerChars + digitChars
	tempPWLength  = 8
)

// GenerateTempPassword returns an 8-character temporary password containing
// at least one uppercase letter, one lowercase letter and one digit, with
// the remaining characters drawn from the full alphanumeric set and the
// whole string shuffled.
func GenerateTempPassword() (string, error) {
	chars := make([]byte, 0, tempPWLength)

	for _, set := range []string{upperChars, lowerChars, digitChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < tempPWLength {
		c, err := randomChar(alnumChars)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates so the guaranteed classes don't sit at fixed positions.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

// SynthesizeLoginEmail derives a driver login email from the driver's name.
// withSuffix appends a timestamp, used on collision with an existing email.
func SynthesizeLoginEmail(name, domain string, withSuffix bool) string {
	local := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, name)
	if local == "" {
		local = "driver"
	}
	if withSuffix {
		local = fmt.Sprintf("%s%d", local, time.Now().Unix())
	}
	return local + "@" + domain
}

func randomChar(set string) (byte, error) {
	i, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
