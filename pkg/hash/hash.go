package hash

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor used for stored passwords.
const Cost = 10

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are cut to it
// both when hashing and when comparing.
const MaxPasswordBytes = 72

func clip(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword(clip(password), Cost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), clip(password)) == nil
}
