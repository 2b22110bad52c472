package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// SessionName carries the id of the signed-in session.
	SessionName = "session"
	// ScreenName carries the id of the login screen a browser tab is looking at.
	ScreenName = "login_screen"
)

var ErrInvalidValue = errors.New("invalid cookie value")

// encrypt seals the id together with the cookie name using AES-GCM, so a value
// cannot be moved from one cookie name to another.
func encrypt(id uuid.UUID, secret []byte, cookieName string) (string, error) {
	aesGCM, err := newGCM(secret)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// ':' cannot appear in cookie names, so it is a safe separator.
	plaintext := fmt.Sprintf("%s:%s", cookieName, id.String())

	// Output layout is {nonce}{ciphertext}.
	encryptedValue := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.URLEncoding.EncodeToString(encryptedValue), nil
}

// decrypt authenticates the value and checks it was issued for expectedCookieName.
func decrypt(encrypted string, secret []byte, expectedCookieName string) (uuid.UUID, error) {
	value, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return uuid.Nil, ErrInvalidValue
	}

	aesGCM, err := newGCM(secret)
	if err != nil {
		return uuid.Nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(value) < nonceSize {
		return uuid.Nil, ErrInvalidValue
	}

	nonce := value[:nonceSize]
	ciphertext := value[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return uuid.Nil, ErrInvalidValue
	}

	actualName, idStr, ok := strings.Cut(string(plaintext), ":")
	if !ok || actualName != expectedCookieName {
		return uuid.Nil, ErrInvalidValue
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ErrInvalidValue
	}
	return id, nil
}

func newGCM(secret []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Get reads and decrypts the named cookie.
func Get(r *http.Request, name string, secret []byte) (uuid.UUID, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return uuid.Nil, err
	}

	return decrypt(c.Value, secret, name)
}

// Set writes the named cookie holding the encrypted id.
func Set(w http.ResponseWriter, name string, id uuid.UUID, secret []byte) error {
	encryptedValue, err := encrypt(id, secret, name)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encryptedValue,
		HttpOnly: true,
		// Send cookie to all routes in the app
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the named cookie.
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		Secure:   true,
		MaxAge:   -1,
	})
}
