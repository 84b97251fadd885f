package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Sealer encrypts and authenticates cookie values with NaCl secretbox.
type Sealer struct {
	key [keySize]byte
}

// NewSealer uses key, or a random key when key is empty. A random key means
// browser sessions do not survive a restart.
func NewSealer(key []byte) (*Sealer, error) {
	s := &Sealer{}
	switch len(key) {
	case 0:
		if _, err := rand.Read(s.key[:]); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	case keySize:
		copy(s.key[:], key)
	default:
		return nil, fmt.Errorf("session key must be %d bytes, got %d", keySize, len(key))
	}
	return s, nil
}

// Seal returns the URL-safe sealed form of plaintext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. It reports false for anything tampered with or sealed
// under another key.
func (s *Sealer) Open(sealed string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", false
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", false
	}
	return string(plain), true
}

// CookieOptions configures the token cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// CookieStore keeps one browser's token in a sealed cookie. It lives for a
// single request: the token is read from the request once and writes become
// Set-Cookie headers on the response.
type CookieStore struct {
	w      http.ResponseWriter
	sealer *Sealer
	opts   CookieOptions

	mu      sync.Mutex
	token   string
	present bool
}

// NewCookieStore reads the sealed token carried by r, if any.
func NewCookieStore(w http.ResponseWriter, r *http.Request, sealer *Sealer, opts CookieOptions) *CookieStore {
	cs := &CookieStore{w: w, sealer: sealer, opts: opts}
	if c, err := r.Cookie(opts.Name); err == nil {
		cs.present = true
		if token, ok := sealer.Open(c.Value); ok {
			cs.token = token
		}
	}
	return cs
}

func (c *CookieStore) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *CookieStore) SetToken(token string) error {
	sealed, err := c.sealer.Seal(token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.token = token
	c.present = true
	c.mu.Unlock()

	http.SetCookie(c.w, c.cookie(sealed, int(c.opts.MaxAge/time.Second)))
	return nil
}

func (c *CookieStore) ClearToken() error {
	c.mu.Lock()
	had := c.present
	c.token = ""
	c.present = false
	c.mu.Unlock()

	if had {
		http.SetCookie(c.w, c.cookie("", -1))
	}
	return nil
}

func (c *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.opts.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
