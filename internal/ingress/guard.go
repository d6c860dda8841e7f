// Package ingress admits webhook deliveries that come from a trusted network
// and present the configured basic auth credentials.
package ingress

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultTrustedCIDR is the GitHub hook source range.
const DefaultTrustedCIDR = "192.30.252.0/22"

// Realm is advertised in WWW-Authenticate challenges.
const Realm = "bithub"

var ErrUnauthorized = errors.New("unauthorized")

// Credentials are the basic auth values presented by a caller.
type Credentials struct {
	Username string
	Password string
}

// Authentication is the marker returned for an admitted request.
type Authentication struct {
	Realm string
}

type Config struct {
	Username string
	// Password is hashed once in New. Ignored when PasswordHash is set.
	Password string
	// PasswordHash is the output of HashPassword.
	PasswordHash string
	TrustedCIDRs []string
}

// Guard is safe for concurrent use; it holds no mutable state.
type Guard struct {
	username     []byte
	passwordHash []byte
	trusted      []netip.Prefix
}

func New(cfg Config) (*Guard, error) {
	hash := []byte(strings.TrimSpace(cfg.PasswordHash))
	if len(hash) == 0 {
		if cfg.Password == "" {
			return nil, errors.New("webhook password is required")
		}

		var err error
		hash, err = HashPassword(cfg.Password, bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	}

	cidrs := cfg.TrustedCIDRs
	if len(cidrs) == 0 {
		cidrs = []string{DefaultTrustedCIDR}
	}

	trusted := make([]netip.Prefix, 0, len(cidrs))
	for _, raw := range cidrs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("parse trusted cidr %q: %w", raw, err)
		}
		trusted = append(trusted, prefix.Masked())
	}

	return &Guard{
		username:     []byte(cfg.Username),
		passwordHash: hash,
		trusted:      trusted,
	}, nil
}

// HashPassword returns the bcrypt hash accepted as Config.PasswordHash.
// The password is reduced to its hex SHA-256 digest first, so every byte
// of it counts regardless of bcrypt's 72 byte input limit.
func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(digest(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash webhook password: %w", err)
	}
	return hash, nil
}

func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

// Admit checks the source address before the credentials.
func (g *Guard) Admit(sourceIP string, creds Credentials) (Authentication, error) {
	if !g.trustedSource(sourceIP) {
		return Authentication{}, fmt.Errorf("%w: untrusted source %q", ErrUnauthorized, sourceIP)
	}

	if subtle.ConstantTimeCompare([]byte(creds.Username), g.username) != 1 {
		return Authentication{}, fmt.Errorf("%w: bad credentials", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword(g.passwordHash, digest(creds.Password)); err != nil {
		return Authentication{}, fmt.Errorf("%w: bad credentials", ErrUnauthorized)
	}

	return Authentication{Realm: Realm}, nil
}

func (g *Guard) trustedSource(sourceIP string) bool {
	sourceIP = strings.TrimSpace(sourceIP)
	if sourceIP == "" {
		return false
	}

	addr, err := netip.ParseAddr(sourceIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range g.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
