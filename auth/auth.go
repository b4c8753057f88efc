// Package auth issues and checks the credentials that bind a request to an
// account.
//
// A successful login hands out the identity and a token signed with the
// account secret. The secret is created on the first login of an account and
// kept for the lifetime of the process, so credentials stay valid across
// logins and logouts.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/pilotapi/pilotapi/account"
	"github.com/pilotapi/pilotapi/common"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/stats"
)

type Credentials struct {
	Identity string
	Signed   string
}

type Gate struct {
	registry account.Registry
	stat     stats.StatsReceiver
	// Generates account secrets.
	newSecret func() string
}

func NewGate(registry account.Registry, stat stats.StatsReceiver) *Gate {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Gate{registry: registry, stat: stat, newSecret: common.GenUUID}
}

// Login checks the password of identity and returns its credentials.
func (g *Gate) Login(identity, password string) (Credentials, error) {
	acct, ok := g.registry.Lookup(identity)
	if !ok {
		g.stat.Counter(stats.AuthLoginFailureCounter).Inc(1)
		return Credentials{}, errors.Auth(errors.UnknownIdentity, "unknown user %q", identity)
	}
	if !acct.CheckPassword(password) {
		g.stat.Counter(stats.AuthLoginFailureCounter).Inc(1)
		acct.Entry().Info("Login with bad password")
		return Credentials{}, errors.Auth(errors.BadCredential, "bad password for %q", identity)
	}
	secret := acct.EnsureSecret(g.newSecret)
	g.stat.Counter(stats.AuthLoginOkCounter).Inc(1)
	acct.Entry().Info("Logged in")
	return Credentials{Identity: identity, Signed: Sign(secret, identity)}, nil
}

// Logout closes every session of the account behind creds. The credentials
// remain valid.
func (g *Gate) Logout(creds Credentials) error {
	acct, err := g.Authenticate(creds)
	if err != nil {
		return err
	}
	acct.Entry().Info("Logging out")
	return acct.CloseAll()
}

// Authenticate resolves creds to their account.
func (g *Gate) Authenticate(creds Credentials) (*account.Account, error) {
	if creds.Identity == "" || creds.Signed == "" {
		return nil, g.reject("missing credentials")
	}
	acct, ok := g.registry.Lookup(creds.Identity)
	if !ok {
		return nil, g.reject("unknown user %q", creds.Identity)
	}
	secret := acct.Secret()
	if secret == "" || !Verify(secret, creds.Signed, creds.Identity) {
		return nil, g.reject("invalid credentials for %q", creds.Identity)
	}
	return acct, nil
}

func (g *Gate) reject(format string, args ...interface{}) error {
	g.stat.Counter(stats.AuthRejectedCounter).Inc(1)
	return errors.Auth(errors.Unauthenticated, format, args...)
}

var encoding = base64.RawURLEncoding

func mac(secret, payload []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return h.Sum(nil)
}

// Sign returns base64url(identity) "." base64url(HMAC-SHA256(secret, identity)).
func Sign(secret, identity string) string {
	return encoding.EncodeToString([]byte(identity)) + "." +
		encoding.EncodeToString(mac([]byte(secret), []byte(identity)))
}

// Verify reports whether signed was produced by Sign(secret, identity).
func Verify(secret, signed, identity string) bool {
	parts := strings.Split(signed, ".")
	if len(parts) != 2 {
		return false
	}
	payload, err := encoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	sum, err := encoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	if !hmac.Equal(sum, mac([]byte(secret), payload)) {
		return false
	}
	return string(payload) == identity
}
