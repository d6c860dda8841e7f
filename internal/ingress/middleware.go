package ingress

import (
	"encoding/base64"
	"strings"

	"bithub/internal/errmsg"
	"bithub/internal/events"
	"bithub/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

const (
	forwardedForHeader = "X-Forwarded-For"
	basicPrefix        = "Basic "

	// LocalsKey holds the Authentication of an admitted request.
	LocalsKey = "ingress.authentication"
)

// Middleware rejects requests the guard does not admit before their body
// is read.
func Middleware(g *Guard) fiber.Handler {
	return func(c fiber.Ctx) error {
		sourceIP := ForwardedFor(c.Get(forwardedForHeader))
		creds, _ := ParseBasicAuth(c.Get(fiber.HeaderAuthorization))

		auth, err := g.Admit(sourceIP, creds)
		if err != nil {
			log.Warnf("webhook rejected from %q: %v", sourceIP, err)
			events.Em.WebhookRejected(sourceIP, err.Error())

			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+Realm+`"`)
			return utils.StatusError(c, errmsg.WebhookUnauthorized)
		}

		c.Locals(LocalsKey, auth)
		return c.Next()
	}
}

// ForwardedFor returns the first address of an X-Forwarded-For value.
func ForwardedFor(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}

// ParseBasicAuth decodes an Authorization header of the Basic scheme.
func ParseBasicAuth(header string) (Credentials, bool) {
	if len(header) < len(basicPrefix) || !strings.EqualFold(header[:len(basicPrefix)], basicPrefix) {
		return Credentials{}, false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(basicPrefix):]))
	if err != nil {
		return Credentials{}, false
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return Credentials{}, false
	}

	return Credentials{Username: username, Password: password}, true
}
