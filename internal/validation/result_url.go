package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
)

var forbiddenHosts = []string{
	"localhost",
	"127.0.0.1",
	"::1",
	"0.0.0.0",
	"169.254.169.254",
}

// ValidateResultURL checks an absolute result URL before it is fetched.
// Hosts equal to trustedHost (the collaborator's host:port) are always
// allowed; any other host must be public.
func ValidateResultURL(raw, trustedHost string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", errpkg.ErrUnsafeURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q: unsupported scheme", errpkg.ErrUnsafeURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q: missing host", errpkg.ErrUnsafeURL, raw)
	}

	if trustedHost != "" && strings.EqualFold(u.Host, trustedHost) {
		return nil
	}

	if err := validate.Var(raw, "required,safe_url"); err != nil {
		return fmt.Errorf("%w: %q: private or local host", errpkg.ErrUnsafeURL, raw)
	}
	return nil
}

func validateSafeURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}

	host := u.Hostname()
	for _, forbidden := range forbiddenHosts {
		if strings.EqualFold(host, forbidden) {
			return false
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return false
		}
	}

	return true
}
