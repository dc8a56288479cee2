package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
)

const (
	MsgEmptyURL            = "Please enter a URL"
	MsgInvalidURL          = "Please enter a valid URL"
	MsgUnsupportedPlatform = "Only YouTube, Vimeo, and Google Drive links are supported"
)

var validate *validator.Validate

var languageCodeRe = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("language_code", validateLanguageCode)
	_ = validate.RegisterValidation("safe_url", validateSafeURL)
}

// platformHosts maps hostname fragments to platforms, in match order.
var platformHosts = []struct {
	fragment string
	platform domain.Source
}{
	{"youtube.com", domain.SourceYouTube},
	{"youtu.be", domain.SourceYouTube},
	{"vimeo.com", domain.SourceVimeo},
	{"drive.google.com", domain.SourceGoogleDrive},
}

// ValidateLink checks a user supplied link. Problems are reported in the
// result, never as an error.
func ValidateLink(raw string) domain.LinkValidation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.LinkValidation{Error: MsgEmptyURL}
	}

	if err := validate.Var(raw, "url"); err != nil {
		return domain.LinkValidation{Error: MsgInvalidURL}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return domain.LinkValidation{Error: MsgInvalidURL}
	}

	host := strings.ToLower(u.Hostname())
	for _, p := range platformHosts {
		if strings.Contains(host, p.fragment) {
			return domain.LinkValidation{IsValid: true, Platform: p.platform}
		}
	}

	return domain.LinkValidation{Error: MsgUnsupportedPlatform}
}

func validateLanguageCode(fl validator.FieldLevel) bool {
	return languageCodeRe.MatchString(fl.Field().String())
}
