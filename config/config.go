// Package config reads the gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Provider names accepted in VERIFIER_PROVIDER.
const (
	ProviderAltcha    = "altcha"
	ProviderCap       = "cap"
	ProviderRecaptcha = "recaptcha"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	// Provider selects which verifier guards the submission endpoint.
	Provider string

	AltchaHMACKey string

	CapAPIURL    string
	CapSiteKey   string
	CapSecretKey string

	RecaptchaSecretKey string
	RecaptchaBaseURL   string
	RecaptchaMinScore  string

	// RedisURL switches the replay guard (and event publishing) from
	// in-process to Redis when set.
	RedisURL string

	// CMSBaseURL switches message storage from in-process to the CMS
	// when set. CMSAPISecret signs the service token.
	CMSBaseURL   string
	CMSAPISecret string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() Config {
	return Config{
		ListenAddr:         getenv("LISTEN_ADDR", ":1337"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		Provider:           getenv("VERIFIER_PROVIDER", ProviderAltcha),
		AltchaHMACKey:      os.Getenv("ALTCHA_HMAC_KEY"),
		CapAPIURL:          getenv("CAP_API_URL", "http://localhost:3001"),
		CapSiteKey:         os.Getenv("CAP_SITE_KEY"),
		CapSecretKey:       os.Getenv("CAP_SECRET_KEY"),
		RecaptchaSecretKey: os.Getenv("RECAPTCHA_SECRET_KEY"),
		RecaptchaBaseURL:   os.Getenv("RECAPTCHA_BASE_URL"),
		RecaptchaMinScore:  os.Getenv("RECAPTCHA_MIN_SCORE"),
		RedisURL:           os.Getenv("REDIS_URL"),
		CMSBaseURL:         os.Getenv("CMS_BASE_URL"),
		CMSAPISecret:       os.Getenv("CMS_API_SECRET"),
	}
}

// Validate fails fast on missing secrets for the selected provider.
// There is deliberately no fallback credential of any kind: absent
// configuration stops the process instead of weakening verification.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAltcha:
		if c.AltchaHMACKey == "" {
			return fmt.Errorf("ALTCHA_HMAC_KEY is required for the altcha provider")
		}
	case ProviderCap:
		if c.CapSiteKey == "" || c.CapSecretKey == "" {
			return fmt.Errorf("CAP_SITE_KEY and CAP_SECRET_KEY are required for the cap provider")
		}
	case ProviderRecaptcha:
		if c.RecaptchaSecretKey == "" {
			return fmt.Errorf("RECAPTCHA_SECRET_KEY is required for the recaptcha provider")
		}
	default:
		return fmt.Errorf("unknown verifier provider %q", c.Provider)
	}

	if c.CMSBaseURL != "" && c.CMSAPISecret == "" {
		return fmt.Errorf("CMS_API_SECRET is required when CMS_BASE_URL is set")
	}

	return nil
}
