package config

import (
	"strconv"
	"time"
)

// BankingConfig carries everything needed to talk to the upstream open-banking API:
// the registered application identity, its signing key, and where the bank should
// redirect the end user after authorization.
type BankingConfig interface {
	GetApplicationID() string
	GetPrivateKeyBase64() string
	GetBankingAPIURL() string
	GetRedirectURL() string
	GetUpstreamTimeout() time.Duration
}

type Banking struct{}

var _ BankingConfig = Banking{}

// GetApplicationID returns the application id registered with the open-banking
// provider. It doubles as the key id (kid) in signed assertions.
func (Banking) GetApplicationID() string {
	return GetEnv("APPLICATION_ID", "")
}

// GetPrivateKeyBase64 returns the base64-encoded PEM private key used to sign
// identity assertions.
func (Banking) GetPrivateKeyBase64() string {
	return GetEnv("PRIVATE_KEY", "")
}

func (Banking) GetBankingAPIURL() string {
	return GetEnv("BANKING_API_URL", "https://api.enablebanking.com")
}

// GetRedirectURL returns the URL the bank redirects the end user to after the
// authorization step. It is sent with every payment and access request.
func (Banking) GetRedirectURL() string {
	return GetEnv("REDIRECT_URL", "http://localhost:8080/callback")
}

func (Banking) GetUpstreamTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv("UPSTREAM_TIMEOUT_SECONDS", "30"))
	if err != nil || seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}
