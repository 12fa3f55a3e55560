package assertion

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Fixed claim values mandated by the open-banking API: every assertion is
// issued by the platform domain for its API audience.
const (
	Issuer   = "enablebanking.com"
	Audience = "api.enablebanking.com"

	// Validity is the assertion lifetime. A fresh assertion is minted for
	// every outbound call, so the window only needs to outlive a single
	// request round-trip plus clock skew.
	Validity = time.Hour
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// SigningError indicates the assertion could not be produced from the loaded
// key material. It is a configuration fault: callers must surface it as a
// 5xx-class failure, never downgrade to an unsigned call.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("assertion signing failed: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// Minter produces signed, time-bounded identity assertions proving the
// broker's identity to the upstream API.
type Minter interface {
	Mint() (string, error)
}

// JWTMinter signs RS256 assertions with the broker's registered key pair.
// Minting is a pure function of the current time and static key material;
// no state is shared between calls.
type JWTMinter struct {
	keys *Keys
}

func NewJWTMinter(keys *Keys) *JWTMinter {
	return &JWTMinter{keys: keys}
}

// Mint creates a signed assertion valid from now until now+Validity. The key
// id header carries the application id so the API can locate the registered
// public key.
func (m *JWTMinter) Mint() (string, error) {
	if m.keys == nil || m.keys.PrivateKey == nil {
		return "", &SigningError{Err: fmt.Errorf("no signing key material loaded")}
	}

	now := NowTimeFunc()
	claims := jwt.MapClaims{
		"iss": Issuer,
		"aud": Audience,
		"iat": now.Unix(),
		"exp": now.Add(Validity).Unix(),
		"jti": uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = m.keys.ApplicationID

	signed, err := token.SignedString(m.keys.PrivateKey)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return signed, nil
}
