package assertion

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// Keys holds the broker's registered application identity and the RSA private
// key used to sign identity assertions. Loaded once at startup; a missing or
// malformed key is a configuration fault and must fail fast rather than
// surfacing deep inside a request handler.
type Keys struct {
	ApplicationID string
	PrivateKey    *rsa.PrivateKey
}

// LoadKeys decodes a base64-encoded PEM private key and pairs it with the
// application id registered at the open-banking provider.
func LoadKeys(applicationID, privateKeyBase64 string) (*Keys, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("[LoadKeys] APPLICATION_ID is not set")
	}
	if privateKeyBase64 == "" {
		return nil, fmt.Errorf("[LoadKeys] PRIVATE_KEY is not set")
	}

	pemData, err := base64.StdEncoding.DecodeString(privateKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("[LoadKeys] failed to base64-decode private key: %w", err)
	}

	privateKey, err := parseRSAPrivateKeyFromPEM(pemData)
	if err != nil {
		return nil, fmt.Errorf("[LoadKeys] %w", err)
	}

	return &Keys{
		ApplicationID: applicationID,
		PrivateKey:    privateKey,
	}, nil
}

// parseRSAPrivateKeyFromPEM accepts both PKCS#1 and PKCS#8 encodings, since
// provider consoles export either depending on how the key was generated.
func parseRSAPrivateKeyFromPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if privKey, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return privKey, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}

	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return rsaKey, nil
}
