package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HeaderHMAC carries the base64 HMAC-SHA256 of the raw body.
const HeaderHMAC = "X-Shopify-Hmac-Sha256"

// Sign returns the base64 HMAC-SHA256 of body keyed with secret, in the
// form Shopify puts in HeaderHMAC.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret. An empty
// signature or secret never verifies.
func Verify(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}
