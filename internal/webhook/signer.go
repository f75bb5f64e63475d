package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign computes the hex-encoded HMAC-SHA256 signature over the canonical
// request string: method, path, Unix timestamp, and body, joined by
// newlines. The receiver recomputes the same string to verify.
func Sign(secret []byte, method, path string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s\n%s\n%d\n", method, path, timestamp)
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}
