package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotConfigured    = errors.New("webhook secret not configured")
	ErrSignatureInvalid = errors.New("invalid webhook signature")
)

// Header format provider: "t=<unix>,v1=<hex>", hmac-sha256 atas "<t>.<body>".
// Signature dihitung atas raw bytes, jadi verifikasi harus jalan sebelum parse.
const DefaultTolerance = 5 * time.Minute

func computeSignature(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload dipakai test & simulasi provider.
func SignPayload(secret string, timestamp int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, computeSignature(secret, timestamp, body))
}

// VerifySignature: parse header, cek tolerance, constant-time compare.
// Header boleh bawa lebih dari satu v1 (secret rotation di provider).
func VerifySignature(secret, header string, body []byte, now time.Time, tolerance time.Duration) error {
	if header == "" {
		return fmt.Errorf("%w: missing header", ErrSignatureInvalid)
	}

	var ts int64 = -1
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", ErrSignatureInvalid)
			}
			ts = n
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts < 0 || len(sigs) == 0 {
		return fmt.Errorf("%w: malformed header", ErrSignatureInvalid)
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	want := computeSignature(secret, ts, body)
	for _, got := range sigs {
		if hmac.Equal([]byte(want), []byte(got)) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching signature", ErrSignatureInvalid)
}
