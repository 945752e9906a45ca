package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrQRMalformed is returned when a scanned payload cannot be decoded
// into the expected structure.
var ErrQRMalformed = errors.New("malformed qr payload")

// QRPayload is the signed token embedded in a visit's QR code. It is
// generated when a visit is approved and proves at the gate that the
// approval is genuine. IssuedAt is a Unix millisecond timestamp.
type QRPayload struct {
	VisitID   string `json:"visit_id"`
	VisitorID string `json:"visitor_id"`
	IssuedAt  int64  `json:"issued_at"`
	Signature string `json:"sig"`
}

// qrSignature computes the keyed signature over the payload identity
// fields: the first 16 hex characters of
// HMAC-SHA256(secret, "visitID:visitorID:issuedAt").
func qrSignature(secret, visitID, visitorID string, issuedAt int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%s:%d", visitID, visitorID, issuedAt)
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

// SignQRPayload builds a QRPayload for the visit/visitor pair, signed
// with the given secret.
func SignQRPayload(secret, visitID, visitorID string, issuedAt int64) QRPayload {
	return QRPayload{
		VisitID:   visitID,
		VisitorID: visitorID,
		IssuedAt:  issuedAt,
		Signature: qrSignature(secret, visitID, visitorID, issuedAt),
	}
}

// EncodeQRPayload serializes a payload to the base64 JSON string that is
// rendered into the QR image by the client.
func EncodeQRPayload(p QRPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeQRPayload parses a scanned base64 string back into a QRPayload.
// It returns ErrQRMalformed for anything that is not base64 JSON with
// the required fields.
func DecodeQRPayload(raw string) (QRPayload, error) {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return QRPayload{}, ErrQRMalformed
	}
	var p QRPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return QRPayload{}, ErrQRMalformed
	}
	if p.VisitID == "" || p.VisitorID == "" || p.Signature == "" {
		return QRPayload{}, ErrQRMalformed
	}
	return p, nil
}

// VerifyQRPayload recomputes the signature for the payload and compares
// it in constant time against the embedded one.
func VerifyQRPayload(secret string, p QRPayload) bool {
	want := qrSignature(secret, p.VisitID, p.VisitorID, p.IssuedAt)
	return hmac.Equal([]byte(want), []byte(p.Signature))
}
