// Package qr renders order QR codes carrying an encrypted order reference.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-storefront/internal/models"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidPayload = errors.New("invalid QR payload")

// OrderRef is what the door scanner needs to look an order up.
type OrderRef struct {
	OrderID        string    `json:"orderId"`
	UserID         string    `json:"userId"`
	EventID        string    `json:"eventId"`
	PresentationID string    `json:"presentationId"`
	SeatIDs        []string  `json:"seatIds"`
	IssuedAt       time.Time `json:"issuedAt"`
}

func RefFromOrder(order models.Order, issuedAt time.Time) OrderRef {
	return OrderRef{
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		EventID:        order.EventID,
		PresentationID: order.PresentationID,
		SeatIDs:        order.SeatIDs,
		IssuedAt:       issuedAt.UTC(),
	}
}

type QRGenerator struct {
	aead cipher.AEAD
	size int
}

func NewQRGenerator(secret string) (*QRGenerator, error) {
	if secret == "" {
		return nil, errors.New("QR secret is empty")
	}
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	block, err := aes.NewCipher(hashed[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &QRGenerator{aead: aead, size: 256}, nil
}

// GeneratePNG returns a PNG QR code whose content is the encrypted reference.
func (q *QRGenerator) GeneratePNG(ref OrderRef) ([]byte, error) {
	payload, err := q.Encrypt(ref)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(payload, qrcode.Medium, q.size)
}

func (q *QRGenerator) Encrypt(ref OrderRef) (string, error) {
	data, err := json.Marshal(ref)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, q.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := q.aead.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func (q *QRGenerator) Decrypt(payload string) (*OrderRef, error) {
	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	n := q.aead.NonceSize()
	if len(raw) < n {
		return nil, fmt.Errorf("%w: too short", ErrInvalidPayload)
	}

	data, err := q.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var ref OrderRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &ref, nil
}
