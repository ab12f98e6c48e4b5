package qr

import (
	"bytes"
	"testing"
	"time"

	"ms-storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	gen, err := NewQRGenerator("door-secret")
	require.NoError(t, err)

	ref := RefFromOrder(models.Order{
		OrderID:        "ord-1",
		UserID:         "user-1",
		EventID:        "ev-1",
		PresentationID: "pres-1",
		SeatIDs:        []string{"s1", "s2"},
	}, time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC))

	payload, err := gen.Encrypt(ref)
	require.NoError(t, err)
	assert.NotContains(t, payload, "ord-1")

	got, err := gen.Decrypt(payload)
	require.NoError(t, err)
	assert.Equal(t, ref, *got)
}

func TestDecrypt_WrongSecret(t *testing.T) {
	gen, err := NewQRGenerator("door-secret")
	require.NoError(t, err)
	other, err := NewQRGenerator("another-secret")
	require.NoError(t, err)

	payload, err := gen.Encrypt(OrderRef{OrderID: "ord-1"})
	require.NoError(t, err)

	_, err = other.Decrypt(payload)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = gen.Decrypt("not base64!")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGeneratePNG(t *testing.T) {
	gen, err := NewQRGenerator("door-secret")
	require.NoError(t, err)

	png, err := gen.GeneratePNG(OrderRef{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestNewQRGenerator_EmptySecret(t *testing.T) {
	_, err := NewQRGenerator("")
	assert.Error(t, err)
}
