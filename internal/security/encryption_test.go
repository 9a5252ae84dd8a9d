package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurity_AESEncryption(t *testing.T) {
	t.Run("text is encrypted and decrypted", func(t *testing.T) {
		// arrange
		enc := NewAESEncrypter([]byte(GenerateRandomKey(32)))
		expectedText := "this is some text"

		// act
		encrypted := enc.EncryptAES(expectedText)
		decrypted, err := enc.DecryptAES(encrypted)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, expectedText, string(decrypted))
	})

	t.Run("decrypting garbage fails", func(t *testing.T) {
		enc := NewAESEncrypter([]byte(GenerateRandomKey(32)))

		_, err := enc.DecryptAES("6e6f7420612063697068657274657874")

		assert.Error(t, err)
	})
}
