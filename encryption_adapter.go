// Package addonprefs provides an adapter for the encryption package.
package addonprefs

import (
	"github.com/CreativeUnicorns/addonprefs/encryption"
)

// EncryptionAdapter lets an encryption.Manager seal stored preference values.
type EncryptionAdapter struct {
	manager *encryption.Manager
}

// NewEncryptionAdapter creates an adapter keyed from ADDONPREFS_ENCRYPTION_KEY.
// It fails fast when the key is missing or too short.
func NewEncryptionAdapter() (*EncryptionAdapter, error) {
	manager, err := encryption.NewManager()
	if err != nil {
		return nil, err
	}
	return &EncryptionAdapter{manager: manager}, nil
}

// NewEncryptionAdapterWithKey creates an adapter with an explicit key.
func NewEncryptionAdapterWithKey(key []byte) (*EncryptionAdapter, error) {
	manager, err := encryption.NewManagerWithKey(key)
	if err != nil {
		return nil, err
	}
	return &EncryptionAdapter{manager: manager}, nil
}

// Encrypt seals a stored value.
func (e *EncryptionAdapter) Encrypt(plaintext string) (string, error) {
	return e.manager.Encrypt(plaintext)
}

// Decrypt opens a stored value.
func (e *EncryptionAdapter) Decrypt(encrypted string) (string, error) {
	return e.manager.Decrypt(encrypted)
}
