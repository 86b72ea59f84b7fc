package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"os"
	"strings"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// GenerateKeyPair generates a new Ed25519 keypair.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

// SaveKey saves the private key to a file in hex format.
func SaveKey(filename string, privKey ed25519.PrivateKey) error {
	hexKey := hex.EncodeToString(privKey)
	return os.WriteFile(filename, []byte(hexKey), 0600)
}

// LoadKey loads a private key from a file (hex format).
func LoadKey(filename string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimSpace(string(data)))
}

// SignTransaction signs the transaction and sets its Signature field.
// Does not verify that tx.From matches privKey's public key; the caller
// is responsible for using the right key for the From address.
func SignTransaction(tx *types.Transaction, privKey ed25519.PrivateKey) error {
	if len(privKey) != ed25519.PrivateKeySize {
		return errors.New("invalid private key length")
	}

	tx.Signature = ed25519.Sign(privKey, tx.Serialize())
	return nil
}

// PubKeyToAddress returns the hex string of the public key (which is the address).
func PubKeyToAddress(pubKey ed25519.PublicKey) string {
	return hex.EncodeToString(pubKey)
}
