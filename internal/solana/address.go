// Package solana holds Solana address helpers shared by the classifier,
// the engine and the HTTP API.
package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// WSOLMint is the wrapped SOL mint, the quote asset of every tracked pair.
const WSOLMint = "So11111111111111111111111111111111111111112"

// AddressLength is the decoded size of a public key.
const AddressLength = 32

// ErrInvalidAddress is returned when a string is not a base58 encoded public key.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress checks that address decodes to a 32-byte public key.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}
	if len(decoded) != AddressLength {
		return fmt.Errorf("%w: %s: decoded length %d", ErrInvalidAddress, address, len(decoded))
	}
	return nil
}

// IsOnCurve reports whether address is a point on the ed25519 curve.
// Wallets controlled by a keypair are on curve; program derived addresses
// (vaults, aggregator delegates) are not.
func IsOnCurve(address string) bool {
	decoded, err := base58.Decode(address)
	if err != nil || len(decoded) != AddressLength {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}

// ShortAddress renders address as its first and last four characters.
func ShortAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}
