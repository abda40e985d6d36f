package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// VerifyPersonalSignature checks that signature was produced by expected
// over message, using Ethereum's personal message format.
func VerifyPersonalSignature(signature, expected, message string) (bool, error) {
	recovered, err := AddressFromSignature(signature, message)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(recovered, expected), nil
}

// AddressFromSignature recovers the Ethereum address from a signature and
// message.
func AddressFromSignature(signature, message string) (string, error) {
	if !strings.HasPrefix(signature, "0x") {
		return "", fmt.Errorf("signature must start with 0x")
	}

	sigData, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("failed to decode signature: %w", err)
	}

	// Signature should be 65 bytes: r(32) + s(32) + v(1)
	if len(sigData) != 65 {
		return "", fmt.Errorf("signature must be exactly 65 bytes")
	}

	// Create message hash using Ethereum's personal message format
	messageHash := accounts.TextHash([]byte(message))

	// Note: go-ethereum expects v to be 0 or 1, but wallets return 27 or 28
	if sigData[64] >= 27 {
		sigData[64] -= 27
	}

	publicKey, err := crypto.SigToPub(messageHash, sigData)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}

	address := crypto.PubkeyToAddress(*publicKey)
	return address.Hex(), nil
}

// SignPersonalMessage signs message with the given hex private key using
// the personal message format. Used by operator tooling and tests.
func SignPersonalMessage(privateKeyHex, message string) (string, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	messageHash := accounts.TextHash([]byte(message))
	signature, err := crypto.Sign(messageHash, privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}

	// Normalize v to 27/28 as wallets do.
	signature[64] += 27
	return hexutil.Encode(signature), nil
}

// AddressForPrivateKey returns the address controlled by the hex private
// key.
func AddressForPrivateKey(privateKeyHex string) (common.Address, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to parse private key: %w", err)
	}
	return crypto.PubkeyToAddress(privateKey.PublicKey), nil
}
