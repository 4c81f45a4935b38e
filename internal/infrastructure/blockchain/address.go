package blockchain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned for strings that are not 20-byte hex addresses
var ErrInvalidAddress = errors.New("invalid Ethereum address")

// NormalizeAddress validates an Ethereum address and returns its lowercase 0x form.
// The prefix is optional on input; checksum casing is not enforced.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}
