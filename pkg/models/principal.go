package models

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizePrincipal validates a hex account address and returns its EIP-55
// checksum form.
func NormalizePrincipal(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return "", Errorf(CodeInvalidInput, "principal %q must be 0x-prefixed", raw)
	}
	if !common.IsHexAddress(trimmed) {
		return "", Errorf(CodeInvalidInput, "malformed principal %q", raw)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return "", Errorf(CodeInvalidInput, "zero principal is not allowed")
	}
	return addr.Hex(), nil
}

// NormalizeAsset accepts either the native asset or a token principal.
func NormalizeAsset(raw string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(raw), NativeAsset) {
		return NativeAsset, nil
	}
	return NormalizePrincipal(raw)
}
