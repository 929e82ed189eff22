package eligibility

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Blacklist is a fixed set of addresses whose drips are redirected to the
// origin transaction sender. Loaded once at startup, read-only afterwards.
type Blacklist struct {
	addresses map[common.Address]struct{}
}

// LoadBlacklist reads a JSON array of hex addresses.
func LoadBlacklist(path string) (*Blacklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blacklist: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse blacklist: %w", err)
	}

	return NewBlacklist(raw)
}

// NewBlacklist builds a blacklist from hex address strings.
func NewBlacklist(inputs []string) (*Blacklist, error) {
	addresses := make(map[common.Address]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid blacklist address: %s", input)
		}
		addresses[common.HexToAddress(input)] = struct{}{}
	}
	return &Blacklist{addresses: addresses}, nil
}

// Contains reports whether the address is blacklisted.
func (b *Blacklist) Contains(address common.Address) bool {
	_, ok := b.addresses[address]
	return ok
}

// Len returns the number of blacklisted addresses.
func (b *Blacklist) Len() int {
	return len(b.addresses)
}
