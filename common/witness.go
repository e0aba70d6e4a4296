package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Role is a privilege required by administrative ledger operations.
type Role byte

const (
	// RoleGovernor may initialize the ledger, manage yield delegation and
	// opt accounts into rebasing on their behalf.
	RoleGovernor Role = iota + 1
	// RoleVault may mint, burn and change the total supply.
	RoleVault
)

// ErrAuthorizationDenied appears when the method must be called by a role
// holder but was not.
var ErrAuthorizationDenied = errors.New("authorization denied")

func (r Role) String() string {
	switch r {
	case RoleGovernor:
		return "governor"
	case RoleVault:
		return "vault"
	default:
		return fmt.Sprintf("role(%d)", byte(r))
	}
}

// Authorizer decides whether caller holds the role.
type Authorizer interface {
	IsAuthorized(caller util.Uint160, role Role) bool
}

// Roles is a static Authorizer.
type Roles struct {
	Governors []util.Uint160
	Vaults    []util.Uint160
}

// IsAuthorized implements Authorizer.
func (r Roles) IsAuthorized(caller util.Uint160, role Role) bool {
	var list []util.Uint160
	switch role {
	case RoleGovernor:
		list = r.Governors
	case RoleVault:
		list = r.Vaults
	}
	for i := range list {
		if list[i].Equals(caller) {
			return true
		}
	}
	return false
}

// CheckRole checks that caller holds the role. A nil Authorizer denies
// everything.
func CheckRole(a Authorizer, caller util.Uint160, role Role) error {
	if a == nil || !a.IsAuthorized(caller, role) {
		return fmt.Errorf("%s witness check failed for %s: %w",
			role, address.Uint160ToString(caller), ErrAuthorizationDenied)
	}
	return nil
}

// ParseAccount parses a Neo address, a hex-encoded public key or a
// little-endian script hash.
func ParseAccount(s string) (util.Uint160, error) {
	s = strings.TrimSpace(s)
	if u, err := address.StringToUint160(s); err == nil {
		return u, nil
	}
	if pub, err := keys.NewPublicKeyFromString(s); err == nil {
		return pub.GetScriptHash(), nil
	}
	u, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid account %q: not an address, public key or script hash", s)
	}
	return u, nil
}
