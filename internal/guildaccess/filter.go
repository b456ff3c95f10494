// Package guildaccess decides which guilds a panel user may administer.
package guildaccess

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	PermissionAdministrator = 1 << 3
	PermissionManageGuild   = 1 << 5
)

// Permission values are decimal strings that can exceed 2^53, so they are
// parsed as arbitrary precision integers.
var adminLike = big.NewInt(PermissionAdministrator | PermissionManageGuild)

// ParsePermissions parses a permission value. ok is false for empty or
// malformed input.
func ParsePermissions(v string) (*big.Int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return nil, false
	}
	return n, true
}

// CanAdminister reports whether perms has ADMINISTRATOR or MANAGE_GUILD set.
func CanAdminister(perms *big.Int) bool {
	if perms == nil {
		return false
	}
	return new(big.Int).And(perms, adminLike).Sign() != 0
}

// permissionsOf extracts the raw permission value of a guild summary. Both
// string and bare number encodings are accepted.
func permissionsOf(raw json.RawMessage) (string, bool) {
	res := gjson.GetBytes(raw, "permissions")
	switch res.Type {
	case gjson.String:
		return res.Str, true
	case gjson.Number:
		// Raw keeps every digit; res.Num would round through float64.
		return res.Raw, true
	default:
		return "", false
	}
}

// Filter returns the guilds whose permission value grants administrator or
// manage-guild. Guilds with a missing or malformed value are dropped. Input
// order is preserved.
func Filter(guilds []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(guilds))
	for _, g := range guilds {
		v, ok := permissionsOf(g)
		if !ok {
			continue
		}
		perms, ok := ParsePermissions(v)
		if !ok {
			continue
		}
		if CanAdminister(perms) {
			out = append(out, g)
		}
	}
	return out
}

// GuildID returns the "id" of a guild summary.
func GuildID(raw json.RawMessage) string {
	return gjson.GetBytes(raw, "id").String()
}
