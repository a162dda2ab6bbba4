package normalize

import "strings"

// ParseKey reconstructs a Key from a stored canonical key string. Used for
// sweep scopes and placeholder rows where only the key string survives.
// The input is assumed to already be in canonical form.
func ParseKey(keyString string) Key {
	parts := strings.Split(keyString, " | ")
	k := Key{Normalized: keyString}
	if len(parts) > 0 {
		k.Street = parts[0]
	}
	if len(parts) > 1 {
		k.City = parts[1]
	}
	if len(parts) > 2 {
		k.State = parts[2]
	}
	if len(parts) > 3 {
		k.Zip5 = parts[3]
	}
	k.Exact = keyString
	k.Base = KeyString(stripUnitTail(k.Street), k.City, k.State, k.Zip5)
	k.CityKey = k.City + " | " + k.State
	k.ID = HashID(addressIDPrefix, k.Normalized)
	k.CityID = HashID(cityIDPrefix, k.CityKey)
	return k
}
