// Package policy holds the serialization feature switches that gate the
// object codec. A Policy is a plain value passed to every codec call; there
// is no ambient global state.
package policy

import "github.com/spf13/viper"

// Config keys, shared by the CLI flags and the config file.
const (
	KeyLegacy          = "legacy-serialization"
	KeyClipboardLegacy = "clipboard-legacy-serialization"
	KeySafe            = "safe-serialization"
)

// Policy is the set of serialization switches in effect for one operation.
type Policy struct {
	// LegacySerialization enables unrestricted object-graph serialization
	// for the whole process.
	LegacySerialization bool
	// ClipboardLegacySerialization additionally enables it for clipboard
	// and drag-and-drop payloads. Both switches must be on.
	ClipboardLegacySerialization bool
	// SafeSerialization enables the whitelist-only exchange format on the
	// read path. Writers always prefer it.
	SafeSerialization bool
}

// Default returns the secure defaults: legacy serialization off, the safe
// exchange format on.
func Default() Policy {
	return Policy{SafeSerialization: true}
}

// FullCompat returns a policy with every switch on.
func FullCompat() Policy {
	return Policy{
		LegacySerialization:          true,
		ClipboardLegacySerialization: true,
		SafeSerialization:            true,
	}
}

// LegacyEnabled reports whether both legacy gates are open.
func (p Policy) LegacyEnabled() bool {
	return p.LegacySerialization && p.ClipboardLegacySerialization
}

// SetDefaults registers the default switch values on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyLegacy, d.LegacySerialization)
	v.SetDefault(KeyClipboardLegacy, d.ClipboardLegacySerialization)
	v.SetDefault(KeySafe, d.SafeSerialization)
}

// FromViper reads a Policy from v. Unset keys take the defaults.
func FromViper(v *viper.Viper) Policy {
	SetDefaults(v)
	return Policy{
		LegacySerialization:          v.GetBool(KeyLegacy),
		ClipboardLegacySerialization: v.GetBool(KeyClipboardLegacy),
		SafeSerialization:            v.GetBool(KeySafe),
	}
}
