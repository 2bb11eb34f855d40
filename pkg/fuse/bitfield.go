package fuse

import (
	"strconv"
	"strings"
)

// Value is one discrete option a bitfield can take.
type Value struct {
	// Value is the raw bitfield value before shifting.
	Value int `yaml:"value"`

	// Label is the symbolic option name ("intrcosc", "1k", ...).
	Label string `yaml:"label"`

	// Comment is the human-readable option description.
	Comment string `yaml:"comment,omitempty"`
}

// Bitfield is one named bitfield inside a fuse byte, loaded read-only
// from the device configuration.
type Bitfield struct {
	// Name is the bitfield name ("SUT_CKSEL", "BODLEVEL", ...).
	Name string `yaml:"name"`

	// Memstr names the physical memory the bitfield lives in. On parts
	// where the physical name carries no "fuse" substring (alias-only
	// groups), the addressable key is synthesized as "fuse<Memoffset>".
	Memstr string `yaml:"memstr"`

	// Memoffset is the fuse byte's offset within the fuse block.
	Memoffset int `yaml:"memoffset"`

	// Mask selects the bitfield's bits within the byte; masks of
	// bitfields sharing one fuse byte must not overlap.
	Mask int `yaml:"mask"`

	// Lsh is the left shift that positions a value under the mask.
	Lsh int `yaml:"lsh"`

	// Initval is the datasheet default (pre-shift).
	Initval int `yaml:"initval"`

	// Comment is the human-readable bitfield description.
	Comment string `yaml:"comment,omitempty"`

	// Values lists the declared discrete options.
	Values []Value `yaml:"values"`
}

// Key returns the addressable fuse key for the bitfield: the declared
// physical name when it names a fuse directly, else the synthesized
// "fuse<Memoffset>" used for alias-only fuse groups.
func (b Bitfield) Key() string {
	if strings.Contains(b.Memstr, "fuse") {
		return b.Memstr
	}
	return "fuse" + strconv.Itoa(b.Memoffset)
}

// isLock reports whether the bitfield belongs to the lock memory, which
// is never part of fuse dissection or synthesis.
func (b Bitfield) isLock() bool {
	return b.Memstr == "lock"
}
