package catalog

import (
	"strings"

	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// Catalog holds the loaded part and programmer tables. It is immutable
// after load and safe for concurrent readers.
type Catalog struct {
	// ConfigFile is the path the catalog was loaded from, or "embedded".
	ConfigFile string

	parts       []*part.Part
	programmers []*programmer.Descriptor
}

// Parts returns the declared parts in catalog order, excluding internal
// "."-prefixed base definitions.
func (c *Catalog) Parts() []*part.Part {
	var out []*part.Part
	for _, p := range c.parts {
		if strings.HasPrefix(p.ID, ".") {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Programmers returns the declared programmers in catalog order,
// excluding internal "."-prefixed base definitions.
func (c *Catalog) Programmers() []*programmer.Descriptor {
	var out []*programmer.Descriptor
	for _, d := range c.programmers {
		if strings.HasPrefix(d.Name(), ".") {
			continue
		}
		out = append(out, d)
	}
	return out
}

// LocatePart finds a part by ID, description or variant name. Lookup
// is case-insensitive. Returns nil when nothing matches.
func (c *Catalog) LocatePart(nameOrID string) *part.Part {
	for _, p := range c.parts {
		if strings.EqualFold(p.ID, nameOrID) || strings.EqualFold(p.Desc, nameOrID) {
			return p
		}
		for _, v := range p.Variants {
			if strings.EqualFold(v, nameOrID) {
				return p
			}
		}
	}
	return nil
}

// LocatePartBySignature scans the declared parts and returns the first
// whose signature equals sig, or nil when no signature matches.
func (c *Catalog) LocatePartBySignature(sig [part.SignatureSize]byte) *part.Part {
	for _, p := range c.parts {
		if p.Signature == sig {
			return p
		}
	}
	return nil
}

// LocateProgrammer finds a programmer by any of its names. Returns nil
// when nothing matches.
func (c *Catalog) LocateProgrammer(name string) *programmer.Descriptor {
	for _, d := range c.programmers {
		if d.HasName(name) {
			return d
		}
	}
	return nil
}

// ClassifyParts groups the enumerable parts by device family.
func (c *Catalog) ClassifyParts() map[part.Family][]*part.Part {
	out := make(map[part.Family][]*part.Part)
	for _, p := range c.Parts() {
		fam := part.Classify(p.Desc)
		out[fam] = append(out[fam], p)
	}
	return out
}

// ClassifyProgrammers groups the enumerable programmers by capability
// class; a programmer with several capabilities appears in each class.
func (c *Catalog) ClassifyProgrammers() map[string][]*programmer.Descriptor {
	out := make(map[string][]*programmer.Descriptor)
	for _, d := range c.Programmers() {
		for _, class := range d.Classes() {
			out[class] = append(out[class], d)
		}
	}
	return out
}
