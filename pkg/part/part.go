package part

import (
	"strings"

	"github.com/avrkit-project/avrkit-go/pkg/fuse"
)

// SignatureSize is the length of an AVR device signature in bytes.
const SignatureSize = 3

// Part describes one AVR device model: identity, device signature,
// programming capabilities, memories and fuse bitfield configuration.
// Parts are immutable once loaded from a catalog and may be shared
// read-only between any number of readers.
type Part struct {
	// ID is the short identifier ("m328p"). IDs starting with "." mark
	// internal base definitions that are excluded from enumeration.
	ID string

	// Desc is the full device name ("ATmega328P").
	Desc string

	// Signature is the device signature used for autodetection.
	Signature [SignatureSize]byte

	// Variants lists alternate device names sharing this definition.
	Variants []string

	// ProgModes is the union of programming interfaces declared for
	// this part.
	ProgModes ProgMode

	// Fuses is the fuse bitfield configuration table for this part.
	Fuses []fuse.Bitfield

	// ConfigFile and Lineno record where the definition was loaded from.
	ConfigFile string
	Lineno     int

	// mems preserves catalog declaration order; index is by name.
	mems    []*Memory
	memIdx  map[string]*Memory
	aliases []*MemoryAlias

	initialized bool
}

// New creates a part with the given identity. Memories are added with
// AddMemory and become usable after InitMemories.
func New(id, desc string) *Part {
	return &Part{
		ID:     id,
		Desc:   desc,
		memIdx: make(map[string]*Memory),
	}
}

// AddMemory registers a memory definition. Memory names are unique
// within a part; declaration order is preserved.
func (p *Part) AddMemory(m *Memory) error {
	if _, dup := p.memIdx[m.Desc]; dup {
		return ErrDuplicateMemory
	}
	p.mems = append(p.mems, m)
	p.memIdx[m.Desc] = m
	return nil
}

// AddAlias registers a logical alias for a physical memory.
func (p *Part) AddAlias(a *MemoryAlias) {
	p.aliases = append(p.aliases, a)
}

// Memory returns the named memory, resolving alias names to their
// physical memory. Returns nil when the part has no such memory.
func (p *Part) Memory(name string) *Memory {
	if m, ok := p.memIdx[name]; ok {
		return m
	}
	for _, a := range p.aliases {
		if a.Desc == name {
			return p.memIdx[a.AliasOf]
		}
	}
	return nil
}

// Memories returns the part's memories in declaration order.
func (p *Part) Memories() []*Memory {
	return p.mems
}

// Aliases returns the part's memory aliases.
func (p *Part) Aliases() []*MemoryAlias {
	return p.aliases
}

// ResolveAlias returns the logical alias name for a physical memory if
// one is declared, else the memory's own name. Used so a fuse physically
// called "fuse0" can be shown under its conceptual name ("wdtcfg").
func (p *Part) ResolveAlias(m *Memory) string {
	if m == nil {
		return ""
	}
	for _, a := range p.aliases {
		if a.AliasOf == m.Desc {
			return a.Desc
		}
	}
	return m.Desc
}

// InitMemories computes derived fields (paging layout, buffers, tags)
// after catalog load. It must run once before any memory is read or
// written; running it again is a no-op.
func (p *Part) InitMemories() {
	if p.initialized {
		return
	}
	for _, m := range p.mems {
		m.init()
	}
	p.initialized = true
}

// Initialized reports whether InitMemories has run.
func (p *Part) Initialized() bool {
	return p.initialized
}

// FuseNames returns the names of the part's fuse memories, preferring
// the logical alias name where one exists. A memory counts as a fuse
// when its physical name contains "fuse" but is not the fuses summary
// region itself.
func (p *Part) FuseNames() []string {
	var names []string
	for _, m := range p.mems {
		if m.Desc == "fuses" {
			continue
		}
		if strings.Contains(m.Desc, "fuse") {
			names = append(names, p.ResolveAlias(m))
		}
	}
	return names
}
