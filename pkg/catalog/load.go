package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// ErrConfigNotFound means no catalog file resolved in the search path.
// Fatal to CLI startup; a library embedding decides for itself.
var ErrConfigNotFound = errors.New("no catalog configuration found")

//go:embed catalogs/avrkit.yaml
var embeddedCatalog []byte

// configName is the catalog file name looked up in each search
// directory.
const configName = "avrkit.yaml"

// searchDirs is the fixed search order: the binary's own directory
// (build-local), then the system configuration directories. First
// match wins; files are never merged.
func searchDirs() []string {
	dirs := make([]string, 0, 3)
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return append(dirs, "/etc/avrkit", "/usr/local/etc/avrkit")
}

// Load resolves and parses the first catalog file in the search order.
func Load() (*Catalog, error) {
	for _, dir := range searchDirs() {
		path := filepath.Join(dir, configName)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return Parse(data, path)
	}
	return nil, fmt.Errorf("%w: searched %v", ErrConfigNotFound, searchDirs())
}

// LoadFile parses the catalog at an explicit path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// LoadEmbedded parses the catalog built into the binary.
func LoadEmbedded() (*Catalog, error) {
	return Parse(embeddedCatalog, "embedded")
}

// Parse builds a catalog from YAML. file is recorded as provenance on
// the catalog and every definition in it. A document declaring neither
// parts nor programmers is rejected: YAML accepts many junk inputs as
// an empty document.
func Parse(data []byte, file string) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", file, err)
	}

	c := &Catalog{ConfigFile: file}
	for _, pd := range doc.Parts {
		p, err := buildPart(pd, file)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: part %q: %w", file, pd.ID, err)
		}
		c.parts = append(c.parts, p)
	}
	for _, gd := range doc.Programmers {
		d, err := buildProgrammer(gd, file)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: programmer %q: %w", file, gd.Desc, err)
		}
		c.programmers = append(c.programmers, d)
	}
	if len(c.parts) == 0 && len(c.programmers) == 0 {
		return nil, fmt.Errorf("catalog %s: no parts or programmers declared", file)
	}
	return c, nil
}

func buildPart(pd partDef, file string) (*part.Part, error) {
	p := part.New(pd.ID, pd.Desc)
	p.ConfigFile = file
	p.Variants = pd.Variants
	p.Fuses = pd.Fuses

	sig, err := parseSignature(pd.Signature)
	if err != nil {
		return nil, err
	}
	p.Signature = sig

	p.ProgModes, err = parseProgModes(pd.ProgModes)
	if err != nil {
		return nil, err
	}

	for _, md := range pd.Memories {
		mem := &part.Memory{
			Desc:     md.Name,
			Size:     md.Size,
			Paged:    md.Paged,
			PageSize: md.PageSize,
			Offset:   md.Offset,
			Initval:  md.Initval,
			Bitmask:  md.Bitmask,
		}
		if err := p.AddMemory(mem); err != nil {
			return nil, fmt.Errorf("memory %q: %w", md.Name, err)
		}
	}
	for _, ad := range pd.Aliases {
		p.AddAlias(&part.MemoryAlias{Desc: ad.Name, AliasOf: ad.AliasOf})
	}
	return p, nil
}

func buildProgrammer(gd pgmDef, file string) (*programmer.Descriptor, error) {
	if len(gd.Names) == 0 {
		return nil, errors.New("programmer has no names")
	}
	modes, err := parseProgModes(gd.ProgModes)
	if err != nil {
		return nil, err
	}
	return &programmer.Descriptor{
		Names:      gd.Names,
		Desc:       gd.Desc,
		ConnType:   gd.ConnType,
		ProgModes:  modes,
		ConfigFile: file,
	}, nil
}

// Process-wide default catalog.
var (
	defaultMu      sync.RWMutex
	defaultCatalog *Catalog
)

// Init populates the process-wide default catalog from the search path,
// falling back to the embedded catalog when no file resolves.
// Re-initialization replaces the prior state.
func Init() (*Catalog, error) {
	c, err := Load()
	if errors.Is(err, ErrConfigNotFound) {
		c, err = LoadEmbedded()
	}
	if err != nil {
		return nil, err
	}
	defaultMu.Lock()
	defaultCatalog = c
	defaultMu.Unlock()
	return c, nil
}

// Default returns the process-wide catalog, initializing it on first
// use.
func Default() (*Catalog, error) {
	defaultMu.RLock()
	c := defaultCatalog
	defaultMu.RUnlock()
	if c != nil {
		return c, nil
	}
	return Init()
}
