package fuse

// Selection pairs a bitfield name with the label of its current option.
type Selection struct {
	Name  string
	Label string
}

// Dissect analyzes the raw value of one fuse byte against the config
// table. For every bitfield addressed by key it extracts
// (val & mask) >> lsh and appends the first declared option with that
// exact value. Results come in config-table order; a key matching no
// bitfield yields an empty list.
func Dissect(table []Bitfield, key string, val int) []Selection {
	var result []Selection
	for _, b := range table {
		if b.isLock() || b.Key() != key {
			continue
		}
		field := (val & b.Mask) >> b.Lsh
		for _, v := range b.Values {
			if v.Value == field {
				result = append(result, Selection{Name: b.Name, Label: v.Label})
				break
			}
		}
	}
	return result
}

// Synthesize builds the raw value of one fuse byte from labelled
// selections. Starting from 0xFF, every matching bitfield's mask is
// cleared, then each selection whose label matches one of the field's
// declared options is ORed in at its shift. Bits not claimed by any
// bitfield stay 1 (erased-fuse convention); a key matching no bitfield
// returns 0xFF unmodified.
func Synthesize(table []Bitfield, key string, selections []Selection) int {
	labels := make(map[string]bool, len(selections))
	for _, s := range selections {
		labels[s.Label] = true
	}

	resval := 0xff
	for _, b := range table {
		if b.isLock() || b.Key() != key {
			continue
		}
		resval &^= b.Mask
		for _, v := range b.Values {
			if labels[v.Label] {
				resval |= v.Value << b.Lsh
			}
		}
	}
	return resval
}

// Default produces the datasheet default value for one fuse byte: the
// same masking baseline as Synthesize with every matched bitfield set
// to its declared initval.
func Default(table []Bitfield, key string) int {
	resval := 0xff
	for _, b := range table {
		if b.isLock() || b.Key() != key {
			continue
		}
		resval &^= b.Mask
		resval |= b.Initval << b.Lsh
	}
	return resval
}

// Keys returns the distinct addressable fuse keys in the table, in
// first-appearance order, excluding lock bitfields.
func Keys(table []Bitfield) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, b := range table {
		if b.isLock() {
			continue
		}
		k := b.Key()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
