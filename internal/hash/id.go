package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given parts joined with a '/' separator.
//
// It is used to derive stable identifiers for format descriptors, e.g.
// ID("ordcode", "v1", "big", "asc").
func ID(parts ...string) uint64 {
	d := xxhash.New()
	for i, part := range parts {
		if i > 0 {
			_, _ = d.WriteString("/")
		}
		_, _ = d.WriteString(part)
	}

	return d.Sum64()
}
