package spindle

import (
	"iter"
	"slices"

	"github.com/kbukum/spindle/operators"
	"github.com/kbukum/spindle/warehouse"
)

// AdvertiserGroup is one SDF download unit.
type AdvertiserGroup = operators.AdvertiserGroup

// GroupAdvertisers yields consecutive groups of at most n advertisers in
// input order. It yields nothing when n is less than 1.
func GroupAdvertisers(advertisers []string, n int) iter.Seq[[]string] {
	if n < 1 {
		return func(func([]string) bool) {}
	}
	return slices.Chunk(advertisers, n)
}

// Groups splits every partner's advertisers into groups of at most n. The
// first group overall truncates the SDF tables and every later group
// appends to them.
func Groups(partners PartnerAdvertisers, n int) []AdvertiserGroup {
	var out []AdvertiserGroup
	for _, p := range partners {
		index := 0
		for chunk := range GroupAdvertisers(p.Advertisers, n) {
			disposition := warehouse.WriteAppend
			if len(out) == 0 {
				disposition = warehouse.WriteTruncate
			}
			out = append(out, AdvertiserGroup{
				Partner:          p.Partner,
				Index:            index,
				Advertisers:      chunk,
				WriteDisposition: disposition,
			})
			index++
		}
	}
	return out
}
