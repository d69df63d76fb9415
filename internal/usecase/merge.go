package usecase

import (
	"strings"

	"ReviewerOutreach/internal/domain"
)

// UpsertListings applies the addresses from known onto base, keeping base's
// order and membership. A known record matches by Key first and by NameKey
// otherwise; only real addresses are applied. Without overwrite, listings
// that already have an address keep it.
func UpsertListings(base, known []domain.Listing, overwrite bool) []domain.Listing {
	byKey := map[string]string{}
	byName := map[string]string{}
	for _, k := range known {
		if !k.HasEmail() {
			continue
		}
		email := strings.TrimSpace(k.Email)
		if key := k.Key(); key != "" {
			byKey[key] = email
		}
		if name := k.NameKey(); name != "" {
			byName[name] = email
		}
	}

	out := make([]domain.Listing, 0, len(base))
	for _, l := range base {
		l = domain.Listing{
			Name:  strings.TrimSpace(l.Name),
			URL:   strings.TrimSpace(l.URL),
			Email: strings.TrimSpace(l.Email),
		}

		if overwrite || !l.HasEmail() {
			if e, ok := byKey[l.Key()]; ok && l.Key() != "" {
				l.Email = e
			} else if e, ok := byName[l.NameKey()]; ok && l.NameKey() != "" {
				l.Email = e
			}
		}
		if l.Email == "" {
			l.Email = domain.EmailNotFound
		}

		out = append(out, l)
	}
	return out
}

// MergeCorrections overwrites listing addresses with manually corrected ones.
func MergeCorrections(listings, corrections []domain.Listing) []domain.Listing {
	return UpsertListings(listings, corrections, true)
}
