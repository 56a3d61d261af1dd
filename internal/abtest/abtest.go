// Package abtest picks the destination of a QR code scan among weighted variants.
package abtest

import (
	"fmt"

	"github.com/vadimbarashkov/qrlink/internal/entity"
)

const (
	MinVariants = 2
	MaxWeight   = 100
)

// Select draws one variant with a probability proportional to its weight.
// rnd must return a uniform value in [0, 1). When every weight is zero the first
// variant is returned. It reports false only for an empty list.
func Select(variants []entity.Variant, rnd func() float64) (entity.Variant, bool) {
	if len(variants) == 0 {
		return entity.Variant{}, false
	}

	var total float64
	for _, v := range variants {
		total += v.Weight
	}

	if total <= 0 {
		return variants[0], true
	}

	r := rnd() * total
	for _, v := range variants {
		r -= v.Weight
		if r <= 0 {
			return v, true
		}
	}

	// floating point drift at the upper boundary
	return variants[len(variants)-1], true
}

// Validate checks the variants of an A/B test before they are stored.
func Validate(variants []entity.Variant) error {
	if len(variants) < MinVariants {
		return entity.ErrTooFewVariants
	}

	seen := make(map[string]struct{}, len(variants))
	for i, v := range variants {
		if v.Weight < 0 || v.Weight > MaxWeight {
			return fmt.Errorf("variant %d: weight %v outside [0, %d]: %w", i, v.Weight, MaxWeight, entity.ErrInvalidVariant)
		}
		if v.URL == "" {
			return fmt.Errorf("variant %d: empty url: %w", i, entity.ErrInvalidVariant)
		}
		if v.ID == "" {
			continue
		}
		if _, ok := seen[v.ID]; ok {
			return fmt.Errorf("variant %d: duplicate id %q: %w", i, v.ID, entity.ErrInvalidVariant)
		}
		seen[v.ID] = struct{}{}
	}

	return nil
}
