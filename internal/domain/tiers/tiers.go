package tiers

import (
	"errors"
	"fmt"
	"strings"
)

type Tier string

const (
	TierFree     Tier = "free"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Order is the fixed ladder order, lowest tier first.
var Order = []Tier{TierFree, TierSilver, TierGold, TierPlatinum}

var ErrInvalidLadder = errors.New("invalid tier ladder")

func Parse(raw string) (Tier, bool) {
	tier := Tier(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Order {
		if tier == known {
			return tier, true
		}
	}
	return "", false
}

type Entry struct {
	Tier        Tier
	Label       string
	Price       float64
	Description string
	Benefits    []string
}

// Ladder is static, read-only tier configuration shared by the entitlement
// resolver and the upgrade workflow. Safe for unsynchronized concurrent reads.
type Ladder struct {
	entries []Entry
	index   map[Tier]int
	promos  map[string]Tier
}

func NewLadder(entries []Entry, promoCodes map[string]Tier) (*Ladder, error) {
	if len(entries) != len(Order) {
		return nil, fmt.Errorf("%w: expected %d entries, got %d", ErrInvalidLadder, len(Order), len(entries))
	}

	index := make(map[Tier]int, len(entries))
	prevPrice := 0.0
	for i, entry := range entries {
		if entry.Tier != Order[i] {
			return nil, fmt.Errorf("%w: entry %d is %q, expected %q", ErrInvalidLadder, i, entry.Tier, Order[i])
		}
		if strings.TrimSpace(entry.Label) == "" {
			return nil, fmt.Errorf("%w: tier %q has no label", ErrInvalidLadder, entry.Tier)
		}
		if len(entry.Benefits) == 0 {
			return nil, fmt.Errorf("%w: tier %q has no benefits", ErrInvalidLadder, entry.Tier)
		}
		if i == 0 && entry.Price != 0 {
			return nil, fmt.Errorf("%w: tier %q must be free of charge", ErrInvalidLadder, entry.Tier)
		}
		if entry.Price < prevPrice {
			return nil, fmt.Errorf("%w: price decreases at tier %q", ErrInvalidLadder, entry.Tier)
		}
		prevPrice = entry.Price
		index[entry.Tier] = i
	}

	promos := make(map[string]Tier, len(promoCodes))
	for code, tier := range promoCodes {
		normalized := strings.ToUpper(strings.TrimSpace(code))
		if normalized == "" {
			return nil, fmt.Errorf("%w: empty promo code", ErrInvalidLadder)
		}
		if _, ok := index[tier]; !ok {
			return nil, fmt.Errorf("%w: promo code %q maps to unknown tier %q", ErrInvalidLadder, normalized, tier)
		}
		if _, dup := promos[normalized]; dup {
			return nil, fmt.Errorf("%w: duplicate promo code %q", ErrInvalidLadder, normalized)
		}
		promos[normalized] = tier
	}

	return &Ladder{
		entries: append([]Entry(nil), entries...),
		index:   index,
		promos:  promos,
	}, nil
}

func Default() *Ladder {
	ladder, err := NewLadder([]Entry{
		{
			Tier:        TierFree,
			Label:       "Free",
			Price:       0,
			Description: "Perfect for getting started with our community",
			Benefits: []string{
				"Access to basic events",
				"Community forum access",
				"Email notifications",
				"Mobile app access",
			},
		},
		{
			Tier:        TierSilver,
			Label:       "Silver",
			Price:       29.99,
			Description: "Great for active professionals seeking growth",
			Benefits: []string{
				"Everything in Free",
				"Priority event registration",
				"Exclusive Silver events",
				"Advanced networking features",
				"Monthly virtual meetups",
				"Basic analytics dashboard",
			},
		},
		{
			Tier:        TierGold,
			Label:       "Gold",
			Price:       59.99,
			Description: "Ideal for leaders wanting premium experiences",
			Benefits: []string{
				"Everything in Silver",
				"VIP event seating",
				"Exclusive Gold workshops",
				"Direct speaker access",
				"Advanced analytics & insights",
				"Custom event recommendations",
				"Priority customer support",
			},
		},
		{
			Tier:        TierPlatinum,
			Label:       "Platinum",
			Price:       99.99,
			Description: "Ultimate package for serious entrepreneurs",
			Benefits: []string{
				"Everything in Gold",
				"Unlimited premium events",
				"Private Platinum community",
				"One-on-one mentorship sessions",
				"Early access to new features",
				"Custom integrations",
				"24/7 dedicated support",
				"Annual exclusive retreat",
			},
		},
	}, map[string]Tier{
		"SILVER2025":   TierSilver,
		"GOLD2025":     TierGold,
		"PLATINUM2025": TierPlatinum,
	})
	if err != nil {
		panic(err)
	}
	return ladder
}

func (l *Ladder) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Ladder) Entry(tier Tier) (Entry, bool) {
	i, ok := l.index[tier]
	if !ok {
		return Entry{}, false
	}
	return l.entries[i], true
}

func (l *Ladder) Label(tier Tier) string {
	entry, ok := l.Entry(tier)
	if !ok {
		return ""
	}
	return entry.Label
}

func (l *Ladder) Price(tier Tier) float64 {
	entry, ok := l.Entry(tier)
	if !ok {
		return 0
	}
	return entry.Price
}

func (l *Ladder) Max() Tier {
	return l.entries[len(l.entries)-1].Tier
}

// Visible returns every tier at or below the given tier, inclusive, in
// ladder order. An unknown tier is a caller error and yields nil.
func (l *Ladder) Visible(tier Tier) []Tier {
	i, ok := l.index[tier]
	if !ok {
		return nil
	}

	out := make([]Tier, 0, i+1)
	for _, entry := range l.entries[:i+1] {
		out = append(out, entry.Tier)
	}
	return out
}

// Upgradable returns every tier strictly above the given tier, in ladder
// order. Empty for the maximum tier; nil for an unknown tier.
func (l *Ladder) Upgradable(tier Tier) []Tier {
	i, ok := l.index[tier]
	if !ok {
		return nil
	}

	out := make([]Tier, 0, len(l.entries)-i-1)
	for _, entry := range l.entries[i+1:] {
		out = append(out, entry.Tier)
	}
	return out
}

// PromoTier resolves a promo code to its mapped tier. Lookup is
// case-insensitive: codes are uppercased before matching.
func (l *Ladder) PromoTier(code string) (Tier, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return "", false
	}
	tier, ok := l.promos[normalized]
	return tier, ok
}
