package enums

import "strings"

type UpgradeKind string

const (
	UpgradeKindPromo UpgradeKind = "promo"
	UpgradeKindPaid  UpgradeKind = "paid"
)

func ParseUpgradeKind(raw string) (UpgradeKind, bool) {
	switch UpgradeKind(strings.ToLower(strings.TrimSpace(raw))) {
	case UpgradeKindPromo:
		return UpgradeKindPromo, true
	case UpgradeKindPaid:
		return UpgradeKindPaid, true
	default:
		return "", false
	}
}
