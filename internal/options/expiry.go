package options

import (
	"strings"
	"time"

	"github.com/seenimoa/faststock/internal/provider"
)

// Expiry formats: the exchange speaks "DD-MMM-YYYY" ("16-Sep-2025");
// clients may also send the compact numeric "DDMMYY" ("160925"). The
// compact form is converted to the exchange form before matching.
const (
	exchangeExpiryLayout = "02-Jan-2006"
	compactExpiryLayout  = "020106"
)

// NormalizeExpiry accepts either expiry form and returns the exchange
// form. An empty input stays empty (meaning "nearest expiry").
func NormalizeExpiry(expiry string) (string, error) {
	const op = "options.normalize_expiry"
	expiry = strings.TrimSpace(expiry)
	if expiry == "" {
		return "", nil
	}

	if isDigits(expiry) {
		if len(expiry) != 6 {
			return "", provider.Errorf(op, "", provider.KindValidation,
				"numeric expiry must be DDMMYY, got %q", expiry)
		}
		t, err := time.Parse(compactExpiryLayout, expiry)
		if err != nil {
			return "", provider.Errorf(op, "", provider.KindValidation,
				"invalid expiry %q: %v", expiry, err)
		}
		return t.Format(exchangeExpiryLayout), nil
	}

	t, err := time.Parse(exchangeExpiryLayout, expiry)
	if err != nil {
		return "", provider.Errorf(op, "", provider.KindValidation,
			"expiry must be DDMMYY or DD-MMM-YYYY, got %q", expiry)
	}
	return t.Format(exchangeExpiryLayout), nil
}

// CompactExpiry converts an exchange-form expiry back to DDMMYY. The
// round trip DDMMYY → DD-MMM-YYYY → DDMMYY is the identity.
func CompactExpiry(expiry string) (string, error) {
	t, err := time.Parse(exchangeExpiryLayout, expiry)
	if err != nil {
		return "", provider.Errorf("options.compact_expiry", "", provider.KindValidation,
			"invalid expiry %q: %v", expiry, err)
	}
	return t.Format(compactExpiryLayout), nil
}

// safeExpiry makes an expiry string filename-safe the way snapshots
// are named: spaces become underscores, slashes become dashes.
func safeExpiry(expiry string) string {
	expiry = strings.ReplaceAll(expiry, " ", "_")
	return strings.ReplaceAll(expiry, "/", "-")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
