package core

import "strings"

// NormalizePhone canonicalizes a Kenyan MSISDN. Numbers starting with 0 have
// the leading zero replaced by +254; bare 7xx/1xx numbers get the country
// code prepended; already-international numbers pass through unchanged.
func NormalizePhone(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "+"):
		return p
	case strings.HasPrefix(p, "254"):
		return "+" + p
	case strings.HasPrefix(p, "0") && len(p) > 1:
		return "+254" + p[1:]
	case strings.HasPrefix(p, "7") || strings.HasPrefix(p, "1"):
		return "+254" + p
	default:
		return p
	}
}
