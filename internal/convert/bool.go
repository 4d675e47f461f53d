package convert

// FormatBool implements the "0"/"1" vs "0"/"-1" rendering named in
// spec.md §4.6, selected by the trueIsMinus1 connection flag.
func FormatBool(v bool, trueIsMinus1 bool) string {
	if !v {
		return "0"
	}
	if trueIsMinus1 {
		return "-1"
	}
	return "1"
}

// ParseBool accepts PostgreSQL's boolean text forms ("t"/"f", "true"/
// "false", "1"/"0").
func ParseBool(text string) bool {
	switch text {
	case "t", "true", "1", "y", "yes", "on":
		return true
	default:
		return false
	}
}
