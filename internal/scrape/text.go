package scrape

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

func InferJobTypeFromText(title, desc string) string {
	blob := strings.ToLower(title + " " + desc)
	switch {
	case strings.Contains(blob, "intern"):
		return "Internship"
	case strings.Contains(blob, "contract"):
		return "Contract"
	case strings.Contains(blob, "part-time") || strings.Contains(blob, "part time"):
		return "Part-time"
	case strings.Contains(blob, "full-time") || strings.Contains(blob, "full time"):
		return "Full-time"
	default:
		return ""
	}
}
