package survey

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	mayorRe    = regexp.MustCompile(`(?i)mayor`)
	digitRunRe = regexp.MustCompile(`\d+`)
	htmlTagRe  = regexp.MustCompile(`<[^>]*>`)
	emailTokRe = regexp.MustCompile(`\S+@\S+`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
)

// WardKey extracts the canonical ward key from a raw ward label: the first
// contiguous digit run, re-parsed as an integer to normalize leading zeros
// ("07" becomes "7"). ok is false when the label carries no digits.
func WardKey(label string) (string, bool) {
	run := digitRunRe.FindString(label)
	if run == "" {
		return "", false
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return "", false
	}
	return strconv.Itoa(n), true
}

// IsMayoral reports whether a ward label designates the mayoral (at-large)
// race rather than a specific ward.
func IsMayoral(label string) bool {
	return mayorRe.MatchString(label)
}

// Partition groups normalized rows by ward key, with mayoral rows collected
// separately. Mayor and ward membership are mutually exclusive. Rows whose
// ward label has no digits and no mayoral flag cannot be placed and are
// dropped from the partition.
type Partition struct {
	Wards   map[string][]NormalizedRow `json:"wards"`
	Mayoral []NormalizedRow            `json:"mayoral"`
	Dropped int                        `json:"dropped"`
}

// WardKeys returns the partition's ward keys in ascending numeric order.
func (p Partition) WardKeys() []string {
	keys := make([]string, 0, len(p.Wards))
	for k := range p.Wards {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys
}

// PartitionRows assigns each row to a ward list or the mayoral list.
func PartitionRows(rows []NormalizedRow) Partition {
	p := Partition{Wards: make(map[string][]NormalizedRow)}
	for _, r := range rows {
		if IsMayoral(r.Ward) {
			p.Mayoral = append(p.Mayoral, r)
			continue
		}
		key, ok := WardKey(r.Ward)
		if !ok {
			p.Dropped++
			zap.L().Debug("survey: dropped geographically unplaceable row",
				zap.String("ward_label", r.Ward),
			)
			continue
		}
		p.Wards[key] = append(p.Wards[key], r)
	}
	return p
}

// DisplayName builds a candidate's display name. Split first/last fields win;
// otherwise the mixed single-field name is used with HTML tags and
// email-shaped tokens stripped; an unresolvable name yields the literal
// placeholder.
func DisplayName(r NormalizedRow) string {
	name := collapseSpaces(r.FirstName + " " + r.LastName)
	if name != "" {
		return name
	}

	mixed := htmlTagRe.ReplaceAllString(r.NameMixed, " ")
	mixed = emailTokRe.ReplaceAllString(mixed, " ")
	if name = collapseSpaces(mixed); name != "" {
		return name
	}

	return "(name)"
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// Filter returns the rows matching an issue/answer selection. An empty issue
// matches every row; an empty answer matches any non-empty answer for the
// issue. The input rows are never re-parsed or mutated, so a filter can be
// re-evaluated at any time against the same normalized set.
func Filter(rows []NormalizedRow, issue, answer string) []NormalizedRow {
	if issue == "" {
		return rows
	}
	var out []NormalizedRow
	for _, r := range rows {
		v := r.Answers[issue]
		if isBlank(v) {
			continue
		}
		if answer != "" && !strings.EqualFold(v, answer) {
			continue
		}
		out = append(out, r)
	}
	return out
}
