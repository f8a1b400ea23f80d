package overrides

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeKey folds width forms, lowercases and drops everything that is not
// a letter or digit, so "Cover Artist", "cover_artist" and "coverArtist" agree.
func normalizeKey(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	return reNonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

var keyIndex, keyNames = func() (map[string]comicinfo.Field, []string) {
	idx := make(map[string]comicinfo.Field)
	for _, f := range comicinfo.Fields() {
		idx[normalizeKey(f.String())] = f
		for _, a := range f.Aliases() {
			idx[normalizeKey(a)] = f
		}
	}
	names := make([]string, 0, len(idx))
	for k := range idx {
		names = append(names, k)
	}
	sort.Strings(names)
	return idx, names
}()

// Resolve maps a user-supplied key to a field. Element names and the form
// aliases are accepted in any case and spacing.
func Resolve(key string) (comicinfo.Field, error) {
	n := normalizeKey(key)
	if f, ok := keyIndex[n]; ok {
		return f, nil
	}
	if s, ok := suggest(n); ok {
		return 0, fmt.Errorf("%w %q (did you mean %s?)", ErrUnknownField, key, s)
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownField, key)
}

// suggest returns the element name closest to the normalized key n.
func suggest(n string) (string, bool) {
	if n == "" {
		return "", false
	}

	// a prefix or abbreviation first ("pub", "cvrart")
	if ranks := fuzzy.RankFind(n, keyNames); len(ranks) > 0 {
		sort.Sort(ranks)
		return keyIndex[ranks[0].Target].String(), true
	}

	// then plain typos
	best, bestDist := "", len(n)/3+1
	for _, k := range keyNames {
		if d := fuzzy.LevenshteinDistance(n, k); d <= bestDist && (best == "" || d < bestDist) {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return "", false
	}
	return keyIndex[best].String(), true
}
