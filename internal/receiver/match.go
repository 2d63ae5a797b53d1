// internal/receiver/match.go
package receiver

import "strings"

// LongestCommonSubstring returns the length, in runes, of the longest
// contiguous run shared by a and b.
func LongestCommonSubstring(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// prev[j] holds the length of the common suffix of ra[:i-1] and rb[:j].
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	best := 0
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return best
}

// AppMatch picks the candidate closest to processName. The suffix is removed
// from processName first when present. The winner has the longest common
// substring with the cleaned name; on a tie the earliest candidate wins.
// It returns "" and -1 when there are no candidates.
func AppMatch(candidates []string, processName, suffix string) (string, int) {
	if len(candidates) == 0 {
		return "", -1
	}
	cleaned := processName
	if suffix != "" {
		cleaned = strings.TrimSuffix(processName, suffix)
	}

	bestIdx, bestScore := 0, -1
	for i, c := range candidates {
		if score := LongestCommonSubstring(c, cleaned); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return candidates[bestIdx], bestIdx
}
