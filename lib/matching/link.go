package matching

import (
	"hl7tools/lib/textutil"

	"github.com/antzucaro/matchr"
)

type Link struct {
	Left        string
	Right       string
	Correlation float64
}

// Links pairs every name of the shorter list with at most one name of the
// other. Names equal once normalized link first with a correlation of 1, the
// rest link to their most similar unmatched name by Jaro-Winkler when the
// similarity reaches minCorrelation.
func Links(leftList, rightList []string, minCorrelation float64) []Link {
	swapped := false
	if len(rightList) < len(leftList) {
		leftList, rightList = rightList, leftList
		swapped = true
	}
	link := func(left, right string, correlation float64) Link {
		if swapped {
			return Link{Left: right, Right: left, Correlation: correlation}
		}
		return Link{Left: left, Right: right, Correlation: correlation}
	}

	rightKeys := make([]string, len(rightList))
	for i, right := range rightList {
		rightKeys[i] = textutil.MatchKey(right)
	}

	var result []Link
	matchedLeft := make(map[int]struct{})
	matchedRight := make(map[int]struct{})

	for i, left := range leftList {
		key := textutil.MatchKey(left)
		for j, right := range rightList {
			if _, ok := matchedRight[j]; ok {
				continue
			}
			if key == rightKeys[j] {
				result = append(result, link(left, right, 1))
				matchedLeft[i] = struct{}{}
				matchedRight[j] = struct{}{}
				break
			}
		}
	}

	for i, left := range leftList {
		if _, ok := matchedLeft[i]; ok {
			continue
		}
		key := textutil.MatchKey(left)

		var mostSimilarity float64
		mostSimilarRight := -1
		for j := range rightList {
			if _, ok := matchedRight[j]; ok {
				continue
			}
			similarity := matchr.JaroWinkler(key, rightKeys[j], false)
			if similarity > mostSimilarity {
				mostSimilarity = similarity
				mostSimilarRight = j
			}
		}

		if mostSimilarRight >= 0 && mostSimilarity > 0 && mostSimilarity >= minCorrelation {
			result = append(result, link(left, rightList[mostSimilarRight], mostSimilarity))
			matchedLeft[i] = struct{}{}
			matchedRight[mostSimilarRight] = struct{}{}
		}
	}

	return result
}
