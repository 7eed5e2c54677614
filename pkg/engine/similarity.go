package engine

// similarityRatio measures how alike two strings are, as
// 2*matched/(len(a)+len(b)) over the longest-matching-block
// decomposition of the rune sequences. 1.0 means identical, 0.0 means
// nothing in common.
func similarityRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1.0
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}

	b2j := make(map[rune][]int, len(br))
	for j, r := range br {
		b2j[r] = append(b2j[r], j)
	}

	matched := matchedTotal(ar, b2j, 0, len(ar), 0, len(br))
	return 2.0 * float64(matched) / float64(len(ar)+len(br))
}

// matchedTotal sums the sizes of all matching blocks between a[alo:ahi]
// and b[blo:bhi], recursing on the regions either side of the longest
// match.
func matchedTotal(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) int {
	besti, bestj, bestsize := longestMatch(a, b2j, alo, ahi, blo, bhi)
	if bestsize == 0 {
		return 0
	}
	total := bestsize
	total += matchedTotal(a, b2j, alo, besti, blo, bestj)
	total += matchedTotal(a, b2j, besti+bestsize, ahi, bestj+bestsize, bhi)
	return total
}

// longestMatch finds the longest block where a[i:i+k] == b[j:j+k] within
// the given bounds, preferring the earliest such block.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
