package booking

import "github.com/iliyamo/ticket-booking/internal/model"

// MaxSeats is the largest number of seats a single request may book.
const MaxSeats = 7

// Allocation is one entry of a plan: take Count seats from Row.
type Allocation struct {
	Row   int
	Count int
}

// Plan decides which rows to book k seats from, given the row vacancies
// ordered by ascending row number.  It never touches storage.
//
// A single row that fits k with the least spare capacity wins.  When no
// row fits, the shortest contiguous run of rows whose vacancies add up
// to k is used.  When k equals the total vacancy every vacant seat is
// taken.  An empty plan means k cannot be satisfied.
func Plan(rows []model.RowVacancy, k int) []Allocation {
	if k <= 0 {
		return nil
	}
	total := 0
	for _, r := range rows {
		total += r.Vacant
	}
	if k > total {
		return nil
	}
	if k == total {
		return fullHouse(rows)
	}
	if i := bestFitRow(rows, k); i >= 0 {
		return []Allocation{{Row: rows[i].Row, Count: k}}
	}
	return spread(rows, minWindow(rows, k), k)
}

func fullHouse(rows []model.RowVacancy) []Allocation {
	plan := make([]Allocation, 0, len(rows))
	for _, r := range rows {
		if r.Vacant > 0 {
			plan = append(plan, Allocation{Row: r.Row, Count: r.Vacant})
		}
	}
	return plan
}

// bestFitRow returns the position of the row with the smallest vacancy
// that still holds k seats, or -1.  Rows are scanned in ascending order
// so ties resolve to the lowest row.
func bestFitRow(rows []model.RowVacancy, k int) int {
	best := -1
	for i, r := range rows {
		if r.Vacant < k {
			continue
		}
		if best < 0 || r.Vacant < rows[best].Vacant {
			best = i
		}
	}
	return best
}

// minWindow returns the positions of the shortest contiguous window whose
// vacancy sum reaches k, skipping rows with no vacancy.  Only a strictly
// shorter window replaces the current best, so the leftmost window found
// first wins ties.  Vacancies are non-negative, which makes the two
// pointer scan valid.
func minWindow(rows []model.RowVacancy, k int) []int {
	start, sum := 0, 0
	bestLen := -1
	bestStart, bestEnd := 0, 0
	for end := range rows {
		sum += rows[end].Vacant
		for sum >= k && start <= end {
			if l := end - start; bestLen < 0 || l < bestLen {
				bestLen, bestStart, bestEnd = l, start, end
			}
			sum -= rows[start].Vacant
			start++
		}
	}
	if bestLen < 0 {
		return nil
	}
	out := make([]int, 0, bestEnd-bestStart+1)
	for i := bestStart; i <= bestEnd; i++ {
		if rows[i].Vacant != 0 {
			out = append(out, i)
		}
	}
	return out
}

// spread walks the chosen positions in order and takes as many seats as
// each row offers until k are assigned.
func spread(rows []model.RowVacancy, positions []int, k int) []Allocation {
	if len(positions) == 0 {
		return nil
	}
	plan := make([]Allocation, 0, len(positions))
	remaining := k
	for _, p := range positions {
		if remaining == 0 {
			break
		}
		n := min(remaining, rows[p].Vacant)
		if n == 0 {
			continue
		}
		plan = append(plan, Allocation{Row: rows[p].Row, Count: n})
		remaining -= n
	}
	if remaining > 0 {
		return nil
	}
	return plan
}
