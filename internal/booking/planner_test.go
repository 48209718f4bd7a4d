package booking

import (
	"reflect"
	"testing"

	"github.com/iliyamo/ticket-booking/internal/model"
)

func vacancies(counts ...int) []model.RowVacancy {
	rows := make([]model.RowVacancy, len(counts))
	for i, c := range counts {
		rows[i] = model.RowVacancy{Row: i, Vacant: c}
	}
	return rows
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name string
		rows []model.RowVacancy
		k    int
		want []Allocation
	}{
		{
			name: "minimal window of two rows",
			rows: vacancies(2, 3, 1, 4),
			k:    5,
			want: []Allocation{{Row: 0, Count: 2}, {Row: 1, Count: 3}},
		},
		{
			name: "best fit prefers the tightest row",
			rows: vacancies(1, 5, 2),
			k:    2,
			want: []Allocation{{Row: 2, Count: 2}},
		},
		{
			name: "best fit ties go to the lowest row",
			rows: vacancies(4, 7, 4),
			k:    3,
			want: []Allocation{{Row: 0, Count: 3}},
		},
		{
			name: "full house takes every vacant seat",
			rows: vacancies(2, 0, 3),
			k:    5,
			want: []Allocation{{Row: 0, Count: 2}, {Row: 2, Count: 3}},
		},
		{
			name: "empty rows inside the window are skipped",
			rows: vacancies(3, 0, 3, 1),
			k:    6,
			want: []Allocation{{Row: 0, Count: 3}, {Row: 2, Count: 3}},
		},
		{
			name: "leftmost window wins ties",
			rows: vacancies(3, 3, 3, 3),
			k:    5,
			want: []Allocation{{Row: 0, Count: 3}, {Row: 1, Count: 2}},
		},
		{
			name: "shorter window later in the hall beats an earlier long one",
			rows: vacancies(1, 1, 1, 3, 3),
			k:    6,
			want: []Allocation{{Row: 3, Count: 3}, {Row: 4, Count: 3}},
		},
		{
			name: "row numbers are carried through",
			rows: []model.RowVacancy{{Row: 10, Vacant: 2}, {Row: 11, Vacant: 3}, {Row: 12, Vacant: 1}},
			k:    4,
			want: []Allocation{{Row: 10, Count: 2}, {Row: 11, Count: 2}},
		},
		{name: "more than vacant", rows: vacancies(1, 1), k: 3, want: nil},
		{name: "zero seats", rows: vacancies(4), k: 0, want: nil},
		{name: "negative seats", rows: vacancies(4), k: -2, want: nil},
		{name: "no rows", rows: nil, k: 1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.rows, tt.k)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Plan(%v, %d) = %v, want %v", tt.rows, tt.k, got, tt.want)
			}
		})
	}
}

func TestPlan_SumsToK(t *testing.T) {
	rows := vacancies(7, 7, 2, 0, 5, 1, 7, 3, 3, 6, 7, 3)
	for k := 1; k <= MaxSeats; k++ {
		plan := Plan(rows, k)
		if len(plan) == 0 {
			t.Fatalf("k=%d: empty plan", k)
		}
		sum := 0
		for _, a := range plan {
			if a.Count <= 0 || a.Count > rows[a.Row].Vacant {
				t.Fatalf("k=%d: allocation %+v exceeds row vacancy %d", k, a, rows[a.Row].Vacant)
			}
			sum += a.Count
		}
		if sum != k {
			t.Fatalf("k=%d: plan sums to %d", k, sum)
		}
	}
}

func TestMinWindow_NoWindow(t *testing.T) {
	if got := minWindow(vacancies(1, 0, 1), 3); got != nil {
		t.Fatalf("expected nil window, got %v", got)
	}
}

func TestSeatLabel(t *testing.T) {
	tests := []struct {
		seat model.Seat
		want string
	}{
		{model.Seat{Row: 0, Column: 0}, "A1"},
		{model.Seat{Row: 11, Column: 2}, "L3"},
		{model.Seat{Row: 25, Column: 6}, "Z7"},
		{model.Seat{Row: 26, Column: 0}, "AA1"},
	}
	for _, tt := range tests {
		if got := SeatLabel(tt.seat); got != tt.want {
			t.Errorf("SeatLabel(%+v) = %q, want %q", tt.seat, got, tt.want)
		}
	}
}
