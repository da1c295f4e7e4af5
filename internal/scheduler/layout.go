package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Grouping selects how overlapping blocks are clustered into side-by-side bands.
type Grouping string

const (
	// GroupingGreedy attaches each block, in input order, to the first group that
	// already holds an intersecting block. Chains of pairwise-disjoint blocks that
	// touch a common neighbour end up in one group with one column each.
	GroupingGreedy Grouping = "greedy"
	// GroupingClustered splits the day into connected overlap clusters and packs
	// each cluster into the fewest columns with first-free-column assignment.
	// It changes the rendered widths compared to GroupingGreedy, so it is opt-in.
	GroupingClustered Grouping = "clustered"
)

// ParseGrouping resolves a grouping name; the empty string selects GroupingGreedy.
func ParseGrouping(value string) (Grouping, error) {
	switch Grouping(strings.ToLower(strings.TrimSpace(value))) {
	case "", GroupingGreedy:
		return GroupingGreedy, nil
	case GroupingClustered:
		return GroupingClustered, nil
	default:
		return "", fmt.Errorf("unknown grouping %q", value)
	}
}

// LayoutOptions configures the pixel geometry of the day column.
type LayoutOptions struct {
	SlotMinutes int
	SlotHeight  float64
	BandWidth   float64
	BandOffset  float64
	TopOffset   float64
	Grouping    Grouping
}

// DefaultLayoutOptions mirrors the booking screen: 30 minute slots 30 units tall
// and a 130 unit band starting 40 units from the time labels.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		SlotMinutes: 30,
		SlotHeight:  30,
		BandWidth:   130,
		BandOffset:  40,
		Grouping:    GroupingGreedy,
	}
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	defaults := DefaultLayoutOptions()
	if o.SlotMinutes <= 0 {
		o.SlotMinutes = defaults.SlotMinutes
	}
	if o.SlotHeight <= 0 {
		o.SlotHeight = defaults.SlotHeight
	}
	if o.BandWidth <= 0 {
		o.BandWidth = defaults.BandWidth
	}
	if o.BandOffset < 0 {
		o.BandOffset = 0
	}
	if o.Grouping == "" {
		o.Grouping = defaults.Grouping
	}
	return o
}

// Position is a rectangle in layout units.
type Position struct {
	Top    float64
	Height float64
	Left   float64
	Width  float64
}

// Placement is a block with its computed rectangle and overlap group membership.
type Placement struct {
	Block
	Position
	Group   int
	Column  int
	Columns int
}

// LayoutError reports a block that could not be placed. It is never fatal.
type LayoutError struct {
	ID     string
	Reason string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("layout: block %q skipped: %s", e.ID, e.Reason)
}

// Layout is the computed view of one calendar day.
type Layout struct {
	Day        time.Time
	Placements []Placement
	Skipped    []*LayoutError
}

// LayoutDay positions the blocks of a single day. Blocks with a zero start, a
// non-positive duration, or a start outside day are dropped and reported in
// Skipped so one bad record never prevents the rest of the day from rendering.
// A zero day disables the day check. Placements keep the input order.
func LayoutDay(day time.Time, blocks []Block, opts LayoutOptions) Layout {
	opts = opts.withDefaults()
	layout := Layout{Day: day}

	valid := make([]Block, 0, len(blocks))
	for _, block := range blocks {
		if err := checkBlock(day, block); err != nil {
			layout.Skipped = append(layout.Skipped, err)
			continue
		}
		valid = append(valid, block)
	}
	if len(valid) == 0 {
		return layout
	}

	var assignments []assignment
	switch opts.Grouping {
	case GroupingClustered:
		assignments = clusteredAssignments(valid)
	default:
		assignments = greedyAssignments(valid)
	}

	layout.Placements = make([]Placement, len(valid))
	for i, block := range valid {
		a := assignments[i]
		width := opts.BandWidth / float64(a.columns)
		layout.Placements[i] = Placement{
			Block: block,
			Position: Position{
				Top:    opts.TopOffset + verticalOffset(day, block.Start, opts),
				Height: blockHeight(block.DurationMinutes, opts),
				Left:   opts.BandOffset + width*float64(a.column),
				Width:  width,
			},
			Group:   a.group,
			Column:  a.column,
			Columns: a.columns,
		}
	}
	return layout
}

type assignment struct {
	group   int
	column  int
	columns int
}

func checkBlock(day time.Time, block Block) *LayoutError {
	switch {
	case block.Start.IsZero():
		return &LayoutError{ID: block.ID, Reason: "missing start time"}
	case block.DurationMinutes <= 0:
		return &LayoutError{ID: block.ID, Reason: fmt.Sprintf("non-positive duration %d", block.DurationMinutes)}
	case !day.IsZero() && !SameDay(day, block.Start):
		return &LayoutError{ID: block.ID, Reason: "starts outside the rendered day"}
	}
	return nil
}

func greedyAssignments(blocks []Block) []assignment {
	var groups [][]int
	out := make([]assignment, len(blocks))

	for i, block := range blocks {
		target := -1
	search:
		for g, members := range groups {
			for _, j := range members {
				if block.Overlaps(blocks[j]) {
					target = g
					break search
				}
			}
		}
		if target < 0 {
			groups = append(groups, nil)
			target = len(groups) - 1
		}
		out[i] = assignment{group: target, column: len(groups[target])}
		groups[target] = append(groups[target], i)
	}

	for i := range out {
		out[i].columns = len(groups[out[i].group])
	}
	return out
}

func clusteredAssignments(blocks []Block) []assignment {
	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return blocks[order[a]].Start.Before(blocks[order[b]].Start)
	})

	out := make([]assignment, len(blocks))
	group := -1
	var clusterEnd time.Time
	var columnEnds []time.Time
	var members []int

	flush := func() {
		for _, idx := range members {
			out[idx].columns = len(columnEnds)
		}
	}

	for _, idx := range order {
		block := blocks[idx]
		if group < 0 || !block.Start.Before(clusterEnd) {
			flush()
			group++
			clusterEnd = time.Time{}
			columnEnds = columnEnds[:0]
			members = members[:0]
		}

		column := -1
		for c, end := range columnEnds {
			if !end.After(block.Start) {
				column = c
				break
			}
		}
		if column < 0 {
			columnEnds = append(columnEnds, time.Time{})
			column = len(columnEnds) - 1
		}
		columnEnds[column] = block.End()
		if block.End().After(clusterEnd) {
			clusterEnd = block.End()
		}

		out[idx] = assignment{group: group, column: column}
		members = append(members, idx)
	}
	flush()
	return out
}

func verticalOffset(day, start time.Time, opts LayoutOptions) float64 {
	if !day.IsZero() {
		start = start.In(day.Location())
	}
	minutes := start.Hour()*60 + start.Minute()
	return float64(minutes) / float64(opts.SlotMinutes) * opts.SlotHeight
}

func blockHeight(durationMinutes int, opts LayoutOptions) float64 {
	slots := (durationMinutes + opts.SlotMinutes - 1) / opts.SlotMinutes
	return float64(slots) * opts.SlotHeight
}
