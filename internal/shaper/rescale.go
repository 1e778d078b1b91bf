package shaper

// supercellStep maps a primitive-cell atom count threshold to the supercell
// multipliers applied below it. The thresholds and multipliers are empirical:
// they keep the defect concentration of the rescaled cell in a comparable
// range regardless of the primitive cell size. The table is fixed; do not
// generalize it.
type supercellStep struct {
	maxSites   int
	multiplier [3]int
}

var supercellSteps = []supercellStep{
	{2, [3]int{4, 4, 4}},
	{4, [3]int{3, 3, 3}},
	{7, [3]int{3, 3, 2}},
	{10, [3]int{3, 2, 2}},
	{16, [3]int{2, 2, 2}},
	{32, [3]int{2, 2, 1}},
	{64, [3]int{2, 1, 1}},
}

// SupercellMultiplier returns the per-axis supercell multipliers for a cell
// with numSites atoms. Cells above the last threshold are left unscaled.
func SupercellMultiplier(numSites int) [3]int {
	for _, step := range supercellSteps {
		if numSites <= step.maxSites {
			return step.multiplier
		}
	}
	return [3]int{1, 1, 1}
}
