package importer

import (
	"slices"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

// PlanYears picks the years to import when none are requested: every
// advertised year with no stored resolutions, plus the current year, which is
// always revisited because it is still accumulating records.
func PlanYears(gw crawler.Gateway, stored map[int]int, currentYear int) []int {
	var years []int
	for _, y := range gw.Years {
		if y == currentYear || stored[y] == 0 {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return slices.Compact(years)
}
