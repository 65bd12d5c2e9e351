// Package rules holds the deterministic pricing and delivery estimates used
// when no carrier API returns a usable rate.
package rules

import "sort"

type postcodeRange struct {
	from, to int
}

// metroRanges are the inclusive metropolitan postcode bands, sorted and
// disjoint.
var metroRanges = []postcodeRange{
	{1000, 1935},
	{2000, 2079},
	{2085, 2107},
	{2109, 2156},
	{2158, 2172},
	{2174, 2229},
	{2232, 2249},
	{2557, 2559},
	{2564, 2567},
	{2740, 2744},
	{2747, 2751},
	{2759, 2764},
	{2766, 2774},
	{2776, 2777},
	{2890, 2897},
	{3000, 3062},
	{3064, 3098},
	{3101, 3138},
	{3140, 3210},
	{3800, 3801},
	{4000, 4018},
	{4029, 4068},
	{4072, 4123},
	{4127, 4129},
	{4131, 4132},
	{4151, 4164},
	{4169, 4182},
	{4205, 4206},
	{5000, 5113},
	{5115, 5117},
	{5125, 5130},
	{5158, 5169},
	{5800, 5999},
	{8000, 8999},
	{9000, 9275},
	{9999, 9999},
}

// IsMetro reports whether postcode falls inside a metropolitan band.
func IsMetro(postcode int) bool {
	// first range whose upper bound is >= postcode
	i := sort.Search(len(metroRanges), func(i int) bool {
		return metroRanges[i].to >= postcode
	})
	return i < len(metroRanges) && metroRanges[i].from <= postcode
}
