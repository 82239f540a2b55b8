// Package domain models flood observations for the monitored Metro Manila
// cities and the two computations the dashboard is built around: the
// rule-based risk classifier and the per-city statistics rollup.
//
// # Cities
//
// The city set is closed: Quezon City, Manila, Marikina and Pasig, in that
// order. Stats output always lists every city once, in declaration order,
// whether or not any observation references it.
//
// # Risk Table
//
// Rainfall in millimetres selects one of four contiguous buckets. Lower
// bounds are inclusive:
//
//	rainfall    level  depth   description
//	<50         1      0.1 m   Minimal Risk
//	[50,150)    3      0.5 m   Moderate Risk
//	[150,300)   6      1.5 m   High Risk
//	>=300       8      3.0 m   Severe Risk
//
// The minimal bucket carries no affected infrastructure and keeps the
// default recommendation ("Monitor weather updates."). Every other bucket
// replaces it with its own text.
//
// # City Modifier
//
// Marikina sits in the Marikina River valley. When rainfall is strictly
// above 100 mm there, the level is raised by one (clamped to 8) and the
// description is annotated. Depth, infrastructure and recommendation stay at
// the bucket's values, so a Marikina level of 4 or 7 reports the
// infrastructure of the bucket below it.
//
// # Flood Height Scale
//
// Observations record flood height on an integer 0-8 scale that shares its
// range with the risk level. Precipitation is non-negative millimetres.
//
// # Trend
//
// A city's trend is "increasing" when its unrounded mean flood height is
// above 5 and "stable" otherwise, so a mean of 5.04 reports
// avgFloodLevel 5 with an increasing trend. "decreasing" exists in the wire contract
// but no rule produces it.
package domain
