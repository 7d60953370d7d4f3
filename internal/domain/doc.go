// Package domain models the earthquake/tsunami event catalog and the two
// transformations the rest of the service is built on.
//
// # Data Source
//
// The catalog is a single delimited file (earthquake_data_tsunami.csv) with one
// row per seismic event. Column names are case-sensitive: Year and Month are
// capitalized, every other column is lowercase.
//
//	required: magnitude, depth, latitude, longitude, tsunami, Year, Month, sig
//	optional: nst, dmin, gap, cdi, mmi
//
// The tsunami column is a 0/1 indicator. sig is the source's composite
// significance score and may be negative. Optional columns may hold empty
// cells; cdi and mmi are replaced with 0 when missing, the rest stay NaN.
//
// # Derived Fields
//
// [Prepare] attaches these to every event:
//
//	Shallow        depth < 70 km
//	HighMagnitude  magnitude >= 7.0
//	RingOfFire     |latitude| > 10 and longitude in the Pacific band
//	               (120 -> 180 wrapping to -60, plus -180..-60)
//	MagCategory    (0,6.5] Moderate | (6.5,7.0] High | (7.0,7.5] Very High | (7.5,10] Extreme
//	DepthCategory  (-1,70] Shallow | (70,300] Intermediate | (300,700] Deep
//
// Bins are closed on the upper edge, so a value on a boundary lands in the
// lower bin. Values outside every bin leave the category empty. Note that a
// depth of exactly 70 is not Shallow by flag but is in the Shallow category.
//
// Ring of Fire membership is a longitude-band approximation of the Pacific
// Rim, not a geofence.
//
// # Filtering
//
// [Apply] narrows a prepared [Table] with a [FilterConfig]. Every configured
// dimension is an independent predicate; predicates are AND-ed and the input
// order is preserved. Tables are immutable: Apply always returns a new one.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of year|month|lat|lon|depth|magnitude,
// so republishing the catalog downstream is idempotent. See [generateID].
package domain
