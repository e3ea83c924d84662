// Package domain models SuperMAG ground-magnetometer data.
//
// # Data Source
//
// Measurements come from the SuperMAG web services hosted at JHU/APL
// (https://supermag.jhuapl.edu). Two endpoints matter here:
//
//	inventory.php  →  JSON {"stations": ["BOU", "OTT", ...]} listing the
//	                  stations that reported during a requested window.
//	services root  →  CSV export of one station's baseline-subtracted
//	                  magnetic field samples for a requested window.
//
// Both endpoints address a window the same way: a start stamp plus an
// extent. There is no end parameter.
//
// # SuperMAG Conventions
//
// Station codes:
//
//	Three-letter IAGA observatory codes, uppercase, e.g. "BOU" (Boulder),
//	"OTT" (Ottawa). The CSV export repeats the code in an IAGA column on
//	every row; [ParseStationCSV] drops it because the record already
//	carries the code once.
//
// Start stamp format:
//
//	"2006-01-02T15:04:05.000Z", ISO 8601 with fixed millisecond zeros,
//	always UTC. See [DateFormat].
//
// Extent format:
//
//	"H:M" with no zero padding, total hours then leftover minutes.
//	A tenth of a non-leap year is "876:0"; of a leap year, "878:24".
//	See [Interval.HoursMinutes].
//
// Data columns:
//
//	Date_UTC is the sample timestamp and becomes the record's time index.
//	The remaining columns (N, E, Z components plus requested extras such
//	as MLT, SZA, IGRF declination) vary with the request options, so
//	records carry their field list explicitly. Blank cells mark minutes
//	the station did not report; they parse to NaN rather than zero
//	because zero is a legitimate field value.
//
// # Yearly Assembly
//
// The services reject very long windows, so a year is fetched as a
// sequence of equal intervals ([YearIntervals]) and the per-interval
// datasets are concatenated back into one record per station
// ([MergeIntervals]). Stations may appear mid-year or drop out; the
// merged record keeps whatever rows exist and unions the field lists,
// padding columns a source interval did not carry with NaN.
package domain
