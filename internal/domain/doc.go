// Package domain models the Japan Meteorological Agency (JMA) daily
// earthquake listing.
//
// # Data Source
//
// JMA publishes one HTML page per day under
// https://www.data.jma.go.jp/eqev/data/daily_map/YYYYMMDD.html. The hypocenter
// table is embedded in a <pre> block as whitespace-aligned text, one event per
// line. Header, footer and separator lines share the block with the events.
//
// # Listing Conventions
//
// Line format (fields separated by one or more spaces):
//
//	2025 12  8 03:15 12.3  40°30.0'N 142°15.0'E  10  3.5  青森県東方沖
//	year month day HH:MM seconds latitude longitude depth magnitude region
//
// Coordinates use degree-minute-hemisphere notation: 40°30.0'N is 40 degrees
// and 30.0 minutes north, i.e. 40.5. South and west are negative. See
// [DegMinToDecimal].
//
// Times are local Japan Standard Time. The listing never states the offset;
// timestamps built here carry the fixed zone [JST] (UTC+9, no DST).
//
// Unknown values:
//
//	"-" in the depth or magnitude column means the agency has not determined
//	the value. Such events are kept in the catalog with a nil field and are
//	excluded from energy computation. Magnitudes can be negative for very
//	small events.
//
// Lines that do not match the grammar are skipped without error. The number
// of skipped lines is reported in [ParseResult] so grammar drift can be spotted
// in logs and metrics.
//
// # Energy
//
// Radiated energy uses the Gutenberg-Richter relation E = 10^(1.5M + 4.8)
// joules. See [EnergyJoule] and [DeriveMetrics].
//
// # Identity
//
// Records have no primary key. [Fingerprint] hashes the event fields so a
// downstream consumer can deduplicate if it wants to; the catalog itself never
// does.
package domain
