// Package csvimport turns brokerage CSV exports into holding records.
//
// Exports are inconsistently encoded (UTF-8 or Shift_JIS) and their header
// labels drift between broker software versions, so every parser locates
// its header row by keyword signature and resolves columns through a ranked
// label table instead of fixed positions. Malformed input never fails: an
// unrecognized file yields no records and an unparseable cell reads as zero.
package csvimport
