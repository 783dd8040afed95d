// Package ingest reads measurement datasets from disk and writes them back.
//
// Two formats are supported. The legacy NAPATAU format is a directory holding
// four whitespace-separated text files:
//
//	v_c            relative velocity and optional error (first row only)
//	distances.dat  index distance distance_error
//	norm.fac       index calibration calibration_error
//	*.fit          index shifted Δshifted unshifted Δunshifted [feeding_shifted Δ feeding_unshifted Δ]
//
// Rows are joined on their index. Blank lines and lines starting with '#'
// are skipped.
//
// The napytau format is a single JSON document, optionally accompanied by a
// setup document that fixes t_hyp, the polynomial degree and which
// distances are active. Both are validated against an embedded CUE schema
// before decoding.
package ingest
