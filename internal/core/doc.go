// Package core implements the lifetime fit for Doppler-shift recoil-distance
// measurements.
//
// The shifted intensity is modelled by a polynomial P(t) of flight time and
// the unshifted intensity by t_hyp · P'(t). Both are fitted jointly by
// minimising a weighted chi-squared:
//
//	χ² = Σ ((S_i − P(t_i))/ΔS_i)² + w · Σ ((U_i − t_hyp·P'(t_i))/ΔU_i)²
//
// The coefficients are fitted with L-BFGS for a fixed t_hyp, and t_hyp is
// found by a bounded scalar search whose objective is the minimised χ² at
// that t_hyp. Per-distance lifetimes τ_i = U_i / P'(t_i) are combined into a
// weighted mean after propagating the fit covariance into Δτ_i.
//
// All functions are synchronous. CalculateLifetime is the only one that
// writes to its arguments: it stores τ_i on each active datapoint and the
// weighted mean, t_hyp and fitted polynomial on the dataset.
package core
