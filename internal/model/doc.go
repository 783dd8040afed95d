// Package model defines the in-memory representation of a recoil-distance
// (RDDS) measurement: the relative velocity of the recoiling nuclei, the
// datapoints measured at each target-to-stopper distance, and the fit results
// attached to a dataset.
//
// Every measured quantity is carried as a ValueErrorPair. Datapoints are keyed
// by their distance value; adding a second datapoint at the same distance
// replaces the first. Collections always iterate in ascending distance order,
// which is the implicit ordering shared by every vector handed to the fit.
package model
