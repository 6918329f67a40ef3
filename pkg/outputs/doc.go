// Package outputs classifies sandbox execution-output records into a closed
// set of tagged variants and selects a single human-facing representation
// from MIME-keyed payloads.
//
// The sandbox reports results as Jupyter-style records discriminated by the
// "output_type" field. Classification is a total function: records with an
// unrecognized shape become the Unknown variant carrying the raw payload,
// never an error, so rendering cannot fail on an unexpected record.
package outputs
