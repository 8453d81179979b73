// Package results persists result records as a flat, quoted CSV table.
//
// # Table format
//
// The header is fixed:
//
//	contract_id,property_id,ground_truth,llm_answer,llm_explanation,llm_counterexample,time,tokens,raw_output
//
// Every field is double-quoted. Inside a field, quotes are doubled, line
// breaks are written as the two characters `\n`, and runs of ten quote
// characters are collapsed to two (models occasionally emit long quote runs
// that bloat the table). Decoding reverses the quoting and the newline
// encoding, so encode(decode(encode(x))) == encode(x).
//
// # Merging
//
// A Table is keyed by (contract_id, property_id). Merging a record whose key
// is already present overwrites that row in place; other rows keep their
// order; new keys are appended. Merging the same records twice is a no-op.
//
// # Writing
//
// Store.Commit loads the existing table, merges, renames the previous file
// to a timestamped backup and writes the merged table. Checkpoint is the
// append-only companion used during a run, one row per accepted task.
package results
