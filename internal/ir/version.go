package ir

// EngineVersion is the feedback-loop version recorded with every run in the
// attempt ledger.
const EngineVersion = "0.1.0"
