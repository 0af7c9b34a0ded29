// Package wrapper puts an accountability layer in front of a Space.
//
// Every request goes through Handle: a Proposer picks one Strategy from a
// closed set, the wrapper applies it deterministically, and a DECISION entry
// carrying the strategy, input and result is appended to the audit chain.
// The returned Decision holds that entry's hash so a caller can later prove
// what was decided.
//
// Escalate is the only soft outcome. It returns an Escalation value instead
// of an error, for inputs the policy cannot classify.
package wrapper
