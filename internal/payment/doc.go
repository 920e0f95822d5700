// Package payment manages milestone payment gates.
//
// A payment gate opens when an approved transition crosses a maturity
// level boundary. The amount is the contract value share of the milestone
// percentage, billed incrementally against what the project has already
// paid. The service only ever records confirmations relayed from an
// external billing system; it never initiates a charge.
package payment
