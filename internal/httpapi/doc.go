// Package httpapi exposes the maturity engine over HTTP.
//
// All state changes flow through the engine.StateMachine so the HTTP
// layer stays a thin binding: decode, call, map errors to statuses.
package httpapi
