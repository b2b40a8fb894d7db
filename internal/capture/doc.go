// Package capture implements the client-side voice-turn pipeline: an RMS
// energy meter over live audio sample windows, a hysteresis turn detector
// that decides when a speech turn starts and stops, and a recorder that
// drives the platform encoder to package each finished turn into a clip.
//
// All capture state is owned by a single Session loop driven by a periodic
// tick; nothing in this package is persisted.
package capture
