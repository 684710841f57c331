// Package inttest provides helpers for integration tests that need real
// backing services: a throwaway redis and a fake OpenRosa server.
package inttest
