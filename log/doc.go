// Package log builds the zap loggers used throughout this codebase.
//
// Loggers are passed explicitly as *zap.Logger; there is no global logger.
//
// Important: This package does not attempt to replace test log, i.e. t.Log and t.Logf. Tests should use
// zaptest.NewLogger so handler output is attached to the test that produced it.
package log
