//go:build debug
// +build debug

package main

// Debug configuration - prefixes topics to avoid interfering with production
const (
	TopicTimezone  = "debug_clock/timezone"
	TopicLocation  = "debug_clock/location"
	ClientIDPrefix = "minihamclock-debug-"
	IsDebugBuild   = true
)
