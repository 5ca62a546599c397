//go:build !debug
// +build !debug

package main

// Production configuration
const (
	TopicTimezone  = "clock/timezone"
	TopicLocation  = "clock/location"
	ClientIDPrefix = "minihamclock-"
	IsDebugBuild   = false
)
