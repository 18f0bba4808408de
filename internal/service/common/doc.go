// Package common holds helpers shared by the panel and pulse services.
//
// It opens a motor session (device plus controller) from configuration,
// shuts it down safely, and detects the local operator for log context.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
