// Package templateguard blocks upstream templates that can not be merged into another space.
package templateguard
