// Package terraform discovers downstream repositories from terraform state.
package terraform
