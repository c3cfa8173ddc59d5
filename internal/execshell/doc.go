// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// observers, OSCommandRunner executes processes through os/exec, and
// CommandMessageFormatter renders git and terraform invocations as
// human-readable messages. Values registered as sensitive on a command are
// masked in every log line, message, and error produced by this package.
package execshell
