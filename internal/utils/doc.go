// Package utils exposes reusable helpers consumed by multiple commands.
//
// ConfigurationLoader layers embedded defaults, configuration files, and
// UPMERGE_ environment overrides through Viper; LoggerFactory builds zap
// loggers; FlushingWriter keeps operator output visible while long-running
// git and terraform commands execute.
package utils
