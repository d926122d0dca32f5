// Package logger wraps zap with a global sugared logger and context helpers.
//
// Services put a named logger into the context with WithName or WithKV and log
// through the package-level functions (Info, InfoKV, WarnKV, ...), which pull the
// logger back out with FromContext.
package logger
