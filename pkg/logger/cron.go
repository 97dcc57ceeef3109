package logger

import "go.uber.org/zap"

// CronLogger adapts a zap logger to the robfig/cron logging interface.
type CronLogger struct {
	sugar *zap.SugaredLogger
}

// NewCronLogger wraps l for use with cron.WithLogger and job wrappers.
func NewCronLogger(l *zap.Logger) CronLogger {
	return CronLogger{sugar: l.Named("cron").Sugar()}
}

// Info logs routine scheduler messages at debug level; cron is chatty.
func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.sugar.Debugw(msg, keysAndValues...)
}

// Error logs scheduler failures, including recovered job panics.
func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
