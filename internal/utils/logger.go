package utils

import (
	"github.com/sirupsen/logrus"
)

// ExtendedLogger is the logging interface used across the gateway.
// It is satisfied by pkg/logger.Logger and keeps packages decoupled
// from a concrete logrus instance.
type ExtendedLogger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithField(key string, value interface{}) *logrus.Entry
	WithFields(fields logrus.Fields) *logrus.Entry
	WithError(err error) *logrus.Entry
}
