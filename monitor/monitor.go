// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package monitor

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	sentry "github.com/getsentry/sentry-go"
)

const (
	LevelPanic = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// EnvDSN names the environment variable holding the Sentry project DSN.
// The monitor stays off when it is unset.
const EnvDSN = "EXO_SENTRY_DSN"

var isOn bool

// InitErrorMonitor turns on error reporting for this process. It is a no-op
// unless EXO_SENTRY_DSN is set in the environment.
func InitErrorMonitor(version string) {
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		return
	}
	isOn = true
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
		Debug:            false,
		TracesSampleRate: 1,
		Release:          version,
	})
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{IPAddress: "{{auto}}"})
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	CaptureMessage("Session:Started")
}

// CaptureMessage sends a message to Sentry.
func CaptureMessage(message string) {
	if !isOn || isTest() {
		return
	}
	sentry.CaptureMessage(message)
	defer sentry.Flush(2 * time.Second)
}

// CaptureException sends an error to Sentry.
func CaptureException(level int, format string, v ...interface{}) {
	if !isOn || isTest() {
		return
	}
	if level > LevelWarn {
		return
	}
	err := fmt.Errorf(format, v...)

	sentry.CaptureException(err)
	defer sentry.Flush(2 * time.Second)
}

// IsOn returns true if the monitor is enabled.
func IsOn() bool {
	return isOn
}

// isTest returns true if execution is part of test
func isTest() bool {
	return flag.Lookup("test.v") != nil
}
