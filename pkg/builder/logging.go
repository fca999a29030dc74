// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import "go.uber.org/zap"

var logger = zap.NewNop().Sugar()

// SetLogger replaces the package logger. The default is a nop logger so
// library consumers opt in to output.
func SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		logger = l
	}
}

func logf(format string, args ...any) {
	logger.Infof(format, args...)
}
