// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package logging configures the structured logger that the CLI passes
// explicitly to the code that logs, in the spirit of go-ethereum's own
// log.Info("msg", "k", v) API but never as a package-level global.
// WithLogger and FromContext carry a logger in a context.Context.
package logging

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// New builds a logrus logger from a level string (as in the BIFROST_LOG env
// var) and an output format: "json" selects the JSON formatter, anything
// else the text formatter.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// NewCorrelated builds a logger the same way New does, then tags every line
// it emits with a fresh per-run correlation id — useful for telling
// concurrent `inspect`/`decompile` invocations' log lines apart.
func NewCorrelated(level, format string) *logrus.Entry {
	return logrus.NewEntry(New(level, format)).WithField("run_id", uuid.New().String())
}

// WithLogger returns a context carrying log, retrievable with FromContext.
func WithLogger(ctx context.Context, log *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stashed by WithLogger, or a default
// stderr logger at info level if none was set — callers never need a nil
// check.
func FromContext(ctx context.Context) *logrus.Entry {
	if log, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return log
	}
	fallback := logrus.New()
	fallback.SetOutput(os.Stderr)
	return logrus.NewEntry(fallback)
}
