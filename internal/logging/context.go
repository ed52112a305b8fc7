// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	datasetKey       contextKey = "dataset"
)

// GenerateCorrelationID creates a short correlation ID (first 8 characters of a UUID).
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a new context carrying the correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation ID or "" if none is set.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithDataset tags the context with the dataset being processed so
// every stage log line carries it.
func ContextWithDataset(ctx context.Context, dataset string) context.Context {
	return context.WithValue(ctx, datasetKey, dataset)
}

// DatasetFromContext returns the dataset tag or "" if none is set.
func DatasetFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(datasetKey).(string); ok {
		return name
	}
	return ""
}

// Ctx returns a logger with the context's correlation ID and dataset attached.
//
//	logging.Ctx(ctx).Info().Int("page", 3).Msg("Page fetched")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := Logger().With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if name := DatasetFromContext(ctx); name != "" {
		logCtx = logCtx.Str("dataset", name)
	}
	logger := logCtx.Logger()
	return &logger
}
