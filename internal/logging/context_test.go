// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a := GenerateCorrelationID()
	b := GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("expected 8-character ID, got %q", a)
	}
	if a == b {
		t.Errorf("expected unique IDs, got %q twice", a)
	}
}

func TestContextValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" {
		t.Error("expected empty correlation ID on bare context")
	}
	if DatasetFromContext(ctx) != "" {
		t.Error("expected empty dataset on bare context")
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithDataset(ctx, "test_upcoming_rated")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation ID = %q", got)
	}
	if got := DatasetFromContext(ctx); got != "test_upcoming_rated" {
		t.Errorf("dataset = %q", got)
	}
}

func TestCtxAddsFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	ctx := ContextWithDataset(ContextWithCorrelationID(context.Background(), "run00001"), "popular")
	Ctx(ctx).Info().Msg("stage complete")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"run00001"`, `"dataset":"popular"`, "stage complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got: %s", want, out)
		}
	}
}
