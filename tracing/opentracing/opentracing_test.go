// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package opentracing_test

import (
	"context"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"

	"github.com/mcoppeta/junior-design-1337-sub000/tracing/opentracing"
)

// Ensure spans reach the wrapped opentracing tracer with parentage
// intact.
func TestTracer_StartSpanFromContext(t *testing.T) {
	mock := mocktracer.New()
	tr := opentracing.NewTracer(mock)

	parent, ctx := tr.StartSpanFromContext(context.Background(), "Ledger.Write")
	child, _ := tr.StartSpanFromContext(ctx, "Ledger.Write.graft")
	child.LogKV("sets", 2)
	child.Finish()
	parent.Finish()

	spans := mock.FinishedSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 finished spans, got %d", len(spans))
	}
	if got := spans[0].OperationName; got != "Ledger.Write.graft" {
		t.Fatalf("unexpected operation name: %s", got)
	}
	if spans[0].ParentID != spans[1].SpanContext.SpanID {
		t.Fatalf("span %q did not parent %q", spans[1].OperationName, spans[0].OperationName)
	}
	if logs := spans[0].Logs(); len(logs) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(logs))
	}
}
