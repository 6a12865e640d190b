// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jeranaias/sessionchat/internal/stream"

// Instruments come from the global meter provider, which is a no-op until
// telemetry is enabled.
var (
	instrumentsOnce   sync.Once
	fragmentCounter   metric.Int64Counter
	byteCounter       metric.Int64Counter
	firstFragmentHist metric.Float64Histogram
)

func initInstruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		fragmentCounter, _ = meter.Int64Counter("sessionchat.stream.fragments",
			metric.WithDescription("Decoded fragments delivered to the display"))
		byteCounter, _ = meter.Int64Counter("sessionchat.stream.bytes",
			metric.WithDescription("Raw body bytes read from reply streams"),
			metric.WithUnit("By"))
		firstFragmentHist, _ = meter.Float64Histogram("sessionchat.stream.first_fragment",
			metric.WithDescription("Time from request to first decoded fragment"),
			metric.WithUnit("ms"))
	})
}

func recordBytes(n int) {
	initInstruments()
	if byteCounter != nil {
		byteCounter.Add(context.Background(), int64(n))
	}
}

func recordFragment() {
	initInstruments()
	if fragmentCounter != nil {
		fragmentCounter.Add(context.Background(), 1)
	}
}

func recordFirstFragment(d time.Duration) {
	initInstruments()
	if firstFragmentHist != nil {
		firstFragmentHist.Record(context.Background(), float64(d.Microseconds())/1000)
	}
}
