//go:build !windows
// +build !windows

package otterreceiver

import (
	"context"
	"fmt"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/receiver"
)

func createTraces(_ context.Context,
	params receiver.CreateSettings,
	baseCfg component.Config,
	nextConsumer consumer.Traces) (receiver.Traces, error) {

	if nextConsumer == nil {
		return nil, component.ErrNilNextConsumer
	}

	cfg := baseCfg.(*Config)
	logger := params.Logger

	engine, spanSink, err := newEngineForConfig(cfg)
	if err != nil {
		return nil, err
	}

	base := &Rcvr_Base{
		Logger:         logger,
		TracesConsumer: nextConsumer,
		RcvrConfig:     cfg,
		Engine:         engine,
		Dispatcher:     NewDispatcher(engine, logger),
		SpanSink:       spanSink,
	}

	if len(cfg.ReplaySocketPath) == 0 {
		return nil, fmt.Errorf("receivers.otterreceiver.socket not configured")
	}

	return &Rcvr_UnixSocket{
		Base:       base,
		SocketPath: cfg.ReplaySocketPath,
	}, nil
}
