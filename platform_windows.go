//go:build windows
// +build windows

package otterreceiver

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/receiver"
)

var (
	errNilNextConsumer = errors.New("nil next Consumer")
)

func createTraces(_ context.Context,
	params receiver.CreateSettings,
	baseCfg component.Config,
	nextConsumer consumer.Traces) (receiver.Traces, error) {

	if nextConsumer == nil {
		return nil, errNilNextConsumer
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

	if len(cfg.ReplayNamedPipePath) == 0 {
		return nil, fmt.Errorf("receivers.otterreceiver.pipe not configured")
	}

	return &Rcvr_NamedPipe{
		Base:          base,
		NamedPipePath: cfg.ReplayNamedPipePath,
	}, nil
}
