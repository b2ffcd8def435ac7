package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"tagpatch/host/config"
	"tagpatch/host/reader"
	"tagpatch/host/sink"
)

func runMeasure(ctx context.Context, cfg *config.Config) error {
	client, closeFn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	sinks := []reader.Sink{reader.SinkFunc(printSample)}

	if cfg.Output.CSV != "" {
		f, err := os.Create(cfg.Output.CSV)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, sink.NewCSV(f))
		glog.Infof("exporting to %s", cfg.Output.CSV)
	}

	if cfg.MQTT.Broker != "" {
		mc, err := sink.DialMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return err
		}
		defer mc.Disconnect(250)
		sinks = append(sinks, sink.NewMQTT(mc, cfg.MQTT.Topic, cfg.MQTT.QoS))
		glog.Infof("publishing to %s on %s", cfg.MQTT.Topic, cfg.MQTT.Broker)
	}

	session := &reader.Session{
		Client:   client,
		Samples:  cfg.Session.Samples,
		Interval: time.Duration(cfg.Session.IntervalMs) * time.Millisecond,
		Sink:     sink.Multi(sinks...),
	}
	stats, err := session.Run(ctx)
	fmt.Printf("\nGain %dx, %d samples, %d rejected\n", stats.Gain, stats.Taken, stats.Rejected)
	return err
}

func printSample(s reader.Sample) error {
	fmt.Printf("%6d  %8.0f ms  raw %5d  %.4f V\n", s.Index, float64(s.Elapsed)/float64(time.Millisecond), s.Raw, s.Voltage)
	return nil
}
