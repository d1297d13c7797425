package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/mmqueue/internal/logger"
	"github.com/srediag/mmqueue/pkg/queue"
)

// runConsumer attaches to an existing producer's files (retrying with
// backoff, since a consumer commonly starts before the producer), registers
// under name starting at startSeq, then loops waiting for new data and
// draining to stdout until interrupted.
func runConsumer(args []string) error {
	fs := flag.NewFlagSet("consumer", flag.ExitOnError)
	name := fs.String("name", "consumer", "consumer slot name")
	startSeq := fs.Uint64("start-seq", 0, "sequence number to begin draining from")
	attachTimeout := fs.Duration("attach-timeout", 10*time.Second, "max time to wait for the producer's files to appear")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	paths := pathsFromConfig(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *attachTimeout)
	defer cancel()
	b := backoff.NewExponentialBackOff()
	q, err := queue.AttachConsumerWithBackoff(ctx, paths, cfg.MaxConsumers, b,
		queue.WithLogger(logger.Default), queue.WithMetrics(globalMetrics))
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	defer q.Close()

	if err := q.RegisterConsumer(*name, *startSeq); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	serveAmbient(cfg, q)

	for {
		msg, err := q.Drain()
		if err == nil {
			fmt.Printf("%s\n", msg)
			continue
		}
		if !errors.Is(err, queue.ErrNoMsgAvailable) {
			return fmt.Errorf("drain: %w", err)
		}
		if waitErr := q.WaitTimeout(time.Second); waitErr != nil && !errors.Is(waitErr, queue.ErrTimedOut) {
			return fmt.Errorf("wait: %w", waitErr)
		}
	}
}
