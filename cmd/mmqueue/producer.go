package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	wqueue "github.com/Workiva/go-datastructures/queue"

	"github.com/srediag/mmqueue/internal/logger"
	"github.com/srediag/mmqueue/pkg/queue"
)

// runProducer reads newline-delimited input from stdin and publishes each
// line. A reader goroutine pushes lines onto a github.com/Workiva/go-datastructures
// MPMC queue so a slow downstream (the publish loop, gated by the single-
// writer mapped files) never blocks stdin reading, per SPEC_FULL.md §4.14.
func runProducer(args []string) error {
	fs := flag.NewFlagSet("producer", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	paths := pathsFromConfig(cfg)
	q, err := queue.InitProducer(queue.Config{
		IndexInitialBytes: cfg.IndexInitialBytes,
		DataInitialBytes:  cfg.DataInitialBytes,
		MaxConsumers:      cfg.MaxConsumers,
	}, paths, queue.WithLogger(logger.Default), queue.WithMetrics(globalMetrics))
	if err != nil {
		return err
	}
	defer q.Close()

	serveAmbient(cfg, q)

	lines := wqueue.New(1024)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			_ = lines.Put(scanner.Text())
		}
		// A non-string item marks end of input. Disposing the queue here
		// instead would drop lines the publish loop has not popped yet.
		_ = lines.Put(struct{}{})
	}()

	for {
		items, err := lines.Get(1)
		if err != nil {
			return nil // queue disposed
		}
		line, ok := items[0].(string)
		if !ok {
			return nil // end-of-input marker: stdin closed
		}
		if err := q.Publish([]byte(line)); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		fmt.Printf("published %d bytes\n", len(line))
	}
}
