// Command mmqueue is the demo CLI driver for the mmqueue protocol: a
// producer reads lines from stdin and publishes them, a consumer attaches
// and drains to stdout, and stat reports process/mapped-file diagnostics.
// Non-normative per spec.md §6.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "producer":
		err = runProducer(os.Args[2:])
	case "consumer":
		err = runConsumer(os.Args[2:])
	case "stat":
		err = runStat(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "mmqueue:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: mmqueue <producer|consumer|stat> [flags]")
}
