// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
)

// interruptSignals defines the signals that cancel the daemon context.  It is
// extended during init on platforms that support SIGTERM.
var interruptSignals = []os.Signal{os.Interrupt}

// shutdownContext returns a context derived from parent that is cancelled
// once one of interruptSignals is received.  The returned stop function
// releases the signal handler.
func shutdownContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, interruptSignals...)

	go func() {
		select {
		case sig := <-interruptChannel:
			mpldLog.Infof("Received signal (%s).  Shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(interruptChannel)
		cancel()
	}
}
