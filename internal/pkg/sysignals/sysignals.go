// Package sysignals converts OS quit signals into errors, so that they can be handled the same way
// as any other fatal error of the app
package sysignals

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/naughtygopher/errors"
)

var ErrSigQuit = errors.New("received quit signal")

// NotifyErrorOnQuit blocks until one of SIGINT, SIGTERM or SIGQUIT is received, and then pushes
// ErrSigQuit (wrapped with the signal name) to errChan
func NotifyErrorOnQuit(errChan chan<- error) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(interrupt)

	sig := <-interrupt
	errChan <- errors.Wrap(ErrSigQuit, sig.String())
}
