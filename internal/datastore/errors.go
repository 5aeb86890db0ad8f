package datastore

import (
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrTransient marks storage errors caused by a lost backend connection.
// Operations wrap qualifying driver errors with this sentinel so retry
// logic can dispatch on errors.Is instead of inspecting message text.
var ErrTransient = errors.New("transient storage error")

// classifyError tags connection-loss conditions as transient and returns
// every other error unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if isConnectionLoss(err) {
		return errors.Join(ErrTransient, err)
	}
	return err
}

func isConnectionLoss(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsTransient reports whether an error was classified as a recoverable
// connection loss.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
