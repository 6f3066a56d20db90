package session

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// TeardownSignals are the signals that end a session on a clean shutdown.
var TeardownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// CloseOnSignal closes the manager's session when one of TeardownSignals
// arrives, then calls onSignal if it is non-nil. An Open still waiting for
// the lock or a conflict answer is interrupted first, so it cancels. The returned stop function
// removes the handler; call it once the caller has closed the session itself.
func (m *Manager) CloseOnSignal(onSignal func(os.Signal)) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, TeardownSignals...)

	go func() {
		select {
		case sig := <-sigChan:
			m.logger.Info("received signal, closing case session", "signal", sig.String())
			m.Interrupt()
			m.Close()
			if onSignal != nil {
				onSignal(sig)
			}
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
		})
	}
}
