package sync

import (
	"sync"
	"time"
)

// WaitGroupTimeout waits for the WaitGroup at most timeout.
// It returns true when the timeout elapsed first.
// A non-positive timeout waits without a limit.
func WaitGroupTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	wgClosed := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgClosed)
	}()

	if timeout <= 0 {
		<-wgClosed
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-wgClosed:
		return false
	case <-timer.C:
		return true
	}
}
