package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLocksSerializeSameUser(t *testing.T) {
	locks := newUserLocks()
	unlock := locks.lock("alice")

	acquired := make(chan struct{})
	go func() {
		release := locks.lock("alice")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second turn for the same user ran concurrently")
	case <-time.After(50 * time.Millisecond):
	}

	// other users are not blocked
	locks.lock("bob")()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiting turn never acquired the lock")
	}
	assert.Eventually(t, func() bool { return locks.len() == 0 }, time.Second, 5*time.Millisecond)
}
