package balance

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalletSerializer(t *testing.T) {
	t.Run("serialises holders of the same wallet", func(t *testing.T) {
		s := NewWalletSerializer()

		var inside, maxInside int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release := s.Lock("w1")
				defer release()

				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				atomic.AddInt32(&inside, -1)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside)
		assert.Zero(t, s.Active(), "released wallets must be forgotten")
	})

	t.Run("different wallets do not block each other", func(t *testing.T) {
		s := NewWalletSerializer()
		releaseA := s.Lock("a")
		releaseB := s.Lock("b")
		assert.Equal(t, 2, s.Active())
		releaseA()
		releaseB()
		assert.Zero(t, s.Active())
	})

	t.Run("nil serializer is a no-op", func(t *testing.T) {
		var s *WalletSerializer
		release := s.Lock("w1")
		release()
	})
}
