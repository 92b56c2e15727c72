package pathgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuota_WithinLimit(t *testing.T) {
	q := newQuota(10)

	for i := 0; i < 10; i++ {
		assert.True(t, q.take(), "state %d should be allowed", i+1)
	}
	assert.Equal(t, 10, q.used())
}

func TestQuota_ExceedsLimit(t *testing.T) {
	q := newQuota(5)
	for i := 0; i < 5; i++ {
		q.take()
	}

	assert.False(t, q.take())
	assert.Equal(t, 6, q.used())
}

func TestQuota_Zero(t *testing.T) {
	q := newQuota(0)

	assert.False(t, q.take())
}
