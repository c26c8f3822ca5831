package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRecorder_DrainAndLimit(t *testing.T) {
	r := NewRecorder(2, NewLog(zap.NewNop()))

	r.Notify(LevelInfo, "one")
	r.Notify(LevelError, "two")
	r.Notify(LevelSuccess, "three")

	got := r.Drain()
	if assert.Len(t, got, 2) {
		assert.Equal(t, "two", got[0].Message)
		assert.Equal(t, LevelSuccess, got[1].Level)
	}
	assert.Empty(t, r.Drain())
}
