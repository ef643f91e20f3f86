package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduleRejectsBadExpression(t *testing.T) {
	s := NewScheduler(quietLogger())
	_, err := s.Schedule("calibration", "not a cron", time.Minute, func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestStartRequiresJobs(t *testing.T) {
	s := NewScheduler(quietLogger())
	assert.Error(t, s.Start())
}

func TestSchedulerRunsJob(t *testing.T) {
	s := NewScheduler(quietLogger())
	var calls atomic.Int32

	_, err := s.Schedule("calibration", "@every 1s", time.Minute, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("run failed")
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())
	assert.Len(t, s.Entries(), 1)

	_, err = s.Schedule("other", "@daily", time.Minute, func(ctx context.Context) error { return nil })
	assert.Error(t, err, "scheduling while running must fail")

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}

func TestFieldsPairsKeysAndValues(t *testing.T) {
	f := fields([]interface{}{"entry", 3, "next", "soon", "dangling"})
	assert.Equal(t, logrus.Fields{"entry": 3, "next": "soon"}, f)
}
