package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clindevdep/RSS/internal/domain"
)

type fakeDriver struct {
	job     func(time.Time)
	stopped bool
}

func (f *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	f.job = job
	return nil
}

func (f *fakeDriver) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func TestSchedulerShiftsTriggerIntoConfiguredTimezone(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	env := newTestEnv(t, testArticles(5))
	driver := &fakeDriver{}
	sched := NewScheduler(driver, env.pipeline, nil, newYork)
	require.NoError(t, sched.Start(context.Background()))
	require.NotNil(t, driver.job)

	// 23:30 UTC is 19:30 in New York, inside the 8-22 window.
	driver.job(time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC))
	assert.Len(t, env.sender.sent, 1)
}

func TestSchedulerKeepsUTCWhenNoLocationGiven(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testArticles(5))
	driver := &fakeDriver{}
	sched := NewScheduler(driver, env.pipeline, nil, nil)
	require.NoError(t, sched.Start(context.Background()))

	driver.job(time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC))
	assert.Empty(t, env.sender.sent, "23:30 UTC is outside the active window")
}

func TestSchedulerStopDelegates(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	sched := NewScheduler(driver, nil, nil, nil)
	require.NoError(t, sched.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerSurvivesFailedRuns(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testArticles(5))
	env.source.err = assert.AnError
	driver := &fakeDriver{}
	sched := NewScheduler(driver, env.pipeline, nil, time.UTC)
	require.NoError(t, sched.Start(context.Background()))

	driver.job(noon())
	assert.Empty(t, env.sender.sent)

	env.source.err = nil
	driver.job(noon())
	assert.Len(t, env.sender.sent, 1)
}

func TestSchedulerOutcomeVisibleInReport(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	report, err := env.pipeline.Run(context.Background(), noon())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNothingNew, report.Outcome)
	assert.Zero(t, report.Fetched)
}
