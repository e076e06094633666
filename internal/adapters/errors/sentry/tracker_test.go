package sentry

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrasnap/pkg/errors"
)

func TestConvertLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelDebug, convertLevel(errors.LevelDebug))
	assert.Equal(t, sentry.LevelWarning, convertLevel(errors.LevelWarning))
	assert.Equal(t, sentry.LevelFatal, convertLevel(errors.LevelFatal))
	assert.Equal(t, sentry.LevelInfo, convertLevel(errors.Level("verbose")))
}

func TestTracker_EmptyDSNIsInert(t *testing.T) {
	tracker, err := New("", "test", "")
	require.NoError(t, err)

	ctx := context.Background()
	tracker.AddBreadcrumb(ctx, "listed instruments", "snapshot", errors.LevelInfo, map[string]interface{}{"active": 3})
	assert.NoError(t, tracker.CaptureError(ctx, errors.New("boom"), map[string]string{"run_id": "r1"}))
	assert.NoError(t, tracker.CaptureMessage(ctx, "hello", errors.LevelWarning, nil))
}
