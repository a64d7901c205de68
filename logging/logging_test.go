package logging

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Debugw("reprojected edge", "valid", 12)
	logger.Infof("processed %d frames", 3)

	test.That(t, observed.FilterMessageSnippet("reprojected edge").Len(), test.ShouldEqual, 1)
	test.That(t, observed.FilterMessageSnippet("processed 3 frames").Len(), test.ShouldEqual, 1)

	entry := observed.FilterMessageSnippet("reprojected edge").All()[0]
	test.That(t, entry.ContextMap()["valid"], test.ShouldEqual, 12)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("dense")
	sub.Info("hello")

	all := observed.All()
	test.That(t, len(all), test.ShouldEqual, 1)
	test.That(t, all[0].LoggerName, test.ShouldContainSubstring, "dense")
}

func TestContextLogger(t *testing.T) {
	logger := NewTestLogger(t)
	ctx := WithLogger(context.Background(), logger)
	test.That(t, FromContext(ctx), test.ShouldEqual, logger)
	test.That(t, FromContext(context.Background()), test.ShouldEqual, Global())
}

func TestReplaceGlobal(t *testing.T) {
	prev := Global()
	defer ReplaceGlobal(prev)

	logger := NewTestLogger(t)
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}
