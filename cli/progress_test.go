package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

type fakeSpinner struct {
	mu        sync.Mutex
	text      string
	stopped   bool
	successes []string
	failures  []string
}

func (f *fakeSpinner) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeSpinner) Success(message ...any) {
	f.mu.Lock()
	f.successes = append(f.successes, fmt.Sprint(message...))
	f.mu.Unlock()
	_ = f.Stop()
}

func (f *fakeSpinner) Fail(message ...any) {
	f.mu.Lock()
	f.failures = append(f.failures, fmt.Sprint(message...))
	f.mu.Unlock()
	_ = f.Stop()
}

func (f *fakeSpinner) UpdateText(text string) {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
}

// newTestProgressManager records every spinner it starts in spinners.
func newTestProgressManager(out io.Writer, steps []*Step, spinners *[]*fakeSpinner, opts ...ProgressManagerOption) *ProgressManager {
	factory := func(_ io.Writer, text string) (progressSpinner, error) {
		fs := &fakeSpinner{}
		fs.UpdateText(text)
		*spinners = append(*spinners, fs)
		return fs, nil
	}
	opts = append(opts, withProgressSpinnerFactory(factory))
	return NewProgressManager(out, steps, opts...)
}

func TestGetPrefix(t *testing.T) {
	tests := []struct {
		indent   int
		expected string
	}{
		{0, ""},
		{1, "  → "},
		{2, "    → "},
		{3, "      → "},
	}
	for _, tc := range tests {
		test.That(t, getPrefix(&Step{IndentLevel: tc.indent}), test.ShouldEqual, tc.expected)
	}
}

func TestProgressSteps(t *testing.T) {
	steps := []*Step{
		{ID: "bench", Message: "Benchmarking", IndentLevel: 0},
		{ID: "build", Message: "Building scene", IndentLevel: 1},
		{ID: "frames", Message: "Running frames", IndentLevel: 1},
	}
	var out bytes.Buffer
	var spinners []*fakeSpinner
	mockClock := clock.NewMock()
	pm := newTestProgressManager(&out, steps, &spinners, withProgressClock(mockClock))
	defer pm.Stop()

	test.That(t, pm.Start("bench"), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "Benchmarking")
	test.That(t, spinners, test.ShouldBeEmpty)
	test.That(t, steps[0].Status, test.ShouldEqual, StepRunning)

	test.That(t, pm.Start("build"), test.ShouldBeNil)
	test.That(t, spinners, test.ShouldHaveLength, 1)
	test.That(t, spinners[0].text, test.ShouldEqual, "   → Building scene")
	mockClock.Add(1500 * time.Millisecond)
	test.That(t, pm.Complete("build"), test.ShouldBeNil)
	test.That(t, spinners[0].successes, test.ShouldResemble, []string{"   → Building scene (1.5s)"})
	test.That(t, steps[1].Status, test.ShouldEqual, StepCompleted)

	test.That(t, pm.Start("frames"), test.ShouldBeNil)
	pm.UpdateText("frame 3/10")
	test.That(t, spinners[1].text, test.ShouldEqual, "frame 3/10")
	test.That(t, pm.Fail("frames", errors.New("boom")), test.ShouldBeNil)
	test.That(t, spinners[1].failures, test.ShouldResemble, []string{"   → Running frames: boom"})
	test.That(t, steps[2].Status, test.ShouldEqual, StepFailed)

	test.That(t, pm.CompleteWithMessage("bench", "Benchmarked"), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "Benchmarked")

	err := pm.Start("missing")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, `step "missing" not found`)
}

func TestStartReplacesPreviousSpinner(t *testing.T) {
	steps := []*Step{
		{ID: "child1", Message: "First child", IndentLevel: 1},
		{ID: "child2", Message: "Second child", IndentLevel: 1},
	}
	var spinners []*fakeSpinner
	pm := newTestProgressManager(io.Discard, steps, &spinners)
	defer pm.Stop()

	test.That(t, pm.Start("child1"), test.ShouldBeNil)
	test.That(t, pm.Start("child2"), test.ShouldBeNil)
	test.That(t, spinners, test.ShouldHaveLength, 2)
	test.That(t, spinners[0].stopped, test.ShouldBeTrue)
	test.That(t, spinners[1].stopped, test.ShouldBeFalse)
}

func TestProgressManagerWithOutputDisabled(t *testing.T) {
	steps := []*Step{
		{ID: "parent", Message: "Parent", IndentLevel: 0},
		{ID: "child", Message: "Child", IndentLevel: 1},
	}
	var out bytes.Buffer
	var spinners []*fakeSpinner
	pm := newTestProgressManager(&out, steps, &spinners, WithProgressOutput(false))
	defer pm.Stop()

	test.That(t, pm.Start("parent"), test.ShouldBeNil)
	test.That(t, pm.Start("child"), test.ShouldBeNil)
	test.That(t, pm.Complete("child"), test.ShouldBeNil)
	test.That(t, pm.Complete("parent"), test.ShouldBeNil)

	test.That(t, spinners, test.ShouldBeEmpty)
	test.That(t, out.Len(), test.ShouldEqual, 0)
	test.That(t, steps[0].Status, test.ShouldEqual, StepCompleted)
	test.That(t, steps[1].Status, test.ShouldEqual, StepCompleted)
}
