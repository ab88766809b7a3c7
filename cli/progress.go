package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pterm/pterm"
)

type progressSpinner interface {
	Stop() error
	Success(...any)
	Fail(...any)
	UpdateText(string)
}

type progressSpinnerFactory func(w io.Writer, text string) (progressSpinner, error)

var defaultSpinnerFactory progressSpinnerFactory = func(w io.Writer, text string) (progressSpinner, error) {
	printer := pterm.DefaultSpinner.
		WithRemoveWhenDone(false).
		WithSequence(spinnerSequence...).
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithText(text)
	printer.Writer = w
	printer.SuccessPrinter = &successPrinter
	printer.FailPrinter = &failurePrinter
	return printer.Start()
}

// a leading space on every frame keeps spinner text aligned with finished steps.
var spinnerSequence = []string{" ⠋", " ⠙", " ⠹", " ⠸", " ⠼", " ⠴", " ⠦", " ⠧", " ⠇", " ⠏"}

var (
	successPrinter = pterm.PrefixPrinter{
		MessageStyle: pterm.Success.MessageStyle,
		Prefix:       pterm.Prefix{Text: "✓", Style: pterm.NewStyle(pterm.FgGreen)},
	}
	failurePrinter = pterm.PrefixPrinter{
		MessageStyle: pterm.Error.MessageStyle,
		Prefix:       pterm.Prefix{Text: "✗", Style: pterm.NewStyle(pterm.FgRed)},
	}
)

// StepStatus represents the state of a progress step.
type StepStatus int

const (
	// StepPending indicates a step has not yet started.
	StepPending StepStatus = iota
	// StepRunning indicates a step is currently in progress.
	StepRunning
	// StepCompleted indicates a step finished successfully.
	StepCompleted
	// StepFailed indicates a step encountered an error.
	StepFailed
)

// Step is a single stage of a long running command such as bench.
type Step struct {
	ID          string
	Message     string
	Status      StepStatus
	IndentLevel int // 0 = root, 1 = child (→), 2 = nested child, etc.
	startTime   time.Time
}

// ProgressManager reports a sequence of steps, showing a spinner for the running child step.
type ProgressManager struct {
	out            io.Writer
	steps          []*Step
	stepMap        map[string]*Step
	currentSpinner progressSpinner
	spinnerFactory progressSpinnerFactory
	clock          clock.Clock
	mu             sync.Mutex
	disabled       bool
}

// ProgressManagerOption allows customizing ProgressManager behavior at creation time.
type ProgressManagerOption func(*ProgressManager)

// WithProgressOutput enables or disables output for a ProgressManager. Step states are tracked
// either way.
func WithProgressOutput(enabled bool) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.disabled = !enabled
	}
}

func withProgressSpinnerFactory(factory progressSpinnerFactory) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.spinnerFactory = factory
	}
}

func withProgressClock(c clock.Clock) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.clock = c
	}
}

// NewProgressManager creates a new ProgressManager writing to out with all steps registered
// upfront.
func NewProgressManager(out io.Writer, steps []*Step, opts ...ProgressManagerOption) *ProgressManager {
	stepMap := make(map[string]*Step, len(steps))
	for _, step := range steps {
		stepMap[step.ID] = step
	}
	pm := &ProgressManager{
		out:            out,
		steps:          steps,
		stepMap:        stepMap,
		spinnerFactory: defaultSpinnerFactory,
		clock:          clock.New(),
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// getPrefix returns the formatted prefix for a step based on its indent level.
func getPrefix(step *Step) string {
	prefix := strings.Repeat("  ", step.IndentLevel)
	if step.IndentLevel > 0 {
		prefix += "→ "
	}
	return prefix
}

func (pm *ProgressManager) step(stepID string) (*Step, error) {
	step, exists := pm.stepMap[stepID]
	if !exists {
		return nil, fmt.Errorf("step %q not found", stepID)
	}
	return step, nil
}

// Start marks the step as running. Parent steps print a header line, child steps get a spinner.
func (pm *ProgressManager) Start(stepID string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepRunning
	step.startTime = pm.clock.Now()

	if pm.disabled {
		return nil
	}
	if step.IndentLevel == 0 {
		_, _ = fmt.Fprintf(pm.out, " …  %s\n", step.Message) //nolint:errcheck
		return nil
	}
	if pm.currentSpinner != nil {
		_ = pm.currentSpinner.Stop() //nolint:errcheck
	}
	// pterm puts a space after the spinner frame, so children get one more than getPrefix.
	spinner, err := pm.spinnerFactory(pm.out, " "+getPrefix(step)+step.Message)
	if err != nil {
		return fmt.Errorf("failed to start child spinner: %w", err)
	}
	pm.currentSpinner = spinner
	return nil
}

// Complete marks a step as completed, reporting its message and elapsed time.
func (pm *ProgressManager) Complete(stepID string) error {
	return pm.CompleteWithMessage(stepID, "")
}

// CompleteWithMessage marks a step as completed, reporting message instead of the step's own.
func (pm *ProgressManager) CompleteWithMessage(stepID, message string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepCompleted
	if pm.disabled {
		return nil
	}
	if message == "" {
		message = step.Message
	}
	if !step.startTime.IsZero() {
		message += fmt.Sprintf(" (%s)", pm.clock.Since(step.startTime).Round(time.Millisecond))
	}
	pm.finishLocked(step, message, true)
	return nil
}

// Fail marks a step as failed with err.
func (pm *ProgressManager) Fail(stepID string, err error) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, stepErr := pm.step(stepID)
	if stepErr != nil {
		return stepErr
	}
	step.Status = StepFailed
	if pm.disabled {
		return nil
	}
	pm.finishLocked(step, fmt.Sprintf("%s: %v", step.Message, err), false)
	return nil
}

func (pm *ProgressManager) finishLocked(step *Step, message string, success bool) {
	if step.IndentLevel > 0 {
		message = " " + getPrefix(step) + message
	}
	if pm.currentSpinner != nil {
		if success {
			pm.currentSpinner.Success(message)
		} else {
			pm.currentSpinner.Fail(message)
		}
		pm.currentSpinner = nil
		return
	}
	if success {
		successPrinter.WithWriter(pm.out).Println(message)
	} else {
		failurePrinter.WithWriter(pm.out).Println(message)
	}
}

// UpdateText updates the text of the currently active spinner.
func (pm *ProgressManager) UpdateText(text string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.disabled || pm.currentSpinner == nil {
		return
	}
	pm.currentSpinner.UpdateText(text)
}

// Stop stops any active spinner.
func (pm *ProgressManager) Stop() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.currentSpinner != nil {
		_ = pm.currentSpinner.Stop() //nolint:errcheck
		pm.currentSpinner = nil
	}
}
