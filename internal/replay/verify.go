package replay

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/framesource"
)

// invariantExprs is the §4.J verification-mode oracle, each expressed
// against one step's final StepStatus plus the asset's ground-truth
// annotation stats for that step. All must evaluate true.
var invariantExprs = []string{
	"AccumulatedMs >= 0",
	"State != \"COMPLETED\" || CompletedTs != nil",
	// any step completed that was never annotated is a failure.
	"State != \"COMPLETED\" || Annotated",
	// annotation_duration >= threshold => must be COMPLETED.
	"AnnotationDurationMs < ThresholdMs || State == \"COMPLETED\"",
	// annotation_duration < threshold => must NOT be COMPLETED.
	"AnnotationDurationMs >= ThresholdMs || State != \"COMPLETED\"",
	// completed steps with an orientation-carrying annotation must match it.
	"State != \"COMPLETED\" || LastAnnotatedOrientation == \"NONE\" || Orientation == LastAnnotatedOrientation",
}

// stepEnv is the evaluation environment one invariant check runs
// against; field names are capitalized to read naturally in the
// expression strings above.
type stepEnv struct {
	State                    string
	Orientation              string
	AccumulatedMs            int64
	CompletedTs              *int64
	ThresholdMs              int64
	Annotated                bool
	AnnotationDurationMs     int64
	LastAnnotatedOrientation string
}

// Verdict is one step's invariant-check outcome.
type Verdict struct {
	StepID  domain.StepID
	Passed  bool
	Failure string
}

// annotationStat aggregates one step's ground-truth annotations: total
// annotated duration and the orientation of the last annotation seen.
type annotationStat struct {
	annotated       bool
	durationMs      int64
	lastOrientation domain.StepOrientation
}

func aggregateAnnotations(annotations []framesource.Annotation) map[domain.StepID]annotationStat {
	stats := make(map[domain.StepID]annotationStat, len(annotations))
	for _, a := range annotations {
		s := stats[a.StepID]
		s.annotated = true
		s.durationMs += a.EndMs - a.StartMs
		s.lastOrientation = a.Orientation
		stats[a.StepID] = s
	}
	return stats
}

// Verify checks record against the §4.J verification-mode oracle: for
// each step, the asset's annotation_duration (Σ end_ms−start_ms across
// that step's annotations) is compared against the configured
// duration_ms threshold to decide whether the step must or must not be
// COMPLETED, a completed oriented step's orientation must match the
// last annotated orientation, and any step completed without ever being
// annotated is a failure. It returns one Verdict per step.
func Verify(record domain.SessionRecord, cfg *config.Config, asset framesource.Asset) ([]Verdict, error) {
	stats := aggregateAnnotations(asset.Annotations)

	verdicts := make([]Verdict, 0, len(domain.AllSteps))
	for _, id := range domain.AllSteps {
		status, ok := record.Steps[id]
		if !ok {
			verdicts = append(verdicts, Verdict{StepID: id, Passed: false, Failure: "missing from session record"})
			continue
		}

		stat := stats[id]
		lastOrientation := stat.lastOrientation
		if lastOrientation == "" {
			lastOrientation = domain.OrientationNone
		}

		env := stepEnv{
			State:                    string(status.State),
			Orientation:              string(status.Orientation),
			AccumulatedMs:            status.AccumulatedMs,
			CompletedTs:              status.CompletedTs,
			ThresholdMs:              cfg.StepConfig(id).DurationMs,
			Annotated:                stat.annotated,
			AnnotationDurationMs:     stat.durationMs,
			LastAnnotatedOrientation: string(lastOrientation),
		}

		passed, failure, err := checkInvariants(env)
		if err != nil {
			return nil, fmt.Errorf("replay: verifying step %s: %w", id, err)
		}
		verdicts = append(verdicts, Verdict{StepID: id, Passed: passed, Failure: failure})
	}
	return verdicts, nil
}

func checkInvariants(env stepEnv) (passed bool, failure string, err error) {
	for _, source := range invariantExprs {
		program, compileErr := expr.Compile(source, expr.Env(env), expr.AsBool())
		if compileErr != nil {
			return false, "", fmt.Errorf("compiling %q: %w", source, compileErr)
		}
		result, runErr := expr.Run(program, env)
		if runErr != nil {
			return false, "", fmt.Errorf("running %q: %w", source, runErr)
		}
		ok, isBool := result.(bool)
		if !isBool {
			return false, "", fmt.Errorf("expression %q did not return bool", source)
		}
		if !ok {
			return false, fmt.Sprintf("invariant failed: %s", source), nil
		}
	}
	return true, "", nil
}

// AllPassed reports whether every verdict passed.
func AllPassed(verdicts []Verdict) bool {
	for _, v := range verdicts {
		if !v.Passed {
			return false
		}
	}
	return true
}
