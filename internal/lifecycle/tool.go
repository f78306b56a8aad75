package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"log/slog"

	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
	"git.home.luguber.info/inful/stackctl/internal/events"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// RunTool executes a tool once. The capability path initializes the tool
// on first use and calls Execute; the convention path runs the tool's
// main script with options rendered as --key=value flags. The result map
// is the capability's return value, or {output, exit_code} for scripts.
func (m *Manager) RunTool(ctx context.Context, name string, opts map[string]any) (result map[string]any, err error) {
	if !m.entities.Exists(entity.KindTool, name) {
		return nil, errors.EntityNotFound(entity.KindTool.String(), name)
	}

	begin := time.Now()
	defer func() {
		m.record(ctx, entity.KindTool, name, OpRun, begin, err)
		m.metrics.IncToolRun(name, err == nil)
	}()

	ex, err := m.caps.Executable(name)
	if err != nil {
		return nil, err
	}
	if ex != nil {
		if err = m.ensureInitialized(name, ex); err != nil {
			err = errors.EntityLifecycleError(entity.KindTool.String(), name, OpRun, err)
			return nil, err
		}
		result, err = ex.Execute(opts)
		if err != nil {
			err = errors.EntityLifecycleError(entity.KindTool.String(), name, OpRun, err)
			return nil, err
		}
		return result, nil
	}

	script := m.paths().MainScript(name)
	if !isExecutable(script) {
		err = errors.EntityLifecycleError(entity.KindTool.String(), name, OpRun,
			errors.New(errors.CategoryFilesystem, errors.SeverityError, "tool has no capability and no executable main script"))
		return nil, err
	}

	output, err := runScript(ctx, script, m.paths().Dir(entity.KindTool, name), m.moduleEnv(entity.KindTool, name), optionArgs(opts)...)
	if err != nil {
		err = errors.EntityLifecycleError(entity.KindTool.String(), name, OpRun, err)
		return nil, err
	}

	slog.Info("tool executed", logfields.Entity(name), logfields.Path(script))
	return map[string]any{"output": output, "exit_code": 0}, nil
}

// optionArgs renders an options map as sorted --key=value flags so script
// invocations are deterministic.
func optionArgs(opts map[string]any) []string {
	if len(opts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("--%s=%v", k, opts[k]))
	}
	return args
}

// TestResult is the outcome of one test script.
type TestResult struct {
	Suite  string `json:"suite"`
	Script string `json:"script"`
	Passed bool   `json:"passed"`
	Output string `json:"output,omitempty"`
}

// TestReport aggregates a tool's test run.
type TestReport struct {
	Tool    string       `json:"tool"`
	Results []TestResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
}

// RunToolTests executes the tool's test scripts. Suite is "unit",
// "integration", or empty for both. A tool without test directories
// yields an empty report, not an error.
func (m *Manager) RunToolTests(ctx context.Context, name, suite string) (*TestReport, error) {
	if !m.entities.Exists(entity.KindTool, name) {
		return nil, errors.EntityNotFound(entity.KindTool.String(), name)
	}

	suites := []string{"unit", "integration"}
	if suite != "" {
		if suite != "unit" && suite != "integration" {
			return nil, errors.InvalidArgument("test suite must be unit or integration")
		}
		suites = []string{suite}
	}

	report := &TestReport{Tool: name, Results: []TestResult{}}
	toolDir := m.paths().Dir(entity.KindTool, name)

	for _, s := range suites {
		pattern := filepath.Join(m.paths().TestsDir(name), s, "test_*.sh")
		scripts, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryFilesystem, errors.SeverityError, "listing test scripts").
				WithContext("entity", name)
		}
		sort.Strings(scripts)

		for _, script := range scripts {
			if !isExecutable(script) {
				slog.Warn("skipping non-executable test script",
					logfields.Entity(name), logfields.Path(script))
				continue
			}
			output, runErr := runScript(ctx, script, toolDir, m.moduleEnv(entity.KindTool, name))
			result := TestResult{
				Suite:  s,
				Script: filepath.Base(script),
				Passed: runErr == nil,
				Output: output,
			}
			if runErr == nil {
				report.Passed++
			} else {
				report.Failed++
			}
			report.Results = append(report.Results, result)
		}
	}

	outcome := events.OutcomeSuccess
	if report.Failed > 0 {
		outcome = events.OutcomeFailed
	}
	m.audit.Record(ctx, events.Event{
		Kind: entity.KindTool.String(), Entity: name, Operation: "test", Outcome: outcome,
		Detail: map[string]string{
			"passed": fmt.Sprintf("%d", report.Passed),
			"failed": fmt.Sprintf("%d", report.Failed),
		},
	})
	return report, nil
}
