// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/rules"
)

func newCorpus(t *testing.T, files map[string]string) *corpus.Corpus {
	t.Helper()
	var list []corpus.File
	for path, content := range files {
		list = append(list, corpus.File{Path: path, Content: []byte(content)})
	}
	c, err := corpus.FromFiles(context.Background(), list, lintconfig.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func only(rule string, sev lintconfig.Severity, options ...any) lintconfig.Config {
	base := lintconfig.Build(lintconfig.Answers{})
	return base.WithOnly(rule, lintconfig.RuleEntry{Severity: sev, Options: options})
}

func TestEngine_Analyze(t *testing.T) {
	c := newCorpus(t, map[string]string{
		"a.js": "const a = \"x\";\n",
		"b.js": "const b = 'y';\n",
	})
	engine := NewEngine(nil)
	assert.Equal(t, "builtin", engine.Name())

	report, err := engine.Analyze(context.Background(), c, only("quotes", lintconfig.SeverityError, "double"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count())
	require.Len(t, report.ByEntry["b.js"], 1)

	d := report.ByEntry["b.js"][0]
	assert.Equal(t, "quotes", d.Rule)
	assert.Equal(t, lintconfig.SeverityError, d.Severity)
	assert.Equal(t, 1, d.Line)
	assert.Contains(t, d.String(), "b.js:1:")

	report, err = engine.Analyze(context.Background(), c, only("quotes", lintconfig.SeverityOff, "single"))
	require.NoError(t, err)
	assert.True(t, report.Clean(), "disabled rules do not run")
}

func TestEngine_AnalyzeErrors(t *testing.T) {
	c := newCorpus(t, map[string]string{"a.js": "const a = 1;\n"})
	engine := NewEngine(rules.Builtin())

	_, err := engine.Analyze(context.Background(), c, only("no-such-rule", lintconfig.SeverityError))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRule))
	var ae *AnalyzerError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "no-such-rule", ae.Rule)

	_, err = engine.Analyze(context.Background(), c, only("quotes", lintconfig.SeverityError, "sideways"))
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	_, err = engine.Analyze(context.Background(), nil, only("quotes", lintconfig.SeverityError))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestEngine_RulePanicIsAnError(t *testing.T) {
	c := newCorpus(t, map[string]string{"a.js": "const a = 1;\n"})
	set := rules.NewSet(&rules.Rule{
		ID: "explodes",
		Compile: func([]any) (rules.CheckFunc, error) {
			return func(rules.Source) []rules.Finding { panic("boom") }, nil
		},
	})

	_, err := NewEngine(set).Analyze(context.Background(), c, only("explodes", lintconfig.SeverityError))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEngine_ConcurrentCalls(t *testing.T) {
	c := newCorpus(t, map[string]string{
		"a.js": "var a = 1\n",
		"b.js": "let b = 2;\n",
	})
	engine := NewEngine(nil)

	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func(i int) {
			cfg := only("semi", lintconfig.SeverityError, "always")
			if i%2 == 0 {
				cfg = only("no-var", lintconfig.SeverityWarn)
			}
			report, err := engine.Analyze(context.Background(), c, cfg)
			if err == nil && report.Count() != 1 {
				err = errors.New("unexpected diagnostic count")
			}
			errs <- err
		}(i)
	}
	for i := 0; i < 16; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestReport_All(t *testing.T) {
	r := NewReport()
	r.Add("b.js", Diagnostic{Path: "b.js", Line: 1})
	r.Add("a.js", Diagnostic{Path: "a.js", Line: 3}, Diagnostic{Path: "a.js", Line: 1, Column: 2})
	r.Add("c.js")

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a.js", all[0].Path)
	assert.Equal(t, 1, all[0].Line)
	assert.Equal(t, 3, all[1].Line)
	assert.Equal(t, "b.js", all[2].Path)
	assert.NotContains(t, r.ByEntry, "c.js")
}

func TestESLintArgs(t *testing.T) {
	base := lintconfig.Build(lintconfig.Answers{SourceType: lintconfig.SourceCommonJS})
	cfg := base.WithRules(map[string]lintconfig.RuleEntry{
		"quotes": {Severity: lintconfig.SeverityError, Options: []any{"single"}},
		"no-var": {Severity: lintconfig.SeverityOff},
		"curly":  {Severity: lintconfig.SeverityWarn},
	})

	args, err := eslintArgs(cfg, []string{"a.js", "b.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--no-config-lookup",
		"--format", "json",
		"--parser-options", "sourceType:commonjs",
		"--parser-options", "ecmaVersion:latest",
		"--rule", `{"curly":["warn"]}`,
		"--rule", `{"quotes":["error","single"]}`,
		"--", "a.js", "b.js",
	}, args)
}

func TestParseESLintOutput(t *testing.T) {
	data := []byte(`[
	  {"filePath": "/work/src/a.js", "errorCount": 1, "warningCount": 0, "messages": [
	    {"ruleId": "quotes", "severity": 2, "message": "Strings must use singlequote.", "line": 1, "column": 11}
	  ]},
	  {"filePath": "/work/src/b.js", "errorCount": 1, "warningCount": 0, "messages": [
	    {"ruleId": null, "fatal": true, "severity": 2, "message": "Parsing error: Unexpected token", "line": 2, "column": 1}
	  ]},
	  {"filePath": "/work/src/c.js", "errorCount": 0, "warningCount": 0, "messages": []}
	]`)
	index := map[string]string{"/work/src/a.js": "src/a.js"}
	cfg := only("quotes", lintconfig.SeverityWarn, "single")

	report, err := parseESLintOutput(data, index, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())

	require.Len(t, report.ByEntry["src/a.js"], 1)
	assert.Equal(t, lintconfig.SeverityWarn, report.ByEntry["src/a.js"][0].Severity)
	require.Len(t, report.ByEntry["/work/src/b.js"], 1)
	assert.Equal(t, "", report.ByEntry["/work/src/b.js"][0].Rule)
	assert.Equal(t, lintconfig.SeverityError, report.ByEntry["/work/src/b.js"][0].Severity)

	empty, err := parseESLintOutput([]byte("  \n"), nil, cfg)
	require.NoError(t, err)
	assert.True(t, empty.Clean())

	_, err = parseESLintOutput([]byte("{not json"), nil, cfg)
	assert.True(t, errors.Is(err, ErrParseOutput))
}

func TestESLintRunner_NotInstalled(t *testing.T) {
	c := newCorpus(t, map[string]string{"a.js": "const a = 1;\n"})
	runner := NewESLintRunner(WithCommand("lintinfer-eslint-does-not-exist"), WithTimeout(time.Second))
	assert.Equal(t, "eslint", runner.Name())

	assert.True(t, errors.Is(runner.Available(), ErrLinterNotInstalled))
	_, err := runner.Analyze(context.Background(), c, only("quotes", lintconfig.SeverityError))
	assert.True(t, errors.Is(err, ErrLinterNotInstalled))
}

func TestESLintRunner_FakeBinary(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-eslint")
	body := "#!/bin/sh\n" +
		"echo '[{\"filePath\":\"a.js\",\"messages\":[{\"ruleId\":\"semi\",\"severity\":2,\"message\":\"Missing semicolon.\",\"line\":1,\"column\":10}]}]'\n" +
		"exit 1\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	c := newCorpus(t, map[string]string{"a.js": "const a = 1\n"})
	runner := NewESLintRunner(WithCommand(script), WithWorkingDir(dir))

	report, err := runner.Analyze(context.Background(), c, only("semi", lintconfig.SeverityError))
	require.NoError(t, err, "exit status 1 with a report is not a failure")
	require.Len(t, report.ByEntry["a.js"], 1)
	assert.Equal(t, "semi", report.ByEntry["a.js"][0].Rule)
}

func TestESLintRunner_FailureWithoutOutput(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-eslint")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'Configuration for rule \"quotes\" is invalid' >&2\nexit 2\n"), 0o755))

	c := newCorpus(t, map[string]string{"a.js": "const a = 1;\n"})
	_, err := NewESLintRunner(WithCommand(script)).Analyze(context.Background(), c, only("quotes", lintconfig.SeverityError, "weird"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLinterFailed))
	assert.Contains(t, err.Error(), "is invalid")
}
