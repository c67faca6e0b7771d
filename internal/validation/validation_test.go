package validation

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cfnlint "github.com/lex00/cfn-lint-go/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/schema"
	"github.com/lex00/wetwire-staticsite-go/internal/site"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	"github.com/lex00/wetwire-staticsite-go/resources/s3"
)

func TestCfnLintResult_TotalIssues(t *testing.T) {
	tests := []struct {
		name     string
		result   CfnLintResult
		expected int
	}{
		{
			name:     "empty result",
			result:   CfnLintResult{},
			expected: 0,
		},
		{
			name: "errors only",
			result: CfnLintResult{
				Errors: []string{"error1", "error2"},
			},
			expected: 2,
		},
		{
			name: "mixed issues",
			result: CfnLintResult{
				Errors:        []string{"error1"},
				Warnings:      []string{"warning1", "warning2"},
				Informational: []string{"info1"},
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.TotalIssues())
		})
	}
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name     string
		match    cfnlint.Match
		expected string
	}{
		{
			name: "simple match",
			match: cfnlint.Match{
				Rule:    cfnlint.MatchRule{ID: "E1234"},
				Message: "Something is wrong",
			},
			expected: "E1234: Something is wrong",
		},
		{
			name: "match with path",
			match: cfnlint.Match{
				Rule:    cfnlint.MatchRule{ID: "W5678"},
				Message: "Warning message",
				Location: cfnlint.MatchLocation{
					Path: []any{"Resources", "SiteBucket", "Properties"},
				},
			},
			expected: "W5678: Warning message (at Resources/SiteBucket/Properties)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMatch(tt.match))
		})
	}
}

func TestRunCfnLint_FileNotFound(t *testing.T) {
	result, err := RunCfnLint("/nonexistent/template.yaml")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Template file not found")
}

func TestRunCfnLint_ValidTemplate(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "template.yaml")

	validTemplate := `AWSTemplateFormatVersion: '2010-09-09'
Description: Test template
Resources:
  SiteBucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: example-site
`
	require.NoError(t, os.WriteFile(templatePath, []byte(validTemplate), 0644))

	result, err := RunCfnLint(templatePath)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestRunBuildAndSave(t *testing.T) {
	cfg := config.Default()
	cfg.BaseName = "example"
	st, err := site.Declare(cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	result, err := RunBuildAndSave(st, dir)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, filepath.Join(dir, TemplateFile), result.TemplatePath)

	data, err := os.ReadFile(result.TemplatePath)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Contains(t, parsed["Resources"], site.Distribution)
}

func TestRunBuildAndSave_BuildError(t *testing.T) {
	st := stack.New("test")
	st.Add("SiteBucketPolicy", s3.BucketPolicy{Bucket: staticsite.AttrRef{Resource: "Missing"}})

	result, err := RunBuildAndSave(st, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Missing")
	assert.Empty(t, result.TemplatePath)
}

func TestValidateStack_InvalidStack(t *testing.T) {
	st := stack.New("test")
	st.Add("SiteBucket", s3.Bucket{Name: "site"})
	st.Add("SiteBucketPolicy", s3.BucketPolicy{Bucket: staticsite.AttrRef{Resource: "Missing"}})

	result, err := ValidateStack(st, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Resources)
	require.Len(t, result.StackErrors, 1)
	assert.Contains(t, result.StackErrors[0], "Missing")
	assert.False(t, result.BuildResult.Success)
	assert.False(t, result.CfnLintResult.Passed)
	assert.False(t, result.Passed())

	summary := result.Summary()
	assert.False(t, summary.Success)
	assert.Equal(t, 2, summary.Resources)
	assert.Contains(t, summary.Errors, "Build failed - no template to validate")
}

func TestValidationResult_Passed(t *testing.T) {
	result := &ValidationResult{
		Resources:     9,
		BuildResult:   &BuildResult{Success: true},
		CfnLintResult: &CfnLintResult{Passed: true, Warnings: []string{"W1: warn"}},
	}

	assert.True(t, result.Passed())

	summary := result.Summary()
	assert.True(t, summary.Success)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, []string{"W1: warn"}, summary.Warnings)
}

func TestSplitJoined(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	assert.Equal(t, []string{"first", "second"}, splitJoined(errors.Join(first, second)))
	assert.Equal(t, []string{"first"}, splitJoined(first))
}

func TestRunSchemaCheck_DeclaredSite(t *testing.T) {
	cfg := config.Default()
	cfg.BaseName = "example"
	st, err := site.Declare(cfg)
	require.NoError(t, err)

	build, err := RunBuildAndSave(st, t.TempDir())
	require.NoError(t, err)
	require.True(t, build.Success, build.Error)

	result, err := RunSchemaCheck(build.TemplatePath)
	require.NoError(t, err)
	assert.True(t, result.Valid, "%v", result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestRunSchemaCheck_BadValue(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), TemplateFile)
	doc := `{
  "AWSTemplateFormatVersion": "2010-09-09",
  "Resources": {
    "SiteBucket": {
      "Type": "AWS::S3::Bucket",
      "Properties": {"BucketName": "example-site", "AccessControl": "Everyone"}
    }
  }
}`
	require.NoError(t, os.WriteFile(templatePath, []byte(doc), 0644))

	result, err := RunSchemaCheck(templatePath)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "AccessControl", result.Errors[0].Property)
}

func TestRunSchemaCheck_FileNotFound(t *testing.T) {
	_, err := RunSchemaCheck("/nonexistent/template.json")
	assert.Error(t, err)
}

func TestValidationResult_SchemaErrorsFail(t *testing.T) {
	result := &ValidationResult{
		Resources:   9,
		BuildResult: &BuildResult{Success: true},
		SchemaResult: &schema.Result{
			Errors:   []schema.SchemaError{{Resource: "Distribution", Property: "DistributionConfig.Enabled", Message: "expected type Boolean"}},
			Warnings: []schema.SchemaError{{Resource: "SiteBucket", Property: "Tags", Message: "unknown property: Tags"}},
		},
		CfnLintResult: &CfnLintResult{Passed: true},
	}

	assert.False(t, result.Passed())

	summary := result.Summary()
	assert.Equal(t, []string{"Distribution.DistributionConfig.Enabled: expected type Boolean"}, summary.Errors)
	assert.Equal(t, []string{"SiteBucket.Tags: unknown property: Tags"}, summary.Warnings)
}
