// Package validation checks a declared stack end to end.
//
// Validation runs in four steps:
//   - stack validation: references and dependencies resolve, names are unique
//   - build: the stack renders to a CloudFormation template on disk
//   - schema: the template's properties are checked offline
//   - cfn-lint-go: the rendered template is checked against the resource schemas
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cfnlint "github.com/lex00/cfn-lint-go/pkg/lint"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/schema"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	"github.com/lex00/wetwire-staticsite-go/internal/template"
)

// TemplateFile is the name of the rendered template inside the output directory.
const TemplateFile = "template.json"

// BuildResult contains the result of rendering the stack.
type BuildResult struct {
	Success      bool   `json:"success"`
	TemplatePath string `json:"template_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// ValidationResult contains all validation results for a stack.
type ValidationResult struct {
	Resources     int            `json:"resources"`
	StackErrors   []string       `json:"stack_errors,omitempty"`
	BuildResult   *BuildResult   `json:"build_result"`
	SchemaResult  *schema.Result `json:"schema_result,omitempty"`
	CfnLintResult *CfnLintResult `json:"cfn_lint_result"`
}

// Passed reports whether every step succeeded. Warnings do not fail
// validation.
func (r *ValidationResult) Passed() bool {
	return len(r.StackErrors) == 0 &&
		r.BuildResult != nil && r.BuildResult.Success &&
		(r.SchemaResult == nil || r.SchemaResult.Valid) &&
		r.CfnLintResult != nil && r.CfnLintResult.Passed
}

// Summary converts the result to the validate command's JSON envelope.
func (r *ValidationResult) Summary() staticsite.ValidateResult {
	out := staticsite.ValidateResult{
		Success:   r.Passed(),
		Resources: r.Resources,
	}
	out.Errors = append(out.Errors, r.StackErrors...)
	if r.BuildResult != nil && r.BuildResult.Error != "" {
		out.Errors = append(out.Errors, r.BuildResult.Error)
	}
	if r.SchemaResult != nil {
		for _, e := range r.SchemaResult.Errors {
			out.Errors = append(out.Errors, e.String())
		}
		for _, w := range r.SchemaResult.Warnings {
			out.Warnings = append(out.Warnings, w.String())
		}
	}
	if r.CfnLintResult != nil {
		out.Errors = append(out.Errors, r.CfnLintResult.Errors...)
		out.Warnings = append(out.Warnings, r.CfnLintResult.Warnings...)
	}
	return out
}

// RunBuildAndSave renders st as a CloudFormation template into outputDir.
func RunBuildAndSave(st *stack.Stack, outputDir string) (*BuildResult, error) {
	tmpl, err := template.NewBuilder(st).Build()
	if err != nil {
		return &BuildResult{Success: false, Error: err.Error()}, nil
	}

	data, err := template.ToJSON(tmpl)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}

	templatePath := filepath.Join(outputDir, TemplateFile)
	if err := os.WriteFile(templatePath, data, 0644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}

	return &BuildResult{Success: true, TemplatePath: templatePath}, nil
}

// RunSchemaCheck validates the template file against the offline resource
// schemas. Unknown properties are reported as warnings.
func RunSchemaCheck(templatePath string) (*schema.Result, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}

	var tmpl staticsite.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	return schema.ValidateTemplate(&tmpl, schema.Options{Strict: true})
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := cfnlint.New(cfnlint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	result.Passed = len(result.Errors) == 0
	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match cfnlint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// ValidateStack runs the full validation pipeline, writing the rendered
// template into outputDir.
func ValidateStack(st *stack.Stack, outputDir string) (*ValidationResult, error) {
	result := &ValidationResult{Resources: st.Len()}

	if err := st.Validate(); err != nil {
		result.StackErrors = splitJoined(err)
	}

	buildResult, err := RunBuildAndSave(st, outputDir)
	if err != nil {
		return nil, fmt.Errorf("running build: %w", err)
	}
	result.BuildResult = buildResult

	if !buildResult.Success {
		result.CfnLintResult = &CfnLintResult{
			Passed: false,
			Errors: []string{"Build failed - no template to validate"},
		}
		return result, nil
	}

	schemaResult, err := RunSchemaCheck(buildResult.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("running schema check: %w", err)
	}
	result.SchemaResult = schemaResult

	cfnResult, err := RunCfnLint(buildResult.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("running cfn-lint: %w", err)
	}
	result.CfnLintResult = cfnResult

	return result, nil
}

// splitJoined flattens an errors.Join result into one message per error.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
