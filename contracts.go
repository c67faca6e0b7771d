// Package staticsite provides Go types for declaring an AWS static-website
// hosting stack.
//
// A stack is a flat set of named resources joined by references:
//
//	logs := st.Add("LogBucket", s3.Bucket{Name: "example-logs", ForceDestroy: true})
//	st.Add("Distribution", cloudfront.Distribution{
//	    Logging: &cloudfront.Logging{Bucket: logs.Attr(s3.AttrDomainName)},
//	})
//
// The wetwire-staticsite CLI renders the stack as Terraform JSON or a
// CloudFormation template, lints it, graphs it, or provisions it directly
// with the AWS SDK.
package staticsite

import (
	"encoding/json"
)

// Resource represents a declared infrastructure resource.
// All resource types (s3.Bucket, cloudfront.Distribution, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::S3::Bucket").
	ResourceType() string
	// TerraformType returns the Terraform type (e.g., "aws_s3_bucket").
	TerraformType() string
}

// AttributeResolver is implemented by resources that expose attributes
// other than their primary identifier.
type AttributeResolver interface {
	// CloudFormationAttr returns the template expression for attr on the
	// resource declared as logicalName.
	CloudFormationAttr(logicalName, attr string) (any, error)
	// TerraformAttr returns the Terraform attribute name for attr.
	TerraformAttr(attr string) (string, error)
}

// Attachment is implemented by sub-resources that Terraform declares as
// standalone resources but CloudFormation models as properties of the
// resource they attach to (bucket ownership controls, ACLs, website
// configuration, public access blocks).
type Attachment interface {
	// AttachedTo returns the reference to the owning resource.
	AttachedTo() AttrRef
	// CloudFormationFragment returns the properties merged into the owner.
	CloudFormationFragment() map[string]any
}

// ConfigWrapper is implemented by resources whose CloudFormation properties
// are nested under a single configuration key (e.g., "DistributionConfig").
type ConfigWrapper interface {
	CloudFormationWrapper() string
}

// AttrRef represents a reference to a resource attribute.
// An empty Attribute refers to the resource's primary identifier
// (CloudFormation Ref, Terraform id).
//
// Example:
//
//	var policy = s3.BucketPolicy{
//	    Bucket: site.Ref(),
//	}
//
// When serialized directly to JSON, an attribute reference becomes:
//
//	{"Fn::GetAtt": ["SiteBucket", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "RegionalDomainName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation Ref or GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	if a.Attribute == "" {
		return json.Marshal(map[string]string{"Ref": a.Resource})
	}
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// String returns the reference in Resource.Attribute form.
func (a AttrRef) String() string {
	if a.Attribute == "" {
		return a.Resource
	}
	return a.Resource + "." + a.Attribute
}

// AttrRefUsage records a single attribute reference made by a resource.
type AttrRefUsage struct {
	ResourceName string
	Attribute    string
}

// DiscoveredResource describes a declared resource and its edges.
type DiscoveredResource struct {
	// Name is the logical name (CloudFormation logical ID, Terraform label source)
	Name string
	// Type is the CloudFormation type (e.g., "AWS::S3::Bucket")
	Type string
	// TerraformType is the Terraform type (e.g., "aws_s3_bucket")
	TerraformType string
	// File is the source file of the declaration
	File string
	// Line is the line number of the declaration
	Line int
	// Dependencies are logical names of referenced or explicitly depended-on resources
	Dependencies []string
	// ExplicitDependencies are the depends_on subset of Dependencies
	ExplicitDependencies []string
	// AttrRefUsages lists the attribute references made by this resource
	AttrRefUsages []AttrRefUsage
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string   `json:"Type" yaml:"Type"`
	Description   string   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any      `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []string `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
}

// BuildResult is the JSON output from `wetwire-staticsite build`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Target    string   `json:"target"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// LintResult is the JSON output from `wetwire-staticsite lint`.
type LintResult struct {
	Success bool        `json:"success"`
	Issues  []LintIssue `json:"issues,omitempty"`
}

// LintIssue is a single linting issue.
type LintIssue struct {
	Resource string `json:"resource,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

// ValidateResult is the JSON output from `wetwire-staticsite validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-staticsite list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Order         int      `json:"order"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	TerraformType string   `json:"terraform_type"`
	DependsOn     []string `json:"depends_on,omitempty"`
	References    []string `json:"references,omitempty"`
}

// TemplateDiff holds per-resource differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is a single changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
