// Package s3 contains S3 resource types for static-website stacks.
//
// Terraform declares a bucket and each of its configuration aspects as
// separate resources. CloudFormation folds the aspects into the bucket;
// the aspect types implement staticsite.Attachment for that purpose.
//
// Example usage:
//
//	logs := st.Add("LogBucket", s3.Bucket{Name: "example-logs", ForceDestroy: true})
//	controls := st.Add("LogBucketOwnershipControls", s3.OwnershipControls{
//		Bucket: logs.Ref(),
//		Rule:   s3.OwnershipControlsRule{ObjectOwnership: s3.ObjectOwnershipBucketOwnerPreferred},
//	})
//	st.Add("LogBucketAcl", s3.BucketACL{
//		Bucket: logs.Ref(),
//		ACL:    s3.CannedACLLogDeliveryWrite,
//	}, controls)
package s3

import (
	"fmt"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/intrinsics"
)

// Bucket attributes.
const (
	AttrArn                = "Arn"
	AttrDomainName         = "DomainName"
	AttrRegionalDomainName = "RegionalDomainName"
	AttrWebsiteURL         = "WebsiteURL"
)

// Object ownership modes.
const (
	ObjectOwnershipBucketOwnerPreferred = "BucketOwnerPreferred"
	ObjectOwnershipObjectWriter         = "ObjectWriter"
	ObjectOwnershipBucketOwnerEnforced  = "BucketOwnerEnforced"
)

// Canned ACLs.
const (
	CannedACLPrivate          = "private"
	CannedACLPublicRead       = "public-read"
	CannedACLLogDeliveryWrite = "log-delivery-write"
)

// cannedACLs maps canned ACL names to the CloudFormation AccessControl values.
var cannedACLs = map[string]string{
	"private":                   "Private",
	"public-read":               "PublicRead",
	"public-read-write":         "PublicReadWrite",
	"authenticated-read":        "AuthenticatedRead",
	"aws-exec-read":             "AwsExecRead",
	"bucket-owner-read":         "BucketOwnerRead",
	"bucket-owner-full-control": "BucketOwnerFullControl",
	"log-delivery-write":        "LogDeliveryWrite",
}

// Bucket is an S3 bucket.
type Bucket struct {
	// Name is the globally unique bucket name.
	Name string `cfn:"BucketName" tf:"bucket"`

	// ForceDestroy deletes all objects when the bucket is destroyed.
	// CloudFormation has no equivalent; the provisioner honours it.
	ForceDestroy bool `cfn:"-" tf:"force_destroy,keep"`
}

func (Bucket) ResourceType() string  { return "AWS::S3::Bucket" }
func (Bucket) TerraformType() string { return "aws_s3_bucket" }

// CloudFormationAttr returns the template expression for a bucket attribute.
func (Bucket) CloudFormationAttr(logicalName, attr string) (any, error) {
	switch attr {
	case "":
		return intrinsics.Ref{LogicalName: logicalName}, nil
	case AttrArn, AttrDomainName, AttrRegionalDomainName, AttrWebsiteURL:
		return intrinsics.GetAtt{LogicalName: logicalName, Attribute: attr}, nil
	}
	return nil, fmt.Errorf("bucket has no attribute %q", attr)
}

// TerraformAttr returns the Terraform attribute name for a bucket attribute.
func (Bucket) TerraformAttr(attr string) (string, error) {
	switch attr {
	case "":
		return "id", nil
	case AttrArn:
		return "arn", nil
	case AttrDomainName:
		return "bucket_domain_name", nil
	case AttrRegionalDomainName:
		return "bucket_regional_domain_name", nil
	case AttrWebsiteURL:
		return "website_endpoint", nil
	}
	return "", fmt.Errorf("bucket has no attribute %q", attr)
}

// OwnershipControlsRule selects the object ownership mode.
type OwnershipControlsRule struct {
	ObjectOwnership string `cfn:"ObjectOwnership" tf:"object_ownership"`
}

// OwnershipControls governs whether ACLs are honoured on a bucket.
type OwnershipControls struct {
	Bucket staticsite.AttrRef    `cfn:"-" tf:"bucket"`
	Rule   OwnershipControlsRule `cfn:"-" tf:"rule"`
}

func (OwnershipControls) ResourceType() string  { return "AWS::S3::Bucket" }
func (OwnershipControls) TerraformType() string { return "aws_s3_bucket_ownership_controls" }

func (o OwnershipControls) AttachedTo() staticsite.AttrRef { return o.Bucket }

func (o OwnershipControls) CloudFormationFragment() map[string]any {
	return map[string]any{
		"OwnershipControls": map[string]any{
			"Rules": []any{
				map[string]any{"ObjectOwnership": o.Rule.ObjectOwnership},
			},
		},
	}
}

// BucketACL applies a canned ACL to a bucket.
// ACLs are only honoured once ownership controls allow them, so a BucketACL
// should be declared with an explicit dependency on the bucket's
// OwnershipControls.
type BucketACL struct {
	Bucket staticsite.AttrRef `cfn:"-" tf:"bucket"`
	ACL    string             `cfn:"-" tf:"acl"`
}

func (BucketACL) ResourceType() string  { return "AWS::S3::Bucket" }
func (BucketACL) TerraformType() string { return "aws_s3_bucket_acl" }

func (a BucketACL) AttachedTo() staticsite.AttrRef { return a.Bucket }

func (a BucketACL) CloudFormationFragment() map[string]any {
	value, ok := cannedACLs[a.ACL]
	if !ok {
		value = a.ACL
	}
	return map[string]any{"AccessControl": value}
}

// IndexDocument names the object served for directory requests.
type IndexDocument struct {
	Suffix string `tf:"suffix"`
}

// ErrorDocument names the object served on 4xx errors.
type ErrorDocument struct {
	Key string `tf:"key"`
}

// WebsiteConfiguration declares index and error documents for a bucket.
type WebsiteConfiguration struct {
	Bucket        staticsite.AttrRef `cfn:"-" tf:"bucket"`
	IndexDocument IndexDocument      `cfn:"-" tf:"index_document"`
	ErrorDocument *ErrorDocument     `cfn:"-" tf:"error_document"`
}

func (WebsiteConfiguration) ResourceType() string  { return "AWS::S3::Bucket" }
func (WebsiteConfiguration) TerraformType() string { return "aws_s3_bucket_website_configuration" }

func (w WebsiteConfiguration) AttachedTo() staticsite.AttrRef { return w.Bucket }

func (w WebsiteConfiguration) CloudFormationFragment() map[string]any {
	cfg := map[string]any{"IndexDocument": w.IndexDocument.Suffix}
	if w.ErrorDocument != nil {
		cfg["ErrorDocument"] = w.ErrorDocument.Key
	}
	return map[string]any{"WebsiteConfiguration": cfg}
}

// PublicAccessBlock toggles the four public-access restrictions of a bucket.
// Nil flags are left to the provider default; declarations should set all four.
type PublicAccessBlock struct {
	Bucket                staticsite.AttrRef `cfn:"-" tf:"bucket"`
	BlockPublicAcls       *bool              `cfn:"-" tf:"block_public_acls"`
	BlockPublicPolicy     *bool              `cfn:"-" tf:"block_public_policy"`
	IgnorePublicAcls      *bool              `cfn:"-" tf:"ignore_public_acls"`
	RestrictPublicBuckets *bool              `cfn:"-" tf:"restrict_public_buckets"`
}

func (PublicAccessBlock) ResourceType() string  { return "AWS::S3::Bucket" }
func (PublicAccessBlock) TerraformType() string { return "aws_s3_bucket_public_access_block" }

func (p PublicAccessBlock) AttachedTo() staticsite.AttrRef { return p.Bucket }

func (p PublicAccessBlock) CloudFormationFragment() map[string]any {
	cfg := make(map[string]any)
	for name, flag := range p.Flags() {
		if flag != nil {
			cfg[name] = *flag
		}
	}
	return map[string]any{"PublicAccessBlockConfiguration": cfg}
}

// Flags returns the four flags keyed by their CloudFormation names.
func (p PublicAccessBlock) Flags() map[string]*bool {
	return map[string]*bool{
		"BlockPublicAcls":       p.BlockPublicAcls,
		"BlockPublicPolicy":     p.BlockPublicPolicy,
		"IgnorePublicAcls":      p.IgnorePublicAcls,
		"RestrictPublicBuckets": p.RestrictPublicBuckets,
	}
}

// BucketPolicy attaches a resource policy to a bucket.
type BucketPolicy struct {
	Bucket staticsite.AttrRef        `cfn:"Bucket" tf:"bucket"`
	Policy intrinsics.PolicyDocument `cfn:"PolicyDocument" tf:"policy,json"`
}

func (BucketPolicy) ResourceType() string  { return "AWS::S3::BucketPolicy" }
func (BucketPolicy) TerraformType() string { return "aws_s3_bucket_policy" }

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
