// Package intrinsics provides CloudFormation intrinsic functions and IAM
// policy document types used by stack declarations.
//
// The core intrinsic types are re-exported from cloudformation-schema-go:
//
//	Ref{"SiteBucket"} → {"Ref": "SiteBucket"}
//	Sub{"origin-access-identity/cloudfront/${OriginAccessIdentity}"} → {"Fn::Sub": "..."}
//	Join{"", []any{SiteBucketArn, "/*"}} → {"Fn::Join": ["", [..., "/*"]]}
//
// Join is also understood by the Terraform renderer, which turns it into
// string interpolation.
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// Concat joins values with an empty delimiter.
//
//	Concat(site.Attr(s3.AttrArn), "/*")
func Concat(values ...any) Join {
	return Join{Delimiter: "", Values: values}
}
