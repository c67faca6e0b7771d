// Package intrinsics provides CloudFormation intrinsic functions.
// This file contains IAM policy document types and helpers.
package intrinsics

import (
	"encoding/json"
)

// PolicyVersion is the current IAM policy language version.
const PolicyVersion = "2012-10-17"

// Common policy values.
const (
	EffectAllow = "Allow"
	EffectDeny  = "Deny"

	// ActionS3GetObject is the read-object action.
	ActionS3GetObject = "s3:GetObject"
)

// Json is a shorthand for map[string]any.
// Used for inline JSON objects like Condition blocks.
type Json = map[string]any

// List creates a typed slice from the given items.
// Avoids verbose slice type annotations in struct literals.
//
// Example:
//
//	Origins: List(SiteOrigin),
func List[T any](items ...T) []T {
	return items
}

// PolicyDocument represents an IAM policy document.
//
// Example:
//
//	var SitePolicy = PolicyDocument{
//	    Version:   PolicyVersion,
//	    Statement: []PolicyStatement{ReadThroughOAI},
//	}
type PolicyDocument struct {
	Version   string            `json:"Version,omitempty"`
	Statement []PolicyStatement `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...PolicyStatement) PolicyDocument {
	return PolicyDocument{Version: PolicyVersion, Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
//
// Example:
//
//	var ReadThroughOAI = PolicyStatement{
//	    Effect:    EffectAllow,
//	    Principal: AWSPrincipal{oai.Attr(cloudfront.AttrIAMArn)},
//	    Action:    ActionS3GetObject,
//	    Resource:  Concat(site.Attr(s3.AttrArn), "/*"),
//	}
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// AWSPrincipal represents an AWS account/role/user principal.
// Serializes to {"AWS": ...} format.
//
// Examples:
//
//	AWSPrincipal{"arn:aws:iam::123456789:root"}
//	AWSPrincipal{oai.Attr(cloudfront.AttrIAMArn)}
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Expand())
}

// Expand returns the principal in its {"AWS": ...} map form.
// Serializers use it to resolve references held by the principal.
func (p AWSPrincipal) Expand() any {
	if len(p) == 1 {
		return map[string]any{"AWS": p[0]}
	}
	return map[string]any{"AWS": []any(p)}
}

// AllPrincipal represents the wildcard principal "*".
const AllPrincipal = "*"
