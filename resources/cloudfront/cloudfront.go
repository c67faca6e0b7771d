// Package cloudfront contains CloudFront resource types for static-website stacks.
package cloudfront

import (
	"fmt"

	"github.com/lex00/wetwire-staticsite-go/intrinsics"
)

// Origin access identity attributes.
const (
	// AttrIAMArn is the IAM principal ARN used in bucket policies.
	AttrIAMArn = "IAMArn"
	// AttrPath is the "origin-access-identity/cloudfront/<id>" form used by S3 origins.
	AttrPath = "CloudFrontAccessIdentityPath"
	// AttrS3CanonicalUserID is the canonical user ID of the identity.
	AttrS3CanonicalUserID = "S3CanonicalUserId"
)

// Distribution attributes.
const (
	AttrDomainName = "DomainName"
)

// Viewer protocol policies.
const (
	ViewerProtocolAllowAll        = "allow-all"
	ViewerProtocolHTTPSOnly       = "https-only"
	ViewerProtocolRedirectToHTTPS = "redirect-to-https"
)

// HTTP methods.
const (
	MethodGET  = "GET"
	MethodHEAD = "HEAD"
)

// Misc enum values.
const (
	ForwardNone         = "none"
	RestrictionTypeNone = "none"
)

// OriginAccessIdentity is the identity CloudFront presents when reading
// from an S3 origin.
type OriginAccessIdentity struct {
	Comment string `cfn:"Comment" tf:"comment"`
}

func (OriginAccessIdentity) ResourceType() string {
	return "AWS::CloudFront::CloudFrontOriginAccessIdentity"
}
func (OriginAccessIdentity) TerraformType() string { return "aws_cloudfront_origin_access_identity" }

func (OriginAccessIdentity) CloudFormationWrapper() string {
	return "CloudFrontOriginAccessIdentityConfig"
}

// CloudFormationAttr returns the template expression for an identity attribute.
// The IAM ARN and path are derived from the identity ID, which is what Ref returns.
func (OriginAccessIdentity) CloudFormationAttr(logicalName, attr string) (any, error) {
	switch attr {
	case "":
		return intrinsics.Ref{LogicalName: logicalName}, nil
	case AttrIAMArn:
		return intrinsics.Sub{String: "arn:${AWS::Partition}:iam::cloudfront:user/CloudFront Origin Access Identity ${" + logicalName + "}"}, nil
	case AttrPath:
		return intrinsics.Sub{String: "origin-access-identity/cloudfront/${" + logicalName + "}"}, nil
	case AttrS3CanonicalUserID:
		return intrinsics.GetAtt{LogicalName: logicalName, Attribute: attr}, nil
	}
	return nil, fmt.Errorf("origin access identity has no attribute %q", attr)
}

// TerraformAttr returns the Terraform attribute name for an identity attribute.
func (OriginAccessIdentity) TerraformAttr(attr string) (string, error) {
	switch attr {
	case "":
		return "id", nil
	case AttrIAMArn:
		return "iam_arn", nil
	case AttrPath:
		return "cloudfront_access_identity_path", nil
	case AttrS3CanonicalUserID:
		return "s3_canonical_user_id", nil
	}
	return "", fmt.Errorf("origin access identity has no attribute %q", attr)
}

// S3OriginConfig restricts an S3 origin to an origin access identity.
type S3OriginConfig struct {
	// OriginAccessIdentity is the identity path (AttrPath reference).
	OriginAccessIdentity any `cfn:"OriginAccessIdentity" tf:"origin_access_identity"`
}

// Origin is a content source of a distribution.
type Origin struct {
	ID string `cfn:"Id" tf:"origin_id"`
	// DomainName is the origin host. For S3 origins this must be the
	// bucket's regional domain name, not its website endpoint.
	DomainName     any             `cfn:"DomainName" tf:"domain_name"`
	S3OriginConfig *S3OriginConfig `cfn:"S3OriginConfig" tf:"s3_origin_config"`
}

// Cookies selects which cookies are forwarded to the origin.
type Cookies struct {
	Forward string `cfn:"Forward" tf:"forward"`
}

// ForwardedValues selects request values forwarded to the origin.
type ForwardedValues struct {
	QueryString bool    `cfn:"QueryString,keep" tf:"query_string,keep"`
	Cookies     Cookies `cfn:"Cookies" tf:"cookies"`
}

// CacheBehavior is the default cache behaviour of a distribution.
type CacheBehavior struct {
	TargetOriginID       string          `cfn:"TargetOriginId" tf:"target_origin_id"`
	AllowedMethods       []string        `cfn:"AllowedMethods" tf:"allowed_methods"`
	CachedMethods        []string        `cfn:"CachedMethods" tf:"cached_methods"`
	ViewerProtocolPolicy string          `cfn:"ViewerProtocolPolicy" tf:"viewer_protocol_policy"`
	ForwardedValues      ForwardedValues `cfn:"ForwardedValues" tf:"forwarded_values"`
	Compress             bool            `cfn:"Compress" tf:"compress"`
	MinTTL               *int            `cfn:"MinTTL" tf:"min_ttl"`
	DefaultTTL           *int            `cfn:"DefaultTTL" tf:"default_ttl"`
	MaxTTL               *int            `cfn:"MaxTTL" tf:"max_ttl"`
}

// Logging writes standard access logs to an S3 bucket.
type Logging struct {
	// Bucket is the log bucket's domain name (bucket DomainName reference).
	Bucket         any    `cfn:"Bucket" tf:"bucket"`
	Prefix         string `cfn:"Prefix" tf:"prefix"`
	IncludeCookies bool   `cfn:"IncludeCookies,keep" tf:"include_cookies,keep"`
}

// GeoRestriction limits viewers by country.
type GeoRestriction struct {
	RestrictionType string   `cfn:"RestrictionType" tf:"restriction_type"`
	Locations       []string `cfn:"Locations" tf:"locations"`
}

// Restrictions wraps the geo restriction.
type Restrictions struct {
	GeoRestriction GeoRestriction `cfn:"GeoRestriction" tf:"geo_restriction"`
}

// ViewerCertificate selects the TLS certificate presented to viewers.
type ViewerCertificate struct {
	CloudFrontDefaultCertificate bool `cfn:"CloudFrontDefaultCertificate,keep" tf:"cloudfront_default_certificate,keep"`
}

// Distribution is a CloudFront web distribution.
type Distribution struct {
	Enabled              bool              `cfn:"Enabled,keep" tf:"enabled,keep"`
	IPv6Enabled          bool              `cfn:"IPV6Enabled" tf:"is_ipv6_enabled"`
	Comment              string            `cfn:"Comment" tf:"comment"`
	DefaultRootObject    string            `cfn:"DefaultRootObject" tf:"default_root_object"`
	PriceClass           string            `cfn:"PriceClass" tf:"price_class"`
	Origins              []Origin          `cfn:"Origins" tf:"origin"`
	DefaultCacheBehavior CacheBehavior     `cfn:"DefaultCacheBehavior" tf:"default_cache_behavior"`
	Logging              *Logging          `cfn:"Logging" tf:"logging_config"`
	Restrictions         Restrictions      `cfn:"Restrictions" tf:"restrictions"`
	ViewerCertificate    ViewerCertificate `cfn:"ViewerCertificate" tf:"viewer_certificate"`
}

func (Distribution) ResourceType() string  { return "AWS::CloudFront::Distribution" }
func (Distribution) TerraformType() string { return "aws_cloudfront_distribution" }

func (Distribution) CloudFormationWrapper() string { return "DistributionConfig" }

// CloudFormationAttr returns the template expression for a distribution attribute.
func (Distribution) CloudFormationAttr(logicalName, attr string) (any, error) {
	switch attr {
	case "":
		return intrinsics.Ref{LogicalName: logicalName}, nil
	case AttrDomainName:
		return intrinsics.GetAtt{LogicalName: logicalName, Attribute: attr}, nil
	}
	return nil, fmt.Errorf("distribution has no attribute %q", attr)
}

// TerraformAttr returns the Terraform attribute name for a distribution attribute.
func (Distribution) TerraformAttr(attr string) (string, error) {
	switch attr {
	case "":
		return "id", nil
	case AttrDomainName:
		return "domain_name", nil
	}
	return "", fmt.Errorf("distribution has no attribute %q", attr)
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}
