package deploy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/serialize"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	sitecf "github.com/lex00/wetwire-staticsite-go/resources/cloudfront"
	sites3 "github.com/lex00/wetwire-staticsite-go/resources/s3"
)

// env holds the runtime values of provisioned resources and resolves
// references against them.
type env struct {
	region string
	values map[string]map[string]string
}

// newEnv seeds the values known before anything is provisioned: bucket names
// and the endpoints derived from them. Attachments resolve to their bucket.
func newEnv(st *stack.Stack, region string) *env {
	e := &env{region: region, values: make(map[string]map[string]string)}

	for _, entry := range st.Entries() {
		if bucket, ok := entry.Resource.(sites3.Bucket); ok {
			e.values[entry.Name] = bucketValues(bucket.Name, region)
		}
	}
	for _, entry := range st.Entries() {
		att, ok := entry.Resource.(staticsite.Attachment)
		if !ok {
			continue
		}
		if owner, found := e.values[att.AttachedTo().Resource]; found {
			e.values[entry.Name] = map[string]string{"": owner[""]}
		}
	}
	return e
}

func bucketValues(name, region string) map[string]string {
	return map[string]string{
		"":                            name,
		sites3.AttrArn:                "arn:aws:s3:::" + name,
		sites3.AttrDomainName:         name + ".s3.amazonaws.com",
		sites3.AttrRegionalDomainName: name + ".s3." + region + ".amazonaws.com",
		sites3.AttrWebsiteURL:         name + ".s3-website-" + region + ".amazonaws.com",
	}
}

func identityValues(id, canonicalUserID string) map[string]string {
	return map[string]string{
		"":                           id,
		sitecf.AttrIAMArn:            "arn:aws:iam::cloudfront:user/CloudFront Origin Access Identity " + id,
		sitecf.AttrPath:              "origin-access-identity/cloudfront/" + id,
		sitecf.AttrS3CanonicalUserID: canonicalUserID,
	}
}

func distributionValues(id, domainName string) map[string]string {
	return map[string]string{
		"":                    id,
		sitecf.AttrDomainName: domainName,
	}
}

func (e *env) set(name string, values map[string]string) {
	e.values[name] = values
}

// ResolveRef implements serialize.Resolver.
func (e *env) ResolveRef(ref staticsite.AttrRef) (any, error) {
	values, ok := e.values[ref.Resource]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref.Resource, ErrNotProvisioned)
	}
	v, ok := values[ref.Attribute]
	if !ok {
		return nil, fmt.Errorf("%s has no runtime value", ref)
	}
	return v, nil
}

// ResolveJoin implements serialize.Resolver.
func (e *env) ResolveJoin(delimiter string, values []any) (any, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("join element %d is %T, not a string", i, v)
		}
		parts[i] = s
	}
	return strings.Join(parts, delimiter), nil
}

// String resolves v to a string.
func (e *env) String(v any) (string, error) {
	resolved, err := serialize.Encoder{Tag: serialize.TagJSON, Resolver: e}.Value(v)
	if err != nil {
		return "", err
	}
	s, ok := resolved.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", resolved)
	}
	return s, nil
}

// JSON resolves v and encodes it as a JSON document.
func (e *env) JSON(v any) (string, error) {
	resolved, err := serialize.Encoder{Tag: serialize.TagJSON, Resolver: e}.Value(v)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// distributionConfig converts a declared distribution to the CloudFront API
// shape, resolving origin, identity and logging references.
func (e *env) distributionConfig(d sitecf.Distribution, callerReference string) (*cftypes.DistributionConfig, error) {
	cfg := &cftypes.DistributionConfig{
		CallerReference:   aws.String(callerReference),
		Comment:           aws.String(d.Comment),
		Enabled:           aws.Bool(d.Enabled),
		IsIPV6Enabled:     aws.Bool(d.IPv6Enabled),
		DefaultRootObject: aws.String(d.DefaultRootObject),
		ViewerCertificate: &cftypes.ViewerCertificate{
			CloudFrontDefaultCertificate: aws.Bool(d.ViewerCertificate.CloudFrontDefaultCertificate),
		},
	}
	if d.PriceClass != "" {
		cfg.PriceClass = cftypes.PriceClass(d.PriceClass)
	}

	origins := make([]cftypes.Origin, 0, len(d.Origins))
	for _, o := range d.Origins {
		domain, err := e.String(o.DomainName)
		if err != nil {
			return nil, fmt.Errorf("origin %s domain: %w", o.ID, err)
		}
		origin := cftypes.Origin{Id: aws.String(o.ID), DomainName: aws.String(domain)}
		if o.S3OriginConfig != nil {
			identity, err := e.String(o.S3OriginConfig.OriginAccessIdentity)
			if err != nil {
				return nil, fmt.Errorf("origin %s identity: %w", o.ID, err)
			}
			origin.S3OriginConfig = &cftypes.S3OriginConfig{OriginAccessIdentity: aws.String(identity)}
		}
		origins = append(origins, origin)
	}
	cfg.Origins = &cftypes.Origins{Items: origins, Quantity: aws.Int32(int32(len(origins)))}

	cb := d.DefaultCacheBehavior
	behavior := &cftypes.DefaultCacheBehavior{
		TargetOriginId:       aws.String(cb.TargetOriginID),
		ViewerProtocolPolicy: cftypes.ViewerProtocolPolicy(cb.ViewerProtocolPolicy),
		Compress:             aws.Bool(cb.Compress),
		ForwardedValues: &cftypes.ForwardedValues{
			QueryString: aws.Bool(cb.ForwardedValues.QueryString),
			Cookies:     &cftypes.CookiePreference{Forward: cftypes.ItemSelection(cb.ForwardedValues.Cookies.Forward)},
		},
		MinTTL:     int64Ptr(cb.MinTTL),
		DefaultTTL: int64Ptr(cb.DefaultTTL),
		MaxTTL:     int64Ptr(cb.MaxTTL),
	}
	if len(cb.AllowedMethods) > 0 {
		behavior.AllowedMethods = &cftypes.AllowedMethods{
			Items:    methods(cb.AllowedMethods),
			Quantity: aws.Int32(int32(len(cb.AllowedMethods))),
		}
		if len(cb.CachedMethods) > 0 {
			behavior.AllowedMethods.CachedMethods = &cftypes.CachedMethods{
				Items:    methods(cb.CachedMethods),
				Quantity: aws.Int32(int32(len(cb.CachedMethods))),
			}
		}
	}
	cfg.DefaultCacheBehavior = behavior

	if d.Logging != nil {
		bucket, err := e.String(d.Logging.Bucket)
		if err != nil {
			return nil, fmt.Errorf("logging bucket: %w", err)
		}
		cfg.Logging = &cftypes.LoggingConfig{
			Enabled:        aws.Bool(true),
			Bucket:         aws.String(bucket),
			Prefix:         aws.String(d.Logging.Prefix),
			IncludeCookies: aws.Bool(d.Logging.IncludeCookies),
		}
	}

	geo := d.Restrictions.GeoRestriction
	restrictionType := geo.RestrictionType
	if restrictionType == "" {
		restrictionType = sitecf.RestrictionTypeNone
	}
	cfg.Restrictions = &cftypes.Restrictions{
		GeoRestriction: &cftypes.GeoRestriction{
			RestrictionType: cftypes.GeoRestrictionType(restrictionType),
			Quantity:        aws.Int32(int32(len(geo.Locations))),
			Items:           geo.Locations,
		},
	}

	return cfg, nil
}

func methods(names []string) []cftypes.Method {
	out := make([]cftypes.Method, len(names))
	for i, name := range names {
		out[i] = cftypes.Method(name)
	}
	return out
}

func int64Ptr(i *int) *int64 {
	if i == nil {
		return nil
	}
	return aws.Int64(int64(*i))
}
