package template

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/plan"
	"github.com/lex00/wetwire-staticsite-go/internal/site"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	"github.com/lex00/wetwire-staticsite-go/resources/s3"
)

func buildSite(t *testing.T) *staticsite.Template {
	t.Helper()
	cfg := config.Default()
	cfg.BaseName = "example"
	st, err := site.Declare(cfg)
	require.NoError(t, err)

	tmpl, err := NewBuilder(st).Build()
	require.NoError(t, err)
	return tmpl
}

// normalize round-trips v through JSON so assertions see plain maps.
func normalize(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestBuild_FoldsAttachments(t *testing.T) {
	tmpl := buildSite(t)

	assert.Equal(t, FormatVersion, tmpl.AWSTemplateFormatVersion)
	assert.Len(t, tmpl.Resources, 5)
	for _, name := range []string{"LogBucket", "SiteBucket", "OriginAccessIdentity", "SiteBucketPolicy", "Distribution"} {
		assert.Contains(t, tmpl.Resources, name)
	}
	assert.NotContains(t, tmpl.Resources, "LogBucketAcl")
	assert.NotContains(t, tmpl.Resources, "SitePublicAccessBlock")
}

func TestBuild_LogBucket(t *testing.T) {
	tmpl := buildSite(t)

	logs := tmpl.Resources["LogBucket"]
	assert.Equal(t, "AWS::S3::Bucket", logs.Type)
	assert.Equal(t, "example-logs", logs.Properties["BucketName"])
	assert.Equal(t, "LogDeliveryWrite", logs.Properties["AccessControl"])
	assert.Equal(t, map[string]any{
		"Rules": []any{map[string]any{"ObjectOwnership": "BucketOwnerPreferred"}},
	}, normalize(t, logs.Properties["OwnershipControls"]))
	assert.Empty(t, logs.DependsOn, "ACL and ownership controls fold into the same resource")
}

func TestBuild_SiteBucket(t *testing.T) {
	tmpl := buildSite(t)

	content := tmpl.Resources["SiteBucket"]
	assert.Equal(t, "example-site", content.Properties["BucketName"])
	assert.Equal(t, map[string]any{
		"IndexDocument": "index.html",
		"ErrorDocument": "index.html",
	}, normalize(t, content.Properties["WebsiteConfiguration"]))
	assert.Equal(t, map[string]any{
		"BlockPublicAcls":       false,
		"BlockPublicPolicy":     false,
		"IgnorePublicAcls":      false,
		"RestrictPublicBuckets": false,
	}, normalize(t, content.Properties["PublicAccessBlockConfiguration"]))
}

func TestBuild_BucketPolicy(t *testing.T) {
	tmpl := buildSite(t)

	policy := normalize(t, tmpl.Resources["SiteBucketPolicy"].Properties).(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "SiteBucket"}, policy["Bucket"])

	stmt := policy["PolicyDocument"].(map[string]any)["Statement"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{
		"Fn::Join": []any{"", []any{map[string]any{"Fn::GetAtt": []any{"SiteBucket", "Arn"}}, "/*"}},
	}, stmt["Resource"])
	assert.Equal(t, map[string]any{
		"AWS": map[string]any{"Fn::Sub": "arn:${AWS::Partition}:iam::cloudfront:user/CloudFront Origin Access Identity ${OriginAccessIdentity}"},
	}, stmt["Principal"])
}

func TestBuild_Distribution(t *testing.T) {
	tmpl := buildSite(t)

	dist := tmpl.Resources["Distribution"]
	assert.Equal(t, "AWS::CloudFront::Distribution", dist.Type)
	assert.Empty(t, dist.DependsOn, "the log bucket is already referenced by GetAtt")

	props := normalize(t, dist.Properties).(map[string]any)
	cfg := props["DistributionConfig"].(map[string]any)
	assert.Equal(t, true, cfg["Enabled"])
	assert.Equal(t, "index.html", cfg["DefaultRootObject"])

	origin := cfg["Origins"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"SiteBucket", "RegionalDomainName"}}, origin["DomainName"])
	assert.Equal(t, map[string]any{
		"OriginAccessIdentity": map[string]any{"Fn::Sub": "origin-access-identity/cloudfront/${OriginAccessIdentity}"},
	}, origin["S3OriginConfig"])

	logging := cfg["Logging"].(map[string]any)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"LogBucket", "DomainName"}}, logging["Bucket"])
	assert.Equal(t, "logs/", logging["Prefix"])
	assert.Equal(t, false, logging["IncludeCookies"])
}

func TestBuild_OriginAccessIdentityWrapped(t *testing.T) {
	tmpl := buildSite(t)

	oai := tmpl.Resources["OriginAccessIdentity"]
	assert.Equal(t, map[string]any{
		"CloudFrontOriginAccessIdentityConfig": map[string]any{"Comment": "access-identity-example-site"},
	}, normalize(t, oai.Properties))
}

func TestBuild_Outputs(t *testing.T) {
	tmpl := buildSite(t)

	require.Len(t, tmpl.Outputs, 3)
	assert.Equal(t, map[string]any{"Ref": "SiteBucket"}, tmpl.Outputs["SiteBucketName"].Value)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"Distribution", "DomainName"}}, tmpl.Outputs["DistributionDomainName"].Value)
}

func TestBuild_DependsOnRemapped(t *testing.T) {
	st := stack.New("test")
	logs := st.Add("LogBucket", s3.Bucket{Name: "logs"})
	controls := st.Add("LogBucketOwnershipControls", s3.OwnershipControls{Bucket: logs.Ref()})
	st.Add("SiteBucket", s3.Bucket{Name: "site"}, controls)

	tmpl, err := NewBuilder(st).Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"LogBucket"}, tmpl.Resources["SiteBucket"].DependsOn)
}

func TestBuild_DependsOnSkipsReferencedTargets(t *testing.T) {
	st := stack.New("test")
	logs := st.Add("LogBucket", s3.Bucket{Name: "logs"})
	acl := st.Add("LogBucketAcl", s3.BucketACL{Bucket: logs.Ref(), ACL: s3.CannedACLLogDeliveryWrite})
	st.Add("LogReader", s3.BucketPolicy{Bucket: logs.Ref()}, acl)

	tmpl, err := NewBuilder(st).Build()
	require.NoError(t, err)

	// LogBucketAcl folds into LogBucket, which the policy already references.
	assert.Empty(t, tmpl.Resources["LogReader"].DependsOn)
}

func TestBuild_ReferenceToAttachmentResolvesToOwner(t *testing.T) {
	st := stack.New("test")
	bucket := st.Add("SiteBucket", s3.Bucket{Name: "site"})
	website := st.Add("SiteWebsite", s3.WebsiteConfiguration{Bucket: bucket.Ref()})
	st.Add("SiteBucketPolicy", s3.BucketPolicy{Bucket: website.Ref()})

	tmpl, err := NewBuilder(st).Build()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Ref": "SiteBucket"}, tmpl.Resources["SiteBucketPolicy"].Properties["Bucket"])
}

func TestBuild_Cycle(t *testing.T) {
	st := stack.New("test")
	later := &stack.Entry{Name: "B"}
	first := st.Add("A", s3.Bucket{Name: "a"}, later)
	st.Add("B", s3.Bucket{Name: "b"}, first)

	_, err := NewBuilder(st).Build()
	assert.ErrorIs(t, err, plan.ErrCycle)
}

func TestBuild_InvalidReference(t *testing.T) {
	st := stack.New("test")
	st.Add("SiteBucketPolicy", s3.BucketPolicy{Bucket: staticsite.AttrRef{Resource: "Missing"}})

	_, err := NewBuilder(st).Build()
	assert.ErrorIs(t, err, stack.ErrUndefinedReference)
}

func TestToJSON(t *testing.T) {
	data, err := ToJSON(buildSite(t))
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Contains(t, string(data), "\n  ")
}

func TestToYAML(t *testing.T) {
	data, err := ToYAML(buildSite(t))
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])

	resources := parsed["Resources"].(map[string]any)
	policy := resources["SiteBucketPolicy"].(map[string]any)["Properties"].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "SiteBucket"}, policy["Bucket"])
}
