package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/resources/cloudfront"
	"github.com/lex00/wetwire-staticsite-go/resources/s3"
)

func newLogStack() (*Stack, *Entry, *Entry, *Entry) {
	st := New("test")
	logs := st.Add("LogBucket", s3.Bucket{Name: "example-logs"})
	controls := st.Add("LogBucketOwnershipControls", s3.OwnershipControls{
		Bucket: logs.Ref(),
		Rule:   s3.OwnershipControlsRule{ObjectOwnership: s3.ObjectOwnershipBucketOwnerPreferred},
	})
	acl := st.Add("LogBucketAcl", s3.BucketACL{Bucket: logs.Ref(), ACL: s3.CannedACLLogDeliveryWrite}, controls)
	return st, logs, controls, acl
}

func TestAdd_RecordsDeclaration(t *testing.T) {
	st, logs, _, acl := newLogStack()

	require.NoError(t, st.Err())
	assert.Equal(t, 3, st.Len())
	assert.Equal(t, []string{"LogBucket", "LogBucketOwnershipControls", "LogBucketAcl"}, st.Names())

	assert.Contains(t, logs.File, "stack_test.go")
	assert.Greater(t, logs.Line, 0)
	assert.Equal(t, []string{"LogBucketOwnershipControls"}, acl.DependsOn)

	got, ok := st.Get("LogBucketAcl")
	require.True(t, ok)
	assert.Same(t, acl, got)
}

func TestAdd_Duplicate(t *testing.T) {
	st := New("test")
	st.Add("SiteBucket", s3.Bucket{Name: "a"})
	st.Add("SiteBucket", s3.Bucket{Name: "b"})

	err := st.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, st.Len())
}

func TestAdd_EmptyName(t *testing.T) {
	st := New("test")
	st.Add("", s3.Bucket{Name: "a"})

	assert.ErrorIs(t, st.Err(), ErrEmptyName)
	assert.Equal(t, 0, st.Len())
}

func TestEntry_Refs(t *testing.T) {
	e := &Entry{Name: "SiteBucket"}

	assert.Equal(t, staticsite.AttrRef{Resource: "SiteBucket"}, e.Ref())
	assert.Equal(t, staticsite.AttrRef{Resource: "SiteBucket", Attribute: s3.AttrArn}, e.Attr(s3.AttrArn))
}

func TestDependencies(t *testing.T) {
	st, _, _, _ := newLogStack()

	assert.Empty(t, st.Dependencies("LogBucket"))
	assert.Equal(t, []string{"LogBucket"}, st.Dependencies("LogBucketOwnershipControls"))
	assert.Equal(t, []string{"LogBucket", "LogBucketOwnershipControls"}, st.Dependencies("LogBucketAcl"))
	assert.Nil(t, st.Dependencies("Missing"))
}

func TestReferences(t *testing.T) {
	st, logs, _, _ := newLogStack()

	assert.Empty(t, st.References("LogBucket"))
	assert.Equal(t, []staticsite.AttrRef{logs.Ref()}, st.References("LogBucketAcl"))
	assert.Nil(t, st.References("Missing"))
}

func TestValidate(t *testing.T) {
	st, _, _, _ := newLogStack()
	assert.NoError(t, st.Validate())
}

func TestValidate_UndefinedReference(t *testing.T) {
	st := New("test")
	st.Add("SiteBucketPolicy", s3.BucketPolicy{Bucket: staticsite.AttrRef{Resource: "SiteBucket"}})

	err := st.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedReference)
	assert.Contains(t, err.Error(), "SiteBucketPolicy")
}

func TestValidate_UnknownAttribute(t *testing.T) {
	st := New("test")
	site := st.Add("SiteBucket", s3.Bucket{Name: "example-site"})
	st.Add("Distribution", cloudfront.Distribution{
		Origins: []cloudfront.Origin{{ID: "site", DomainName: site.Attr("Endpoint")}},
	})

	err := st.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestValidate_OutputReference(t *testing.T) {
	st := New("test")
	st.Add("SiteBucket", s3.Bucket{Name: "example-site"})
	st.Output("DistributionDomainName", "", staticsite.AttrRef{Resource: "Distribution", Attribute: cloudfront.AttrDomainName})

	err := st.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output DistributionDomainName")
}

func TestDiscovered(t *testing.T) {
	st, _, _, _ := newLogStack()

	resources := st.Discovered()
	require.Len(t, resources, 3)

	acl := resources["LogBucketAcl"]
	assert.Equal(t, "AWS::S3::Bucket", acl.Type)
	assert.Equal(t, "aws_s3_bucket_acl", acl.TerraformType)
	assert.Equal(t, []string{"LogBucketOwnershipControls"}, acl.ExplicitDependencies)
	assert.Equal(t, []string{"LogBucket", "LogBucketOwnershipControls"}, acl.Dependencies)
	assert.Equal(t, []staticsite.AttrRefUsage{{ResourceName: "LogBucket"}}, acl.AttrRefUsages)
}
