package graph

import (
	"strings"
	"testing"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/site"
)

func siteResources(t *testing.T) map[string]staticsite.DiscoveredResource {
	t.Helper()
	cfg := config.Default()
	cfg.BaseName = "example"
	st, err := site.Declare(cfg)
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	return st.Discovered()
}

func TestGenerator_Generate_SimpleGraph(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"SiteBucket": {
			Name: "SiteBucket",
			Type: "AWS::S3::Bucket",
		},
		"SiteBucketPolicy": {
			Name:          "SiteBucketPolicy",
			Type:          "AWS::S3::BucketPolicy",
			Dependencies:  []string{"SiteBucket"},
			AttrRefUsages: []staticsite.AttrRefUsage{{ResourceName: "SiteBucket"}},
		},
	}

	gen := &Generator{}
	var sb strings.Builder
	if err := gen.Generate(resources, &sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	if !strings.Contains(output, "digraph") {
		t.Error("expected digraph declaration")
	}
	if !strings.Contains(output, "SiteBucket") || !strings.Contains(output, "[AWS::S3::Bucket]") {
		t.Error("expected SiteBucket node labelled with its type")
	}
	if !strings.Contains(output, "->") {
		t.Error("expected an edge")
	}
	if !strings.Contains(output, "blue") {
		t.Error("expected reference edge to be blue")
	}
}

func TestGenerator_Generate_ExplicitDependencyDashed(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"LogBucketOwnershipControls": {
			Name: "LogBucketOwnershipControls",
			Type: "AWS::S3::Bucket",
		},
		"LogBucketAcl": {
			Name:                 "LogBucketAcl",
			Type:                 "AWS::S3::Bucket",
			Dependencies:         []string{"LogBucketOwnershipControls"},
			ExplicitDependencies: []string{"LogBucketOwnershipControls"},
		},
	}

	output, err := (&Generator{}).GenerateString(resources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "dashed") {
		t.Error("expected explicit dependency edge to be dashed")
	}
	if strings.Contains(output, "blue") {
		t.Error("expected no reference edges")
	}
}

func TestGenerator_Generate_SkipsUnknownDependencies(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"SiteBucketPolicy": {
			Name:         "SiteBucketPolicy",
			Type:         "AWS::S3::BucketPolicy",
			Dependencies: []string{"Missing"},
		},
	}

	output, err := (&Generator{}).GenerateString(resources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(output, "Missing") {
		t.Error("expected no node for an undeclared dependency")
	}
	if strings.Contains(output, "->") {
		t.Error("expected no edges")
	}
}

func TestGenerator_Generate_Site(t *testing.T) {
	output, err := (&Generator{}).GenerateString(siteResources(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{
		site.LogBucket, site.LogBucketOwnershipControls, site.LogBucketACL,
		site.SiteBucket, site.SiteWebsiteConfiguration, site.SitePublicAccessBlock,
		site.OriginAccessIdentity, site.SiteBucketPolicy, site.Distribution,
	} {
		if !strings.Contains(output, name) {
			t.Errorf("expected node %s", name)
		}
	}
	if got := strings.Count(output, "->"); got < 9 {
		t.Errorf("expected at least 9 edges, got %d", got)
	}
	if !strings.Contains(output, "dashed") {
		t.Error("expected the ACL ordering edge to be dashed")
	}
}

func TestGenerator_Generate_ClusterByType(t *testing.T) {
	gen := &Generator{ClusterByType: true}
	output, err := gen.GenerateString(siteResources(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "cluster_S3") {
		t.Error("expected S3 cluster")
	}
	if !strings.Contains(output, "cluster_CloudFront") {
		t.Error("expected CloudFront cluster")
	}
}

func TestGenerator_Generate_TerraformTypes(t *testing.T) {
	gen := &Generator{TerraformTypes: true}
	output, err := gen.GenerateString(siteResources(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "[aws_s3_bucket_acl]") {
		t.Error("expected Terraform type labels")
	}
	if strings.Contains(output, "AWS::S3::Bucket") {
		t.Error("expected no CloudFormation type labels")
	}
}

func TestGenerator_Generate_MermaidFormat(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	output, err := gen.GenerateString(siteResources(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "graph") && !strings.Contains(output, "flowchart") {
		t.Error("expected mermaid graph declaration")
	}
	if strings.Contains(output, "digraph") {
		t.Error("mermaid output should not contain digraph")
	}
}

func TestGenerator_Generate_Deterministic(t *testing.T) {
	resources := siteResources(t)
	gen := &Generator{}

	first, err := gen.GenerateString(resources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := gen.GenerateString(resources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatal("expected identical output across runs")
		}
	}
}

func TestExtractService(t *testing.T) {
	tests := map[string]string{
		"AWS::S3::Bucket":               "S3",
		"AWS::CloudFront::Distribution": "CloudFront",
		"aws_s3_bucket":                 "Other",
	}
	for in, want := range tests {
		if got := extractService(in); got != want {
			t.Errorf("extractService(%q) = %q, want %q", in, got, want)
		}
	}
}
