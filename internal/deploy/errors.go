package deploy

import (
	"errors"

	smithy "github.com/aws/smithy-go"
)

var (
	// ErrUnsupported is returned for resource types the provisioner cannot manage.
	ErrUnsupported = errors.New("unsupported resource type")
	// ErrNotProvisioned is returned when a reference names a resource whose
	// runtime values are not known yet.
	ErrNotProvisioned = errors.New("resource not provisioned")
)

// apiErrorCode returns the AWS error code of err, or "" when err is not an
// API error.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	switch apiErrorCode(err) {
	case "NotFound", "NoSuchBucket", "NoSuchBucketPolicy", "NoSuchWebsiteConfiguration",
		"NoSuchPublicAccessBlockConfiguration", "OwnershipControlsNotFoundError",
		"NoSuchDistribution", "NoSuchCloudFrontOriginAccessIdentity":
		return true
	}
	return false
}

func isAlreadyOwned(err error) bool {
	return apiErrorCode(err) == "BucketAlreadyOwnedByYou"
}
