package s3

import (
	"fmt"
	"strings"
)

const scheme = "s3://"

func IsS3URL(raw string) bool {
	return strings.HasPrefix(raw, scheme)
}

// ParseS3URL splits s3://BUCKET/KEY (the scheme is optional) into bucket and key.
func ParseS3URL(url string) (string, string, error) {
	url = strings.TrimPrefix(url, scheme)
	parts := strings.SplitN(url, "/", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URL format, expected s3://BUCKET/KEY")
	}
	bucket, key := parts[0], parts[1]
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("S3 URL must name an object, not a prefix: %s", url)
	}
	return bucket, key, nil
}
