package objectstore

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresClientAndBucket(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Client: &s3.Client{}})
	require.Error(t, err)

	s, err := New(Config{Client: &s3.Client{}, Bucket: "b"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestObjectKeyLayout(t *testing.T) {
	s, err := New(Config{Client: &s3.Client{}, Bucket: "b", Prefix: "kurral/"})
	require.NoError(t, err)

	created := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "kurral/tenant-1/2026/03/art-1.kurral", s.objectKey("tenant-1", created, "art-1"))
	require.Equal(t, "kurral/index.json", s.indexKey())
}

func TestIsNotFoundMatchesNoSuchKey(t *testing.T) {
	require.True(t, isNotFound(&types.NoSuchKey{}))
	require.False(t, isNotFound(nil))
	require.False(t, isNotFound(errors.New("some other error")))
}

func TestIsNotFoundMatchesHTTP404ResponseError(t *testing.T) {
	notFound := &smithyhttp.ResponseError{Response: &smithyhttp.Response{Response: &http.Response{StatusCode: 404}}}
	require.True(t, isNotFound(notFound))
	err := &smithyhttp.ResponseError{Response: &smithyhttp.Response{Response: &http.Response{StatusCode: 500}}}
	require.False(t, isNotFound(err), "a response error without a 404 status should not be treated as not-found")
}
