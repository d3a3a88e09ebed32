package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestIsNoSuchKey(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"minio NoSuchKey", minio.ErrorResponse{Code: "NoSuchKey"}, true},
		{"wrapped NotFound", fmt.Errorf("stat: %w", minio.ErrorResponse{Code: "NotFound"}), true},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."}, false},
		{"plain string", errors.New("The specified key does not exist."), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsNoSuchKey(tc.err))
		})
	}
}
