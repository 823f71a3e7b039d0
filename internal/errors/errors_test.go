package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/imperfect/internal/errors"
)

func TestKinds(t *testing.T) {
	assert.True(t, errors.Is(svcErr.Validation("toUserId is required"), svcErr.ErrValidation))
	assert.True(t, errors.Is(svcErr.NotFound("user"), svcErr.ErrNotFound))
	assert.True(t, errors.Is(svcErr.Unauthorized("no current user"), svcErr.ErrAuthorization))
	assert.Equal(t, "user not found", svcErr.NotFound("user").Error())

	wrapped := fmt.Errorf("record like: %w", svcErr.Validation("bad"))
	assert.True(t, svcErr.Is(wrapped, svcErr.ErrValidation))
	assert.False(t, svcErr.Is(wrapped, svcErr.ErrNotFound))
}

func TestStorage(t *testing.T) {
	assert.NoError(t, svcErr.Storage("get user", nil))

	notFound := svcErr.Storage("get user", gorm.ErrRecordNotFound)
	assert.True(t, errors.Is(notFound, svcErr.ErrNotFound))
	assert.True(t, errors.Is(notFound, gorm.ErrRecordNotFound))

	boom := errors.New("connection refused")
	transient := svcErr.Storage("create like", boom)
	assert.True(t, errors.Is(transient, svcErr.ErrTransientStorage))
	assert.True(t, errors.Is(transient, boom))
	assert.Contains(t, transient.Error(), "create like")

	// already classified errors pass through untouched
	v := svcErr.Validation("x")
	assert.Same(t, v, svcErr.Storage("op", v))
}

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", svcErr.Validation("toUserId is required"), codes.InvalidArgument},
		{"authorization", svcErr.Unauthorized("no current user"), codes.Unauthenticated},
		{"not found", svcErr.NotFound("profile"), codes.NotFound},
		{"gorm not found", gorm.ErrRecordNotFound, codes.NotFound},
		{"transient", svcErr.Storage("op", errors.New("io")), codes.Unavailable},
		{"deadline", svcErr.Storage("op", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", errors.New("boom"), codes.Internal},
		{"status passthrough", status.Error(codes.AlreadyExists, "dup"), codes.AlreadyExists},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(svcErr.Map(tc.err)))
		})
	}
	assert.NoError(t, svcErr.Map(nil))
}
