package common

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppErrorMatchesKindAndCause(t *testing.T) {
	err := OCRFailureError("page 2", io.ErrUnexpectedEOF)

	assert.True(t, errors.Is(err, ErrOCRFailure))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, errors.Is(err, ErrTextRead))
	assert.Equal(t, CodeOCRFailure, CodeOf(err))
	assert.Contains(t, err.Error(), "OCR_FAILURE: page 2")

	wrapped := WrapError(err, "normalize")
	assert.True(t, errors.Is(wrapped, ErrOCRFailure))
	assert.Equal(t, CodeOCRFailure, CodeOf(wrapped))
	assert.Nil(t, WrapError(nil, "noop"))
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{UnsupportedFormatError("xlsx"), codes.InvalidArgument},
		{TextReadError("bad docx", io.EOF), codes.FailedPrecondition},
		{ExtractionFailedError("provider down", io.EOF), codes.Unavailable},
		{MalformedModelOutputError("nope"), codes.Unavailable},
		{OCRFailureError("tesseract", io.EOF), codes.Internal},
	}
	for _, tc := range cases {
		st, ok := status.FromError(ToStatus(tc.err))
		assert.True(t, ok)
		assert.Equal(t, tc.code, st.Code(), tc.err.Error())
	}
	assert.Nil(t, ToStatus(nil))
}
