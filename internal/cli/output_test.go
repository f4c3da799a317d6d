package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFatal, GetExitCode(errors.New("plain")))
	assert.Equal(t, 2, GetExitCode(NewExitError(2, "not conformant")))
	assert.Equal(t, ExitFatal, GetExitCode(WrapExitError(ExitFatal, "loading", errors.New("no such file"))))

	// Wrapped ExitErrors are still found.
	wrapped := fmt.Errorf("outer: %w", NewExitError(2, "inner"))
	assert.Equal(t, 2, GetExitCode(wrapped))
}

func TestExitError_Error(t *testing.T) {
	assert.Equal(t, "boom", NewExitError(1, "boom").Error())

	underlying := errors.New("no such file")
	err := WrapExitError(1, "loading test vectors", underlying)
	assert.Equal(t, "loading test vectors: no such file", err.Error())
	require.ErrorIs(t, err, underlying)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	f := &OutputFormatter{Writer: out, ErrWriter: errOut, Verbose: false}
	f.VerboseLog("hidden %d", 1)
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("shown %d", 2)
	assert.Empty(t, out.String())
	assert.Equal(t, "shown 2\n", errOut.String())
}

func TestOutputFormatter_ErrWriterFallback(t *testing.T) {
	out := &bytes.Buffer{}
	f := &OutputFormatter{Writer: out, Verbose: true}

	assert.Same(t, out, f.GetErrWriter())
	f.VerboseLog("to stdout")
	assert.Equal(t, "to stdout\n", out.String())
}
