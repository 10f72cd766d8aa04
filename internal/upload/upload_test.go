package upload

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterUpload(t *testing.T) {
	var out bytes.Buffer
	w := &Writer{W: &out}

	err := w.Upload(context.Background(), strings.NewReader("steps: []\n"))

	require.NoError(t, err)
	assert.Equal(t, "steps: []\n", out.String())
}
