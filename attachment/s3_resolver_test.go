package attachment

import (
	"strings"
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/stretchr/testify/assert"
)

func TestTextForLevel_NonTextMimeTypeYieldsNoText(t *testing.T) {
	t.Parallel()

	text := textForLevel([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png", ctx.ResolutionFull)
	assert.Empty(t, text)
}

func TestTextForLevel_ExtractTruncatesToPreview(t *testing.T) {
	t.Parallel()

	body := []byte(strings.Repeat("a", extractPreviewChars+500))
	text := textForLevel(body, "text/plain", ctx.ResolutionExtract)
	assert.Len(t, text, extractPreviewChars)
}

func TestTextForLevel_FullCarriesEntireBody(t *testing.T) {
	t.Parallel()

	body := []byte(strings.Repeat("a", extractPreviewChars+500))
	text := textForLevel(body, "text/plain", ctx.ResolutionFull)
	assert.Len(t, text, len(body))
}

func TestTextForLevel_JSONCountsAsText(t *testing.T) {
	t.Parallel()

	text := textForLevel([]byte(`{"a":1}`), "application/json", ctx.ResolutionFull)
	assert.Equal(t, `{"a":1}`, text)
}
