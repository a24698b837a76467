package jma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

const testLine = "2025 12  8 09:12  34.5  40°52.3'N 142°30.1'E  20  3.5  青森県東方沖"

func TestExtractPreformatted(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "single block",
			body:     "<html><body><h1>震源リスト</h1><pre>年 月 日 時分 秒\n" + testLine + "\n</pre></body></html>",
			expected: "年 月 日 時分 秒\n" + testLine + "\n",
		},
		{
			name:     "multiple blocks in document order",
			body:     "<pre>first\n</pre><p>between</p><div><pre>second\n</pre></div>",
			expected: "first\nsecond\n",
		},
		{
			name:     "only direct text children",
			body:     "<pre>before <a href=\"#\">link</a> after\n</pre>",
			expected: "before  after\n",
		},
		{
			name:     "leading newline after pre tag is dropped",
			body:     "<pre>\n" + testLine + "</pre>",
			expected: testLine,
		},
		{
			name:     "entities decoded",
			body:     "<pre>a &amp; b</pre>",
			expected: "a & b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPreformatted(Page{Body: []byte(tt.body), ContentType: "text/html; charset=utf-8"})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractPreformatted_NoPre(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no pre element", "<html><body><p>" + testLine + "</p></body></html>"},
		{"empty pre", "<pre></pre>"},
		{"whitespace pre", "<pre>\n   \n</pre>"},
		{"empty page", ""},
		{"blank page", " \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractPreformatted(Page{Body: []byte(tt.body)})
			require.ErrorIs(t, err, domain.ErrExtraction)
		})
	}
}

func TestExtractPreformatted_ShiftJIS(t *testing.T) {
	doc := "<html><head><meta charset=\"Shift_JIS\"></head><body><pre>" + testLine + "\n</pre></body></html>"
	encoded, err := japanese.ShiftJIS.NewEncoder().String(doc)
	require.NoError(t, err)
	require.NotEqual(t, doc, encoded)

	t.Run("meta charset", func(t *testing.T) {
		got, err := ExtractPreformatted(Page{Body: []byte(encoded), ContentType: "text/html"})
		require.NoError(t, err)
		assert.Equal(t, testLine+"\n", got)
	})

	t.Run("content type charset", func(t *testing.T) {
		plain, err := japanese.ShiftJIS.NewEncoder().String("<pre>" + testLine + "</pre>")
		require.NoError(t, err)
		got, err := ExtractPreformatted(Page{Body: []byte(plain), ContentType: "text/html; charset=Shift_JIS"})
		require.NoError(t, err)
		assert.Equal(t, testLine, got)
	})
}

func TestExtractPreformatted_ParsesIntoRecord(t *testing.T) {
	text, err := ExtractPreformatted(Page{Body: []byte("<pre>header line\n" + testLine + "\n</pre>")})
	require.NoError(t, err)

	res := domain.ParseListing(text)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "青森県東方沖", res.Records[0].Region)
	assert.InDelta(t, 40.87167, res.Records[0].Latitude, 1e-9)
	assert.InDelta(t, 142.50167, res.Records[0].Longitude, 1e-9)
}
