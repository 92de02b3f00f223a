package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\ntitle: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\ntitle: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyBlockAndClosingAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)

	fm, body, had, err = Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\n"), fm)
	require.Empty(t, body)
}

func TestParse_YAMLTitleIsCaseInsensitive(t *testing.T) {
	doc, err := Parse([]byte("---\nTITLE: Hello World\ntags: [a]\n---\nbody\n"))
	require.NoError(t, err)

	title, ok := doc.Title()
	require.True(t, ok)
	require.Equal(t, "Hello World", title)
	require.Equal(t, []byte("body\n"), doc.Body)
}

func TestParse_MetaBlock(t *testing.T) {
	doc, err := Parse([]byte("Title: My First Post\nAuthor: someone\n    else\n\n# Heading\n"))
	require.NoError(t, err)

	title, ok := doc.Title()
	require.True(t, ok)
	require.Equal(t, "My First Post", title)
	author, _ := doc.Lookup("Author")
	require.Equal(t, "someone else", author)
	require.Equal(t, []byte("# Heading\n"), doc.Body)
}

func TestParse_PlainMarkdownHasNoFields(t *testing.T) {
	input := []byte("# Heading\n\nSome text: not metadata\n")
	doc, err := Parse(input)
	require.NoError(t, err)
	require.Empty(t, doc.Fields)
	require.Equal(t, input, doc.Body)

	_, ok := doc.Title()
	require.False(t, ok)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("---\n: not yaml\n---\nbody\n"))
	require.Error(t, err)

	_, err = Parse([]byte("---\ntitle: x\nbody without close\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
}
