package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble concatenates the non-overlapping part of every chunk.
func reassemble(t *testing.T, text string, chunks []Chunk) string {
	t.Helper()
	var b strings.Builder
	prevEnd := 0
	for i, c := range chunks {
		require.Equal(t, text[c.Start:c.End], c.Text, "chunk %d offsets", i)
		require.LessOrEqual(t, c.Start, prevEnd, "gap before chunk %d", i)
		require.Greater(t, c.End, prevEnd, "chunk %d adds nothing", i)
		b.WriteString(text[prevEnd:c.End])
		prevEnd = c.End
	}
	return b.String()
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word" + strings.Repeat("x", i%7)
	}
	return strings.Join(parts, " ")
}

func TestSplit_Empty(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	assert.Empty(t, s.Split(""))
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	text := "File: main.go\n\npackage main func main() { println(1) }"
	assert.Equal(t, []string{text}, s.Split(text))
}

func TestSplit_1500Characters(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)

	t.Run("words", func(t *testing.T) {
		body := words(400)[:1500]
		text := "File: main.go\n\n" + body
		chunks := s.Chunks(text)
		require.Len(t, chunks, 2)
		assert.Equal(t, text, reassemble(t, text, chunks))
		assert.LessOrEqual(t, utf8.RuneCountInString(chunks[0].Text), DefaultChunkSize)
		// the second chunk repeats the tail of the first
		assert.Less(t, chunks[1].Start, chunks[0].End)
		assert.LessOrEqual(t, chunks[0].End-chunks[1].Start, DefaultChunkOverlap)
	})

	t.Run("no separators", func(t *testing.T) {
		text := strings.Repeat("a", 1500)
		chunks := s.Chunks(text)
		require.Len(t, chunks, 2)
		assert.Len(t, chunks[0].Text, 1000)
		assert.Len(t, chunks[1].Text, 700)
		assert.Equal(t, text, reassemble(t, text, chunks))
	})
}

func TestSplit_Coverage(t *testing.T) {
	inputs := map[string]string{
		"paragraphs":   strings.Repeat(words(30)+"\n\n", 40),
		"lines":        strings.Repeat(words(12)+"\n", 150),
		"single line":  words(2000),
		"long token":   strings.Repeat("z", 3333),
		"mixed":        words(50) + "\n\n" + strings.Repeat("q", 2500) + "\n" + words(300),
		"unicode":      strings.Repeat("héllo wörld ", 300),
		"trailing sep": words(300) + "\n\n\n\n",
	}

	for _, size := range []int{1000, 120} {
		s := NewSplitter(size, size/5)
		for name, text := range inputs {
			t.Run(name, func(t *testing.T) {
				chunks := s.Chunks(text)
				require.NotEmpty(t, chunks)
				assert.Equal(t, 0, chunks[0].Start)
				assert.Equal(t, len(text), chunks[len(chunks)-1].End)
				assert.Equal(t, text, reassemble(t, text, chunks))
				for i, c := range chunks {
					assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), size, "chunk %d too long", i)
					assert.True(t, utf8.ValidString(c.Text), "chunk %d split a rune", i)
				}
			})
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(100, 0)
	para := strings.Repeat("a", 60) + "\n\n"
	text := para + para + para

	chunks := s.Split(text)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, para, c)
	}
}

func TestSplit_OverlapCarriesTail(t *testing.T) {
	s := NewSplitter(30, 10)
	text := "aaaa bbbb cccc dddd eeee ffff gggg hhhh iiii jjjj"

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		// some suffix of the previous chunk starts the next one
		found := false
		for k := 1; k <= 10 && k <= len(prev); k++ {
			if strings.HasPrefix(chunks[i], prev[len(prev)-k:]) {
				found = true
				break
			}
		}
		assert.True(t, found, "chunk %d does not overlap its predecessor", i)
	}
}

func TestNewSplitter_Clamps(t *testing.T) {
	s := NewSplitter(0, -5)
	assert.Equal(t, DefaultChunkSize, s.Size())
	assert.Equal(t, 0, s.Overlap())

	s = NewSplitter(10, 50)
	assert.Equal(t, 9, s.Overlap())
}

func TestWithSeparators(t *testing.T) {
	s := NewSplitter(5, 0, WithSeparators(",", ""))
	assert.Equal(t, []string{"ab,", "cd,ef"}, s.Split("ab,cd,ef"))
}
