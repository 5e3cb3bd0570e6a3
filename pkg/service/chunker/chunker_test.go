package chunker_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/scribe-lab/grimoire/pkg/service/chunker"
)

func TestSplitEmptyInput(t *testing.T) {
	gt.Array(t, chunker.Split("", 100, 10)).Length(0)
	gt.Array(t, chunker.Split("   \n\n  \t ", 100, 10)).Length(0)
}

func TestSplitSingleShortParagraph(t *testing.T) {
	chunks := chunker.Split("hello world", 100, 10)
	gt.Array(t, chunks).Length(1)
	gt.Value(t, chunks[0]).Equal("hello world")
}

func TestSplitOversizedParagraphEmittedWhole(t *testing.T) {
	para := strings.Repeat("x", 200)
	chunks := chunker.Split(para, 50, 10)
	gt.Array(t, chunks).Length(1)
	gt.Value(t, chunks[0]).Equal(para)
}

func TestSplitOverlapSeedsNextChunk(t *testing.T) {
	p1 := strings.Repeat("a", 30) + strings.Repeat("b", 10)
	p2 := strings.Repeat("c", 30)
	chunks := chunker.Split(p1+"\n\n"+p2, 50, 10)

	gt.Array(t, chunks).Length(2)
	gt.Value(t, chunks[0]).Equal(p1)

	// Second chunk starts with the trailing 10 characters of the first.
	gt.Bool(t, strings.HasPrefix(chunks[1], strings.Repeat("b", 10))).True()
	gt.Bool(t, strings.Contains(chunks[1], p2)).True()
}

func TestSplitZeroOverlap(t *testing.T) {
	p1 := strings.Repeat("a", 40)
	p2 := strings.Repeat("b", 40)
	chunks := chunker.Split(p1+"\n\n"+p2, 50, 0)

	gt.Array(t, chunks).Length(2)
	gt.Value(t, chunks[0]).Equal(p1)
	gt.Value(t, chunks[1]).Equal(p2)
}

func TestSplitPreservesParagraphOrder(t *testing.T) {
	text := "first\n\nsecond\n\nthird\n\nfourth"
	chunks := chunker.Split(text, 1000, 10)
	gt.Array(t, chunks).Length(1)
	gt.Value(t, chunks[0]).Equal("first\n\nsecond\n\nthird\n\nfourth")

	chunks = chunker.Split(text, 12, 0)
	joined := strings.Join(chunks, "\n\n")
	for _, word := range []string{"first", "second", "third", "fourth"} {
		gt.Bool(t, strings.Contains(joined, word)).True()
	}
	gt.Bool(t, strings.Index(joined, "first") < strings.Index(joined, "second")).True()
	gt.Bool(t, strings.Index(joined, "second") < strings.Index(joined, "third")).True()
	gt.Bool(t, strings.Index(joined, "third") < strings.Index(joined, "fourth")).True()
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma. ", 20) + "\n\n" + strings.Repeat("delta epsilon. ", 15)

	first := chunker.Split(text, 120, 20)
	for i := 0; i < 5; i++ {
		again := chunker.Split(text, 120, 20)
		gt.Array(t, again).Length(len(first))
		for j := range first {
			gt.Value(t, again[j]).Equal(first[j])
		}
	}
}
