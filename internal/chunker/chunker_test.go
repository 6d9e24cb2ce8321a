package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

func TestChunk_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		targetSize int
		overlap    int
	}{
		{name: "empty text", text: "", targetSize: 500, overlap: 50},
		{name: "zero target size", text: "some text", targetSize: 0, overlap: 0},
		{name: "negative target size", text: "some text", targetSize: -10, overlap: 0},
		{name: "negative overlap", text: "some text", targetSize: 100, overlap: -1},
		{name: "overlap equals target", text: "some text", targetSize: 100, overlap: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Chunk(tt.text, tt.targetSize, tt.overlap)
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("Chunk() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestChunk_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		targetSize int
		overlap    int
	}{
		{
			name:       "short text single fragment",
			text:       "Gradient descent minimizes a loss function.",
			targetSize: 500,
			overlap:    50,
		},
		{
			name:       "lecture style sentences",
			text:       strings.Repeat("Gradient descent takes small steps downhill. The learning rate controls the step size. Too large a rate diverges! Does momentum help? Yes, it smooths updates. ", 40),
			targetSize: 500,
			overlap:    50,
		},
		{
			name:       "no sentence boundaries",
			text:       strings.Repeat("word ", 400),
			targetSize: 300,
			overlap:    30,
		},
		{
			name:       "no whitespace at all forces hard cuts",
			text:       strings.Repeat("x", 2000),
			targetSize: 256,
			overlap:    32,
		},
		{
			name:       "multibyte text without spaces",
			text:       strings.Repeat("梯度下降法沿损失函数的负梯度方向迭代更新参数", 20),
			targetSize: 100,
			overlap:    10,
		},
		{
			name:       "zero overlap",
			text:       strings.Repeat("First point. Second point. Third point. ", 60),
			targetSize: 400,
			overlap:    0,
		},
		{
			name:       "paragraph breaks",
			text:       strings.Repeat("Intro paragraph about models.\n\nA second paragraph with details.\n\n", 30),
			targetSize: 350,
			overlap:    40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments, err := Chunk(tt.text, tt.targetSize, tt.overlap)
			if err != nil {
				t.Fatalf("Chunk() error = %v", err)
			}
			if len(fragments) == 0 {
				t.Fatal("Chunk() returned no fragments")
			}

			if got := Reconstruct(fragments); got != tt.text {
				t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(tt.text))
			}

			for i, f := range fragments {
				if f.Seq != i {
					t.Errorf("fragment %d has Seq %d", i, f.Seq)
				}
				if !utf8.ValidString(f.Text) {
					t.Errorf("fragment %d is not valid UTF-8", i)
				}
				if f.Text != tt.text[f.Start:f.End] {
					t.Errorf("fragment %d text does not match its offsets", i)
				}
				if i == 0 && f.OverlapLen != 0 {
					t.Errorf("first fragment has overlap %d", f.OverlapLen)
				}
				if f.OverlapLen > tt.overlap {
					t.Errorf("fragment %d overlap %d exceeds configured %d", i, f.OverlapLen, tt.overlap)
				}
				// Core size (without overlap) never exceeds targetSize.
				if core := f.End - f.Start - f.OverlapLen; core > tt.targetSize {
					t.Errorf("fragment %d core size %d exceeds target %d", i, core, tt.targetSize)
				}
			}
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("Neural networks learn representations. Backpropagation computes gradients. ", 50)

	first, err := Chunk(text, 500, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	second, err := Chunk(text, 500, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("fragment counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("fragment %d differs between runs", i)
		}
	}
}

func TestChunk_PrefersSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("This is a full sentence about optimization. ", 30)

	fragments, err := Chunk(text, 200, 20)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(fragments) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(fragments))
	}

	// Every core span (except possibly the last) should end just after a
	// sentence terminator and its trailing whitespace.
	for i := 0; i < len(fragments)-1; i++ {
		coreEnd := fragments[i].End
		trimmed := strings.TrimRight(text[:coreEnd], " \n\t")
		if !strings.HasSuffix(trimmed, ".") {
			t.Errorf("fragment %d core does not end at a sentence boundary: ...%q", i, text[coreEnd-10:coreEnd])
		}
	}
}

func TestChunk_GaplessSequence(t *testing.T) {
	text := strings.Repeat("Short sentence. ", 200)

	fragments, err := Chunk(text, 300, 50)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	for i := 1; i < len(fragments); i++ {
		prevCoreEnd := fragments[i-1].End
		coreStart := fragments[i].Start + fragments[i].OverlapLen
		if coreStart != prevCoreEnd {
			t.Errorf("gap between fragments %d and %d: core start %d, previous end %d",
				i-1, i, coreStart, prevCoreEnd)
		}
	}
}
