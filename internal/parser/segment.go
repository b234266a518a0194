package parser

import "strings"

// SegmentBlocks partitions the document into contiguous per-issue blocks.
// Each block runs from its boundary line (inclusive) to the next boundary
// line (exclusive); the final block extends to end-of-document. Zero
// boundaries produce zero blocks. Boundaries must already be sorted by line
// index, which ScanBoundaries guarantees.
func SegmentBlocks(text string, boundaries []Boundary) []Block {
	if len(boundaries) == 0 {
		return nil
	}

	lines := splitLines(text)

	blocks := make([]Block, 0, len(boundaries))
	for i, boundary := range boundaries {
		start := boundary.Line
		end := len(lines)
		if i < len(boundaries)-1 {
			end = boundaries[i+1].Line
		}
		if start < 0 || start >= len(lines) || start > end {
			continue
		}

		blocks = append(blocks, Block{
			Date: boundary.Date,
			Text: strings.Join(lines[start:end], "\n"),
		})
	}

	return blocks
}
