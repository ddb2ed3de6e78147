package diagnostics

import (
	"fmt"
	"strings"
	"time"
)

const (
	waterfallRowHeight = 24
	waterfallBarHeight = 16
	waterfallLabelW    = 220
	waterfallTimelineW = 760
	waterfallPadding   = 10
)

// Waterfall renders one bar per executed node in records, positioned
// by its start offset from the earliest executed node and sized by
// its duration. Skipped (cache-hit) nodes are listed without a bar,
// per spec.md §4.8 "Non-executing tasks are rendered as cached."
func Waterfall(records []Record) string {
	ordered := sorted(records)

	var earliest time.Time
	var latest time.Time
	first := true
	for _, rec := range ordered {
		if rec.Skipped {
			continue
		}
		end := rec.Start.Add(rec.Duration)
		if first {
			earliest, latest = rec.Start, end
			first = false
			continue
		}
		if rec.Start.Before(earliest) {
			earliest = rec.Start
		}
		if end.After(latest) {
			latest = end
		}
	}
	total := latest.Sub(earliest)
	if total <= 0 {
		total = time.Millisecond
	}

	var slowest time.Duration
	for _, rec := range ordered {
		if !rec.Skipped && rec.Duration > slowest {
			slowest = rec.Duration
		}
	}

	width := waterfallPadding*2 + waterfallLabelW + waterfallTimelineW
	height := waterfallPadding*2 + len(ordered)*waterfallRowHeight

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="monospace" font-size="11">`+"\n", width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#1e1e1e"/>`+"\n", width, height)

	for i, rec := range ordered {
		y := waterfallPadding + i*waterfallRowHeight
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="#eeeeee">%s</text>`+"\n",
			waterfallPadding, y+waterfallBarHeight-4, escapeSVGText(rec.Name))

		if rec.Skipped {
			fmt.Fprintf(&b, `<text x="%d" y="%d" fill="%s">cached</text>`+"\n",
				waterfallPadding+waterfallLabelW, y+waterfallBarHeight-4, colourCached)
			continue
		}

		offset := rec.Start.Sub(earliest)
		x := waterfallPadding + waterfallLabelW + int(float64(offset)/float64(total)*float64(waterfallTimelineW))
		w := int(float64(rec.Duration) / float64(total) * float64(waterfallTimelineW))
		if w < 1 {
			w = 1
		}
		colour := gradeColour(rec, slowest)
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
			x, y, w, waterfallBarHeight, colour)
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="#eeeeee">%s</text>`+"\n",
			x+w+4, y+waterfallBarHeight-4, rec.Duration)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func escapeSVGText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
