package loader

import (
	"html"
	"regexp"
	"strings"
)

// renderMarkdown is a minimal block-level Markdown renderer: headings,
// paragraphs, fenced code blocks, unordered/ordered lists, and inline
// emphasis/code/links. It walks the document one block at a time,
// mirroring the node-by-node DOM traversal idiom of the corpus's
// html-to-markdown tooling, applied in the opposite direction.
func renderMarkdown(body string) string {
	lines := strings.Split(body, "\n")

	var out strings.Builder
	var paragraph []string
	var list []string
	listOrdered := false
	inCode := false
	var codeLines []string

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		out.WriteString("<p>")
		out.WriteString(renderInline(strings.Join(paragraph, " ")))
		out.WriteString("</p>\n")
		paragraph = nil
	}
	flushList := func() {
		if len(list) == 0 {
			return
		}
		tag := "ul"
		if listOrdered {
			tag = "ol"
		}
		out.WriteString("<" + tag + ">\n")
		for _, item := range list {
			out.WriteString("<li>")
			out.WriteString(renderInline(item))
			out.WriteString("</li>\n")
		}
		out.WriteString("</" + tag + ">\n")
		list = nil
	}

	headingRe := regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	unorderedRe := regexp.MustCompile(`^[-*]\s+(.*)$`)
	orderedRe := regexp.MustCompile(`^\d+\.\s+(.*)$`)

	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")

		if strings.HasPrefix(strings.TrimSpace(trimmed), "```") {
			if inCode {
				out.WriteString("<pre><code>")
				out.WriteString(html.EscapeString(strings.Join(codeLines, "\n")))
				out.WriteString("</code></pre>\n")
				codeLines = nil
				inCode = false
			} else {
				flushParagraph()
				flushList()
				inCode = true
			}
			continue
		}
		if inCode {
			codeLines = append(codeLines, trimmed)
			continue
		}

		if strings.TrimSpace(trimmed) == "" {
			flushParagraph()
			flushList()
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			flushList()
			level := len(m[1])
			out.WriteString("<h" + itoaSmall(level) + ">")
			out.WriteString(renderInline(m[2]))
			out.WriteString("</h" + itoaSmall(level) + ">\n")
			continue
		}

		if m := unorderedRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			if listOrdered {
				flushList()
			}
			listOrdered = false
			list = append(list, m[1])
			continue
		}
		if m := orderedRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			if !listOrdered && len(list) > 0 {
				flushList()
			}
			listOrdered = true
			list = append(list, m[1])
			continue
		}

		flushList()
		paragraph = append(paragraph, trimmed)
	}

	flushParagraph()
	flushList()
	if inCode {
		out.WriteString("<pre><code>")
		out.WriteString(html.EscapeString(strings.Join(codeLines, "\n")))
		out.WriteString("</code></pre>\n")
	}

	return out.String()
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`(.+?)`")
	linkRe   = regexp.MustCompile(`\[(.+?)\]\((.+?)\)`)
)

func renderInline(text string) string {
	escaped := html.EscapeString(text)
	escaped = linkRe.ReplaceAllString(escaped, `<a href="$2">$1</a>`)
	escaped = boldRe.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = italicRe.ReplaceAllString(escaped, "<em>$1</em>")
	escaped = codeRe.ReplaceAllString(escaped, "<code>$1</code>")
	return escaped
}

func itoaSmall(n int) string {
	return string(rune('0' + n))
}
