// Package export renders generated offer text into a Word artifact.
package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/fumiama/go-docx"
)

var numberedItemPattern = regexp.MustCompile(`^\d+\.\s+`)

// RenderDocx builds a .docx from markdown-flavored text. Markdown headings
// and list items get dedicated formatting; anything else degrades to a plain
// paragraph, so arbitrary well-formed text always renders.
func RenderDocx(content, title, reference string) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	heading := doc.AddParagraph().Justification("center")
	heading.AddText(title).Size("36").Bold()

	refPara := doc.AddParagraph().Justification("center")
	refPara.AddText(fmt.Sprintf("Référence: %s", reference)).Size("24").Bold()

	doc.AddParagraph()

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "### "):
			doc.AddParagraph().AddText(strings.TrimPrefix(line, "### ")).Size("26").Bold()
		case strings.HasPrefix(line, "## "):
			doc.AddParagraph().AddText(strings.TrimPrefix(line, "## ")).Size("28").Bold()
		case strings.HasPrefix(line, "# "):
			doc.AddParagraph().AddText(strings.TrimPrefix(line, "# ")).Size("32").Bold()
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			doc.AddParagraph().AddText("• " + line[2:])
		case numberedItemPattern.MatchString(line):
			doc.AddParagraph().AddText("• " + numberedItemPattern.ReplaceAllString(line, ""))
		default:
			doc.AddParagraph().AddText(line)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx failed: %w", err)
	}
	return buf.Bytes(), nil
}
