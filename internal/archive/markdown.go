package archive

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/at-ishikawa/revise/internal/store"
)

// Markdown renders doc as a markdown document, one section per group.
func Markdown(doc *Document) []byte {
	var buf bytes.Buffer
	title := "Items"
	if doc.Kind == store.KindCard {
		title = "Cards"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "Exported at %s\n\n", doc.ExportedAt.Format("2006-01-02 15:04 MST"))

	var groups []string
	byGroup := make(map[string][]Entity)
	for _, entity := range doc.Entities {
		if _, ok := byGroup[entity.Group]; !ok {
			groups = append(groups, entity.Group)
		}
		byGroup[entity.Group] = append(byGroup[entity.Group], entity)
	}

	for _, group := range groups {
		heading := group
		if heading == "" {
			heading = "Ungrouped"
		}
		fmt.Fprintf(&buf, "## %s\n\n", heading)
		for _, entity := range byGroup[group] {
			fmt.Fprintf(&buf, "- **%s**", escapeMarkdown(entity.Description))
			fmt.Fprintf(&buf, " (next review %s, interval %d days, %d reviews)\n",
				entity.NextDue.Format("2006-01-02"), entity.IntervalDays, len(entity.Reviews))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
