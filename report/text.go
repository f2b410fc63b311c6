package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)
	headingStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	envHeadingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle        = lipgloss.NewStyle().Padding(0, 1)
	numberCellStyle  = cellStyle.Align(lipgloss.Right)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true)
)

// EncodeText renders the document for a terminal. Colors are dropped
// automatically when the output is not a TTY.
func EncodeText(doc Document) string {
	blocks := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		blocks = append(blocks, textSection(s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"
}

func textSection(s Section) string {
	var parts []string

	switch s.Kind {
	case SectionHeader:
		parts = append(parts, titleStyle.Render(s.Heading))
	case SectionEnvironmental:
		parts = append(parts, envHeadingStyle.Render(s.Heading))
	case SectionDisclaimer:
		parts = append(parts, mutedStyle.Render(s.Heading+":"))
	default:
		parts = append(parts, headingStyle.Render(s.Heading))
	}

	if s.Table != nil {
		parts = append(parts, textTable(*s.Table))
	}
	for _, p := range s.Paragraphs {
		if s.Kind == SectionDisclaimer {
			p = mutedStyle.Width(80).Render(p)
		}
		parts = append(parts, p)
	}
	for _, n := range s.Notes {
		parts = append(parts, mutedStyle.Render(n))
	}

	return strings.Join(parts, "\n") + "\n"
}

func textTable(t Table) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(t.Columns...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 0:
				return cellStyle
			default:
				return numberCellStyle
			}
		}).
		Render()
}
