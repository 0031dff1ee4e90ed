package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/storefront-console/storefront/internal/content"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/ui/components"
)

var errAborted = errors.New("aborted")

// printProducts writes a borderless product table.
func printProducts(w io.Writer, products []interfaces.Product) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Category", "Price", "Rating"})

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, p := range products {
		table.Append([]string{
			strconv.Itoa(p.ID),
			p.Title,
			p.Category,
			components.Price(p.Price),
			fmt.Sprintf("%.1f (%d)", p.Rating.Rate, p.Rating.Count),
		})
	}
	table.Render()
}

// printPairs writes a key: value table.
func printPairs(w io.Writer, pairs [][2]string) {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(":")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
}

// highlighterFor colours output only when w is a terminal.
func highlighterFor(w io.Writer, theme interfaces.Theme) *content.Highlighter {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return content.ForTheme(theme)
	}
	return content.NewHighlighter(theme.Syntax, content.FormatterPlain)
}

func promptInput(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("required")
			}
			return nil
		},
	}
	result, err := prompt.Run()
	return result, wrapPromptError(err)
}

func promptPassword(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	result, err := prompt.Run()
	return result, wrapPromptError(err)
}

func wrapPromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrEOF) {
		return errAborted
	}
	return err
}
