package common

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gcstr/buildversions/internal/prompt"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
)

// Confirmer picks how build participants ask questions: --yes answers every
// question with yes, --no-input answers with def, a terminal gets a Bubble
// Tea prompt and anything else is read line by line from stdin.
func Confirmer(cmd *cobra.Command, pr ui.Printer, def bool) prompt.Confirmer {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return prompt.Fixed(true)
	}
	if noInput, _ := cmd.Flags().GetBool("no-input"); noInput {
		return prompt.Fixed(def)
	}
	if canPrompt(cmd) {
		return prompt.Func(func(_ context.Context, q prompt.Question) (bool, error) {
			return ui.ConfirmTTY(cmd.InOrStdin(), cmd.OutOrStdout(), q.Title, q.Message, q.Yes, q.No, def)
		})
	}
	return &lineConfirmer{in: bufio.NewReader(cmd.InOrStdin()), pr: pr, def: def}
}

// lineConfirmer reads y/yes or n/no answers. An empty line or end of input
// selects the default.
type lineConfirmer struct {
	in  *bufio.Reader
	pr  ui.Printer
	def bool
}

func (l *lineConfirmer) Confirm(ctx context.Context, q prompt.Question) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	hint := "[y/N]"
	if l.def {
		hint = "[Y/n]"
	}
	if q.Title != "" {
		l.pr.Plain("%s", ui.SectionTitle(q.Title))
	}
	l.pr.Plain("%s %s", q.Message, hint)

	line, err := l.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return l.def, nil
	}
}
