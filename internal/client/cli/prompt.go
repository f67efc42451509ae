package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// terminalPrompter adapts the terminal input helpers to the reveal
// engine's modal-dialog contract. An empty password line counts as a
// cancelled dialog.
type terminalPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func (p *terminalPrompter) Password(ctx context.Context, prompt string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	pw, err := GetPassword(prompt, p.out)
	if err != nil {
		return "", false, err
	}
	if pw == "" {
		return "", false, nil
	}
	return pw, true, nil
}

func (p *terminalPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	answer, err := GetSimpleText(p.reader, prompt+" [y/N]", p.out)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
