package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CLIEngine shells out to the tesseract binary, reading the image from stdin
// and the text from stdout. It needs no cgo.
type CLIEngine struct {
	Binary   string // default "tesseract"
	Language string // default DefaultLanguage
}

// Available reports whether the binary is on PATH.
func (e *CLIEngine) Available() bool {
	_, err := exec.LookPath(e.binary())
	return err == nil
}

func (e *CLIEngine) binary() string {
	if e.Binary == "" {
		return "tesseract"
	}
	return e.Binary
}

func (e *CLIEngine) args() []string {
	lang := e.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	return []string{"stdin", "stdout", "-l", lang, "--psm", strconv.Itoa(PageSegModeSingleBlock)}
}

// Recognize implements Engine.
func (e *CLIEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary(), e.args()...)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return stdout.String(), nil
}
