package main

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/doctext/analysis"
	"github.com/hazyhaar/doctext/kit"
)

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(deps *Dependencies) error {
	if deps.Analyzer == nil {
		return errors.New("no language model configured")
	}

	ctx := kit.WithTransport(deps.Ctx, "cli")
	res, err := extractOne(ctx, deps, c.File, c.MediaType)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(deps.Stderr, "%s: warning: %s\n", c.File, w)
	}
	if !res.OK() {
		return fmt.Errorf("%s: %s", c.File, res.Failure.Reason)
	}

	var out string
	if c.Question != "" {
		out, err = deps.Analyzer.Ask(ctx, res.Text, c.Question)
	} else {
		mode, perr := analysis.ParseMode(c.Mode)
		if perr != nil {
			return perr
		}
		out, err = deps.Analyzer.Analyze(ctx, mode, res.Text)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}

	fmt.Fprintln(deps.Stdout, out)
	return nil
}
