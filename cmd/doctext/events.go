package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/doctext/observability"
)

// Run executes the events command.
func (c *EventsCmd) Run(deps *Dependencies) error {
	since, err := time.ParseDuration(c.Since)
	if err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}

	if c.Cleanup {
		n, err := observability.Cleanup(deps.Ctx, deps.EventsDB, observability.RetentionConfig{
			EventDays: deps.Config.EventRetentionDays,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Stderr, "deleted %d events\n", n)
	}

	outcomes, err := observability.Summary(deps.Ctx, deps.EventsDB, time.Now().Add(-since))
	if err != nil {
		return err
	}
	events, err := observability.Recent(deps.Ctx, deps.EventsDB, c.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "MEDIA\tOUTCOME\tCOUNT\tOCR PAGES\n")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", o.MediaType, outcome(string(o.Failure)), o.Count, o.OCRPages)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "TIME\tNAME\tMEDIA\tTIER\tOUTCOME\tCHARS\tDURATION\n")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.CreatedAt.Format(time.DateTime), e.Name, e.MediaType, e.Tier,
			outcome(string(e.Failure)), e.Chars, e.Duration)
	}
	return tw.Flush()
}

func outcome(failure string) string {
	if failure == "" {
		return "ok"
	}
	return failure
}
