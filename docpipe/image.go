package docpipe

import "context"

// extractImage recognizes a standalone image. The text is unannotated.
func (p *Pipeline) extractImage(ctx context.Context, data []byte, res *Result) error {
	if p.ocr == nil {
		return &Failure{Kind: FailureUnavailable, Reason: "no ocr engine configured for image input"}
	}

	rec := p.ocr.Recognize(ctx, data)
	res.Warnings = append(res.Warnings, rec.Warnings...)
	if rec.Failed {
		return &Failure{Kind: FailureDecode, Reason: "image could not be recognized by any ocr tier"}
	}
	if rec.Tier != "" {
		res.Tier = "ocr/" + rec.Tier
	}
	res.Text = rec.Text
	return nil
}
