// Package report turns a recorded run into a short plain-language
// narrative using OpenAI's chat API. The feature is optional: without an
// API key the constructor fails and callers skip narration.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"solarqc/internal/store"
)

// Narrator summarises quality-control runs.
type Narrator struct {
	client openai.Client
	model  string
}

// NewNarrator creates a narrator.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewNarrator() (*Narrator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Narrator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Summarize produces a narrative for one run and its column stats.
func (n *Narrator) Summarize(ctx context.Context, run *store.QCRun, stats []store.ColumnStat) (string, error) {
	prompt := BuildPrompt(run, stats)

	resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: n.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a data quality analyst for solar irradiance measurements. Write a concise summary in two or three short paragraphs, plain prose, no headings."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt renders the run facts the model should narrate. It is a
// pure function so tests can pin the wording.
func BuildPrompt(run *store.QCRun, stats []store.ColumnStat) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset: %s\n", run.Dataset)
	if run.RowsTotal.Valid {
		fmt.Fprintf(&b, "Rows: %d", run.RowsTotal.Int64)
		if run.RowsDropped.Valid && run.RowsDropped.Int64 > 0 {
			fmt.Fprintf(&b, " (%d dropped for unparseable timestamps)", run.RowsDropped.Int64)
		}
		b.WriteString("\n")
	}
	if run.CompletenessBefore.Valid && run.CompletenessAfter.Valid {
		fmt.Fprintf(&b, "Completeness: %.3f before cleaning, %.3f after\n",
			run.CompletenessBefore.Float64, run.CompletenessAfter.Float64)
	}
	if run.OutlierRate.Valid {
		fmt.Fprintf(&b, "Outlier row rate: %.3f\n", run.OutlierRate.Float64)
	}
	if run.NegativesCorrected.Valid {
		fmt.Fprintf(&b, "Negative readings clamped to zero: %d\n", run.NegativesCorrected.Int64)
	}
	if run.CellsImputed.Valid {
		fmt.Fprintf(&b, "Missing cells imputed with column medians: %d\n", run.CellsImputed.Int64)
	}
	if run.QualityScore.Valid {
		fmt.Fprintf(&b, "Quality score: %.3f\n", run.QualityScore.Float64)
	}

	if len(stats) > 0 {
		b.WriteString("\nPer-column detail:\n")
		for _, cs := range stats {
			fmt.Fprintf(&b, "- %s: missing rate %.3f", cs.Column, cs.MissingRate)
			if cs.Mean.Valid {
				fmt.Fprintf(&b, ", mean %.2f, stddev %.2f", cs.Mean.Float64, cs.Stddev.Float64)
			}
			if cs.OutlierFlags > 0 {
				fmt.Fprintf(&b, ", %d outlier flags", cs.OutlierFlags)
			}
			if cs.NegativesCorrected > 0 {
				fmt.Fprintf(&b, ", %d negatives corrected", cs.NegativesCorrected)
			}
			if cs.CellsImputed > 0 {
				fmt.Fprintf(&b, ", %d cells imputed", cs.CellsImputed)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
