// Package report renders batch results for terminals.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/RogueTeam/volley/transfers"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const AmountPlaces = 4

func milliseconds(d time.Duration) (ms string) {
	return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
}

// Table writes a box drawn table with one row per result
func Table(w io.Writer, results []transfers.Result) (err error) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	tw.AppendHeader(table.Row{"Signature", "Sender", "Receiver", "Time (ms)", "Status", "Amount"})
	for _, result := range results {
		status := string(result.Status)
		if result.Error != "" {
			status = fmt.Sprintf("%s (%s)", result.Status, result.Error)
		}

		tw.AppendRow(table.Row{
			result.Id.String(),
			result.Source,
			result.Destination,
			milliseconds(result.ExecutionTime),
			status,
			result.Amount.StringFixed(AmountPlaces),
		})
	}

	_, err = fmt.Fprintln(w, tw.Render())
	if err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// Average execution time of the results. Zero for empty batches
func Average(batch transfers.Batch) (average time.Duration) {
	if len(batch.Results) == 0 {
		return 0
	}
	return batch.TotalExecutionTime / time.Duration(len(batch.Results))
}

// Statistics writes the batch totals
func Statistics(w io.Writer, batch transfers.Batch) (err error) {
	_, err = fmt.Fprintf(w,
		"Batch: %s\nTotal transfers: %d\nSuccessful transfers: %d\nDropped requests: %d\nAverage execution time: %s ms\n",
		batch.Id,
		len(batch.Results),
		batch.Successful,
		batch.Dropped,
		milliseconds(Average(batch)),
	)
	if err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}
