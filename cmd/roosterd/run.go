package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/internal/orchestrator"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/spf13/cobra"
)

var (
	runTeamID   string
	runFrom     string
	runTo       string
	runApply    bool
	runProducts []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one orchestration run for a team",
	Long: `Plans the team's enabled products over the given civil-date horizon.
By default the run is a preview; pass --apply to persist the schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBootstrap()
		if err != nil {
			return err
		}
		defer b.close()

		input, err := buildRunInput(b)
		if err != nil {
			return err
		}

		result, err := b.svc.CreateRun(context.Background(), *input)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runTeamID, "team", "", "team id (required)")
	runCmd.Flags().StringVar(&runFrom, "from", "", "horizon start, YYYY-MM-DD (required)")
	runCmd.Flags().StringVar(&runTo, "to", "", "horizon end, YYYY-MM-DD inclusive (required)")
	runCmd.Flags().BoolVar(&runApply, "apply", false, "persist the schedule instead of previewing")
	runCmd.Flags().StringSliceVar(&runProducts, "product", nil, "restrict to specific products")
	runCmd.MarkFlagRequired("team")
	runCmd.MarkFlagRequired("from")
	runCmd.MarkFlagRequired("to")
}

func buildRunInput(b *bootstrap) (*orchestrator.CreateRunInput, error) {
	teamID, err := uuid.Parse(runTeamID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "invalid team id")
	}
	from, err := time.ParseInLocation("2006-01-02", runFrom, b.loc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "--from must be a YYYY-MM-DD date")
	}
	to, err := time.ParseInLocation("2006-01-02", runTo, b.loc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "--to must be a YYYY-MM-DD date")
	}

	mode := model.ModePreview
	if runApply {
		mode = model.ModeApply
	}

	var products []model.Product
	for _, raw := range runProducts {
		p, ok := model.ParseProduct(raw)
		if !ok {
			return nil, apperrors.UnknownProduct(raw)
		}
		products = append(products, p)
	}

	return &orchestrator.CreateRunInput{
		TeamID:       teamID,
		HorizonStart: from,
		HorizonEnd:   to,
		Mode:         mode,
		Products:     products,
	}, nil
}
