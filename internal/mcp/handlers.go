package mcp

import (
	"context"
	"fmt"
	"math"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/demes-dev/demes-go/internal/constants"
	"github.com/demes-dev/demes-go/internal/forward"
	"github.com/demes-dev/demes-go/internal/loader"
	"github.com/demes-dev/demes-go/internal/model"
)

// formatTime renders a backwards time, using "inf" for infinite starts.
func formatTime(t float64) string {
	if math.IsInf(t, 1) {
		return "inf"
	}
	return fmt.Sprintf("%g", t)
}

// loadModel resolves a ModelInput into a validated graph.
func loadModel(in ModelInput) (*model.Graph, error) {
	switch {
	case in.Model != "" && in.Path != "":
		return nil, fmt.Errorf("provide either model text or a path, not both")
	case in.Path != "":
		return loader.Load(in.Path)
	case in.Model != "":
		return loader.Loads(in.Model)
	default:
		return nil, fmt.Errorf("a model text or path is required")
	}
}

func (s *Server) handleValidate(ctx context.Context, req *sdk.CallToolRequest, args ValidateInput) (*sdk.CallToolResult, ValidateOutput, error) {
	g, err := loadModel(args.ModelInput)
	if err != nil {
		// An invalid model is a normal tool result, not a tool failure.
		return nil, ValidateOutput{
			Valid:   false,
			Error:   err.Error(),
			Message: "model is invalid",
		}, nil
	}

	return nil, ValidateOutput{
		Valid:   true,
		Demes:   g.NumDemes(),
		Message: fmt.Sprintf("model is valid: %d demes", g.NumDemes()),
	}, nil
}

func (s *Server) handleDescribe(ctx context.Context, req *sdk.CallToolRequest, args DescribeInput) (*sdk.CallToolResult, DescribeOutput, error) {
	g, err := loadModel(args.ModelInput)
	if err != nil {
		return nil, DescribeOutput{}, err
	}

	out := DescribeOutput{
		Description: g.Description(),
		TimeUnits:   g.TimeUnits(),
		Pulses:      g.NumPulses(),
		Migrations:  g.NumMigrations(),
	}
	for i, d := range g.DemeIter() {
		summary := DemeSummary{
			Name:      d.Name(),
			StartTime: formatTime(d.StartTime()),
			EndTime:   formatTime(d.EndTime()),
			Epochs:    d.NumEpochs(),
		}
		ancestry, err := g.Ancestry(i)
		if err != nil {
			return nil, DescribeOutput{}, err
		}
		for anc := range ancestry {
			summary.Ancestors = append(summary.Ancestors, anc.Name())
		}
		out.Demes = append(out.Demes, summary)
	}
	return nil, out, nil
}

func (s *Server) handleSize(ctx context.Context, req *sdk.CallToolRequest, args SizeInput) (*sdk.CallToolResult, SizeOutput, error) {
	g, err := loadModel(args.ModelInput)
	if err != nil {
		return nil, SizeOutput{}, err
	}

	d, err := g.DemeByName(args.Deme)
	if err != nil {
		return nil, SizeOutput{}, err
	}
	size, err := d.SizeAt(args.Time)
	if err != nil {
		return nil, SizeOutput{}, err
	}
	return nil, SizeOutput{Deme: args.Deme, Time: args.Time, Size: size}, nil
}

func (s *Server) handleForward(ctx context.Context, req *sdk.CallToolRequest, args ForwardInput) (*sdk.CallToolResult, ForwardOutput, error) {
	g, err := loadModel(args.ModelInput)
	if err != nil {
		return nil, ForwardOutput{}, err
	}

	burnin := args.Burnin
	if burnin == 0 {
		burnin = constants.DefaultBurnin
	}
	f, err := forward.New(g, burnin)
	if err != nil {
		return nil, ForwardOutput{}, err
	}

	out := ForwardOutput{EndTime: f.ModelEndTime()}
	for _, d := range f.Model().DemeIter() {
		out.DemeNames = append(out.DemeNames, d.Name())
	}

	if err := f.BeginTimeIteration(); err != nil {
		return nil, ForwardOutput{}, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, ForwardOutput{}, err
		}
		t, ok, err := f.NextTime()
		if err != nil {
			return nil, ForwardOutput{}, err
		}
		if !ok {
			break
		}
		if err := f.UpdateState(t); err != nil {
			return nil, ForwardOutput{}, err
		}
		sizes, err := f.ParentalDemeSizes()
		if err != nil {
			return nil, ForwardOutput{}, err
		}
		out.FinalSizes = sizes
		out.Steps++
	}
	return nil, out, nil
}
