// Command xor trains and runs a small network on the XOR function.  It is
// mostly a worked example of driving the graph package from an embedding
// training loop.
//
// To train: `go run ./cmd/xor train --output-weight-file=xor.npy`
//
// To infer: `go run ./cmd/xor infer --weights=xor.npy`
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/google/subcommands"

	"github.com/ahmedtd/netgraph/act"
	"github.com/ahmedtd/netgraph/graph"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&TrainCommand{}, "")
	subcommands.Register(&InferCommand{}, "")
	subcommands.Register(&DescribeCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// buildNet assembles the 2-4-1 sigmoid network used by all subcommands.
func buildNet() (*graph.Structure, error) {
	b := graph.NewBuilder()
	in := b.AddInputs(2)

	w1 := b.AddBaseWeights(2, 4)
	b1 := b.AddBaseWeights(1, 4)
	hidden, err := b.StandardLayer([]graph.Parent{{Layer: in, Weights: w1}, {Layer: b.Bias(), Weights: b1}}, act.Sigmoid)
	if err != nil {
		return nil, fmt.Errorf("while building hidden layer: %w", err)
	}

	w2 := b.AddBaseWeights(4, 1)
	b2 := b.AddBaseWeights(1, 1)
	out, err := b.StandardLayer([]graph.Parent{{Layer: hidden, Weights: w2}, {Layer: b.Bias(), Weights: b2}}, act.Sigmoid)
	if err != nil {
		return nil, fmt.Errorf("while building output layer: %w", err)
	}

	b.AddOutputs(out)
	return b.Finalize(), nil
}

var xorSamples = []struct {
	in     []float64
	target float64
}{
	{[]float64{0, 0}, 0},
	{[]float64{0, 1}, 1},
	{[]float64{1, 0}, 1},
	{[]float64{1, 1}, 0},
}

type TrainCommand struct {
	outputWeightFile string
	steps            int
	learningRate     float64
	seed             int64
}

var _ subcommands.Command = (*TrainCommand)(nil)

func (*TrainCommand) Name() string {
	return "train"
}

func (*TrainCommand) Synopsis() string {
	return "Train the XOR network"
}

func (*TrainCommand) Usage() string {
	return ``
}

func (c *TrainCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputWeightFile, "output-weight-file", "xor.npy", "Path to save trained weights (npy format)")
	f.IntVar(&c.steps, "steps", 20000, "Number of full-batch gradient descent steps")
	f.Float64Var(&c.learningRate, "learning-rate", 0.5, "Gradient descent learning rate")
	f.Int64Var(&c.seed, "seed", 12345, "Seed for weight initialization")
}

func (c *TrainCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *TrainCommand) executeErr(ctx context.Context) error {
	st, err := buildNet()
	if err != nil {
		return err
	}

	r := rand.New(rand.NewSource(c.seed))
	params := make(graph.Buffer, st.WeightCount())
	for i := range params {
		params[i] = r.NormFloat64() * 0.5
	}

	for step := 0; step < c.steps; step++ {
		grads := make([]graph.Buffer, 0, len(xorSamples))
		loss := 0.0

		for _, s := range xorSamples {
			res, err := st.Evaluate(params, s.in, nil)
			if err != nil {
				return fmt.Errorf("while evaluating: %w", err)
			}

			diff := res.Value(0) - s.target
			loss += diff * diff / 2

			grad, _ := res.Backpropagate([]float64{diff})
			grads = append(grads, grad)
		}

		params = graph.ApplyDelta(-c.learningRate, params, graph.Combine(grads...))

		if step%2000 == 0 {
			log.Printf("step %d loss=%f", step, loss)
		}
	}

	f, err := os.Create(c.outputWeightFile)
	if err != nil {
		return fmt.Errorf("while creating weight file: %w", err)
	}
	defer f.Close()
	if err := graph.WriteNPY(f, params); err != nil {
		return fmt.Errorf("while writing weight file: %w", err)
	}

	log.Printf("wrote %d weights to %s", len(params), c.outputWeightFile)
	return nil
}

type InferCommand struct {
	weightFile string
}

var _ subcommands.Command = (*InferCommand)(nil)

func (*InferCommand) Name() string {
	return "infer"
}

func (*InferCommand) Synopsis() string {
	return "Evaluate the XOR network on all four inputs"
}

func (*InferCommand) Usage() string {
	return ``
}

func (c *InferCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weightFile, "weights", "xor.npy", "Path to trained weights (npy format)")
}

func (c *InferCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *InferCommand) executeErr(ctx context.Context) error {
	st, err := buildNet()
	if err != nil {
		return err
	}

	f, err := os.Open(c.weightFile)
	if err != nil {
		return fmt.Errorf("while opening weight file: %w", err)
	}
	defer f.Close()

	params, err := graph.ReadNPY(f)
	if err != nil {
		return fmt.Errorf("while reading weight file: %w", err)
	}

	for _, s := range xorSamples {
		res, err := st.Evaluate(params, s.in, nil)
		if err != nil {
			return fmt.Errorf("while evaluating: %w", err)
		}
		fmt.Printf("xor(%v, %v) = %f (truth %v)\n", s.in[0], s.in[1], res.Value(0), s.target)
	}

	return nil
}

type DescribeCommand struct {
	weightFile string
}

var _ subcommands.Command = (*DescribeCommand)(nil)

func (*DescribeCommand) Name() string {
	return "describe"
}

func (*DescribeCommand) Synopsis() string {
	return "Print the network structure and optionally its weights"
}

func (*DescribeCommand) Usage() string {
	return ``
}

func (c *DescribeCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weightFile, "weights", "", "Optional path to weights to render (npy format)")
}

func (c *DescribeCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *DescribeCommand) executeErr(ctx context.Context) error {
	st, err := buildNet()
	if err != nil {
		return err
	}

	fmt.Print(st.String())

	if c.weightFile != "" {
		f, err := os.Open(c.weightFile)
		if err != nil {
			return fmt.Errorf("while opening weight file: %w", err)
		}
		defer f.Close()

		params, err := graph.ReadNPY(f)
		if err != nil {
			return fmt.Errorf("while reading weight file: %w", err)
		}
		fmt.Printf("weights: %v\n", params)
	}

	return nil
}
