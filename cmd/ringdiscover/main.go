// Command ringdiscover runs the discovery protocol against a simulated
// in-process ring and prints each rank's resulting RemoteMap, for manual
// inspection and as a worked example of wiring a RemoteMap end to end.
package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/dune-go/remoteindex/demo"
	"github.com/dune-go/remoteindex/index"
	"github.com/dune-go/remoteindex/remotemap"
	"github.com/dune-go/remoteindex/tracer/govector"
)

func main() {
	app := &cli.App{
		Name:  "ringdiscover",
		Usage: "run one remote index discovery pass over a simulated ring",
		Commands: []*cli.Command{
			runCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "build a ring of simulated ranks from flags or a fixture file, and rebuild their RemoteMaps",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ranks", Value: 4, Usage: "number of simulated ranks"},
			&cli.IntFlag{Name: "span", Value: 6, Usage: "labels published per rank"},
			&cli.IntFlag{Name: "overlap", Value: 2, Usage: "labels shared with the next rank"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "seed for the per-label attribute assignment"},
			&cli.BoolFlag{Name: "ignore-public", Value: false, Usage: "treat every local index as published"},
			&cli.StringFlag{Name: "fixture", Usage: "path to a fixture file of \"rank label attribute public\" lines, overriding --ranks/--span/--overlap/--seed"},
			&cli.BoolFlag{Name: "trace", Value: false, Usage: "attach a GoVector tracer per rank, writing ringdiscover-rank-N.log"},
		},
		Action: func(c *cli.Context) error {
			var sets []index.Set
			var err error
			if fixture := c.String("fixture"); fixture != "" {
				sets, err = loadFixture(fixture)
			} else {
				sets, err = generateScenario(c.Int("ranks"), c.Int("span"), c.Int("overlap"), c.Int64("seed"))
			}
			if err != nil {
				return err
			}
			return runDemo(sets, c.Bool("ignore-public"), c.Bool("trace"))
		},
	}
}

// generateScenario builds n sets whose consecutive ranks share `overlap`
// labels, with each label's attribute drawn from a seeded PRNG so a run is
// reproducible from --seed alone.
func generateScenario(n, span, overlap int, seed int64) ([]index.Set, error) {
	if overlap >= span {
		return nil, fmt.Errorf("ringdiscover: overlap (%d) must be smaller than span (%d)", overlap, span)
	}

	rng := rand.New(rand.NewSource(seed))
	sets := make([]index.Set, n)
	for rank := 0; rank < n; rank++ {
		start := rank * (span - overlap)
		pairs := make([]index.Pair, span)
		for i := 0; i < span; i++ {
			label := fmt.Sprintf("label-%d", start+i)
			pairs[i] = index.Pair{
				Global: demo.HashLabel(label) % 1_000_000,
				Tag: index.LocalTag{
					LocalIndex: uint32(i),
					Attribute:  index.Attribute(rng.Intn(256)),
					IsPublic:   true,
				},
			}
		}
		sets[rank] = buildSortedSet(pairs)
	}
	return sets, nil
}

// loadFixture reads a fixture file of whitespace-separated
// "rank label attribute public" lines (blank lines and lines starting with
// "#" are skipped) and returns one index.Set per rank, ranks numbered
// 0..maxRank contiguously. A rank below the highest named rank that has no
// lines in the file gets an empty set.
func loadFixture(path string) ([]index.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ringdiscover: open fixture: %w", err)
	}
	defer f.Close()

	byRank := make(map[int][]index.Pair)
	maxRank := -1

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("ringdiscover: fixture line %d: want 4 fields, got %d", lineNo, len(fields))
		}

		rank, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("ringdiscover: fixture line %d: bad rank: %w", lineNo, err)
		}
		label := fields[1]
		attribute, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("ringdiscover: fixture line %d: bad attribute: %w", lineNo, err)
		}
		public, err := strconv.ParseBool(fields[3])
		if err != nil {
			return nil, fmt.Errorf("ringdiscover: fixture line %d: bad public flag: %w", lineNo, err)
		}

		pair := index.Pair{
			Global: demo.HashLabel(label) % 1_000_000,
			Tag: index.LocalTag{
				LocalIndex: uint32(len(byRank[rank])),
				Attribute:  index.Attribute(attribute),
				IsPublic:   public,
			},
		}
		byRank[rank] = append(byRank[rank], pair)
		if rank > maxRank {
			maxRank = rank
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ringdiscover: read fixture: %w", err)
	}
	if maxRank < 0 {
		return nil, fmt.Errorf("ringdiscover: fixture %s named no ranks", path)
	}

	sets := make([]index.Set, maxRank+1)
	for rank := 0; rank <= maxRank; rank++ {
		sets[rank] = buildSortedSet(byRank[rank])
	}
	return sets, nil
}

// runDemo rebuilds every rank's RemoteMap concurrently and dumps the
// result. When trace is set, each rank gets its own GoVector tracer
// logging to ringdiscover-rank-N.log.
func runDemo(sets []index.Set, ignorePublic, trace bool) error {
	n := len(sets)
	comms := demo.BuildRing(n)

	maps := make([]*remotemap.RemoteMap, n)
	for rank := 0; rank < n; rank++ {
		opts := []remotemap.Option{}
		if trace {
			t := govector.New(fmt.Sprintf("ringdiscover-rank-%d", rank), fmt.Sprintf("ringdiscover-rank-%d.log", rank))
			opts = append(opts, remotemap.WithTracer(t))
		}
		maps[rank] = remotemap.New(sets[rank], sets[rank], comms[rank], opts...)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for rank := 0; rank < n; rank++ {
		rank := rank
		go func() {
			defer wg.Done()
			errs[rank] = maps[rank].Rebuild(context.Background(), ignorePublic)
		}()
	}
	wg.Wait()

	for rank, err := range errs {
		if err != nil {
			return fmt.Errorf("ringdiscover: rank %d: %w", rank, err)
		}
	}

	for rank, m := range maps {
		fmt.Printf("--- rank %d ---\n", rank)
		if err := m.Dump(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

// buildSortedSet sorts pairs by Global before handing them to
// index.NewSortedSet, which requires strictly ascending input, and drops
// duplicate globals (the last one read wins).
func buildSortedSet(pairs []index.Pair) *index.SortedSet {
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Global < pairs[j].Global })

	deduped := pairs[:0]
	var last index.G
	for i, p := range pairs {
		if i > 0 && p.Global == last {
			deduped[len(deduped)-1] = p
			continue
		}
		deduped = append(deduped, p)
		last = p.Global
	}
	return index.NewSortedSet(deduped...)
}
