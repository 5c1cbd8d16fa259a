package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/weft-dev/weft/pkg/weft"
)

func benchCmd() *cobra.Command {
	var (
		iters   int
		widths  []int
		heights []int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark update propagation",
		Long: `Benchmark propagation latency through signal/memo/effect grids.

Each grid is one source signal feeding w independent chains of h memos,
each chain terminated by an effect. The benchmark measures the wall
time of a single source write, which includes recomputing every memo
and re-running every effect.`,
		Run: func(cmd *cobra.Command, args []string) {
			runBench(iters, widths, heights)
		},
	}

	cmd.Flags().IntVarP(&iters, "iterations", "n", 500, "Writes per grid")
	cmd.Flags().IntSliceVarP(&widths, "widths", "w", []int{1, 10, 100}, "Chain counts to benchmark")
	cmd.Flags().IntSliceVarP(&heights, "heights", "H", []int{1, 10, 100}, "Chain depths to benchmark")

	return cmd
}

func runBench(iters int, widths, heights []int) {
	tbl := table.NewWriter()
	tbl.SetTitle("Weft Signals")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	before := weft.Snapshot()

	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			root := weft.NewRoot()
			var src *weft.Signal[int]

			root.With(func() {
				src = weft.NewSignal(1)
				for i := 0; i < w; i++ {
					last := func() int { return src.Get() }
					for j := 0; j < h; j++ {
						prev := last
						m := weft.NewMemo(func() int {
							return prev() + 1
						})
						last = m.Get
					}
					sink := last
					weft.NewEffect(func() weft.Cleanup {
						sink()
						return nil
					})
				}
			})

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.Peek() + 1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})

			root.Dispose()
		}
	}

	tbl.Render()

	after := weft.Snapshot()
	fmt.Printf("\n  memo recomputes: %s\n",
		humanize.Comma(after.MemoRecomputes-before.MemoRecomputes))
	fmt.Printf("  effect runs:     %s\n",
		humanize.Comma(after.EffectRuns-before.EffectRuns))
}
