package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/genesisgym/environment/chase"
	"github.com/samuelfneumann/genesisgym/experiment"
	"github.com/samuelfneumann/genesisgym/experiment/savers"
	"github.com/samuelfneumann/genesisgym/internal/log"
	ts "github.com/samuelfneumann/genesisgym/timestep"
	"github.com/samuelfneumann/genesisgym/utils/progressbar"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		steps  uint
		policy string
		save   string
		record string
		fps    int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a policy in the environment and report episode returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.loadConfig()
			if err != nil {
				return err
			}
			env, _, err := c.CreateChase(flags.seed)
			if err != nil {
				return err
			}

			var p experiment.Policy
			switch policy {
			case "pursuit":
				p = chase.NewPursuitPolicy()
			case "random":
				p = experiment.NewRandomPolicy(env.ActionSpec(), flags.seed)
			default:
				return fmt.Errorf("unknown policy %q, want pursuit or random",
					policy)
			}

			returns := savers.NewReturn(filepath.Join(save, "returns.bin"))
			lengths := savers.NewEpisodeLength(filepath.Join(save,
				"lengths.bin"))
			outcomes := savers.NewOutcomes(filepath.Join(save, "outcomes.bin"))
			exp := experiment.NewOnline(env, p, steps, returns, lengths,
				outcomes)

			bar := progressbar.NewManualProgressBar(cmd.ErrOrStderr(), 40,
				int(steps))
			exp.OnStep(func(t ts.TimeStep) error {
				bar.Set(int(exp.Steps()))
				if exp.Steps()%100 == 0 {
					bar.Display()
				}
				return nil
			})

			cam := env.Scenario().Camera()
			if record != "" {
				cam.StartRecording()
				exp.OnStep(func(ts.TimeStep) error {
					_, err := env.Render()
					return err
				})
			}

			if err := exp.Run(); err != nil {
				return err
			}
			bar.Display()
			bar.Close()

			if record != "" {
				if err := cam.StopRecording(record, fps); err != nil {
					return err
				}
			}
			if save != "" {
				if err := os.MkdirAll(save, 0o755); err != nil {
					return err
				}
				if err := exp.Save(); err != nil {
					return err
				}
			}

			logger := log.Provide()
			for i, r := range returns.Returns() {
				logger.Info("episode",
					log.Int("episode", i),
					log.Float64("return", r),
					log.Int("length", lengths.Lengths()[i]))
			}
			logger.Info("run finished",
				log.Int("episodes", len(returns.Returns())),
				log.Int("captured", outcomes.Count(ts.TerminalStateReached)),
				log.Int("out_of_bounds", outcomes.Count(ts.OutOfBounds)),
				log.Int("timeouts", outcomes.Count(ts.Timeout)))
			return nil
		},
	}

	cmd.Flags().UintVarP(&steps, "steps", "n", 5000, "total steps to run")
	cmd.Flags().StringVarP(&policy, "policy", "p", "pursuit",
		"policy to run: pursuit or random")
	cmd.Flags().StringVar(&save, "save", "",
		"directory to save returns, episode lengths and outcomes to")
	cmd.Flags().StringVar(&record, "record", "",
		"directory to record the chase camera to")
	cmd.Flags().IntVar(&fps, "fps", 60, "frame rate of the recording")
	return cmd
}
