package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/youzoom64/RTMP-streamer/pkg/animator"
	"github.com/youzoom64/RTMP-streamer/pkg/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame render loop",
	Long: `Seed the output directory and render frames at a fixed rate until
interrupted. The input pattern of every stream is printed so an encoder
can be pointed at it, e.g.:

  ffmpeg -re -stream_loop -1 -framerate 30 -start_number 0 -i <pattern> ...

--speak plays a 16-bit PCM WAV file through the mouth sync, paced to the
audio clock; --audio-out records that audio in step with the frames so the
encoder can mux it. --cues plays a YAML or JSON cue script of timed
expression changes:

  loop: true
  length: 6s
  cues:
    - {at: 0s, eyes: にっこり}
    - {at: 3s, eyes: 普通目, mouth: ほあ}

Example:
  streamer run
  streamer run -p stage --mode layered --duration 1m --status
  streamer run --speak hello.wav --audio-out speech.wav --cues cues.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	duration, _ := flags.GetDuration("duration")
	speakFile, _ := flags.GetString("speak")
	audioOut, _ := flags.GetString("audio-out")
	cueFile, _ := flags.GetString("cues")
	status, _ := flags.GetDuration("status")

	ac, err := getAnimatorConfig()
	if err != nil {
		return err
	}
	if flags.Changed("fps") {
		ac.FPS, _ = flags.GetInt("fps")
	}
	if flags.Changed("mode") {
		name, _ := flags.GetString("mode")
		if ac.Mode, err = animator.ParseMode(name); err != nil {
			return err
		}
	}
	if flags.Changed("cache-dir") {
		ac.CacheDir, _ = flags.GetString("cache-dir")
	}

	var script animator.Script
	if cueFile != "" {
		if err := cli.LoadFile(cueFile, &script); err != nil {
			return fmt.Errorf("cues: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	var opts []animator.Option
	if audioOut != "" {
		tap, err := createWAVTap(audioOut)
		if err != nil {
			return err
		}
		defer func() {
			if err := tap.Close(); err != nil {
				cli.PrintWarning("audio out: %v", err)
			}
		}()
		opts = append(opts, animator.WithAudioOutput(tap))
	}

	a, err := animator.New(ac, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}
	patterns := a.Pattern()
	for _, name := range sortedKeys(patterns) {
		cli.PrintInfo("%s: %s", name, patterns[name])
	}

	g, gctx := errgroup.WithContext(ctx)
	if speakFile != "" {
		g.Go(func() error {
			f, err := os.Open(speakFile)
			if err != nil {
				return err
			}
			defer f.Close()
			return a.Speak(gctx, f)
		})
	}
	if len(script.Cues) > 0 {
		g.Go(func() error { return a.Play(gctx, script) })
	}
	if status > 0 {
		g.Go(func() error { return printStatus(gctx, a, status) })
	}

	<-gctx.Done()
	stopErr := a.Stop(0)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if stopErr != nil {
		return stopErr
	}

	if outputJSON || outputFile != "" {
		return outputResult(a.Stats())
	}
	s := a.Stats()
	cli.PrintSuccess("stopped after %s frames (%s overruns)", cli.FormatCount(s.Frames), cli.FormatCount(s.Overruns))
	return nil
}

func printStatus(ctx context.Context, a *animator.Animator, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		s := a.Stats()
		snap := a.State().Snapshot()
		fmt.Fprintln(os.Stderr, cli.Panel{
			Styles: cli.DefaultStyles,
			Title:  "streamer",
			Status: s.Phase,
			Rows: []cli.Row{
				{Label: "session", Value: s.Session},
				{Label: "frames", Value: cli.FormatCount(s.Frames)},
				{Label: "overruns", Value: cli.FormatCount(s.Overruns)},
				{Label: "last frame", Value: cli.FormatAgo(s.LastFrame)},
				{Label: "expression", Value: fmt.Sprintf("%s / %s talking=%t", snap.Mouth, snap.Eyes, snap.Talking)},
				{Label: "cache", Value: fmt.Sprintf("%s hits, %s misses", cli.FormatCount(s.CacheHits), cli.FormatCount(s.CacheMiss))},
				{Label: "warnings", Value: fmt.Sprint(s.Warnings)},
			},
			Help: "ctrl-c to stop",
		}.Render(64))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func init() {
	f := runCmd.Flags()
	f.Duration("duration", 0, "stop after this long (default: until interrupted)")
	f.String("speak", "", "WAV file to lip-sync")
	f.String("audio-out", "", "write the spoken audio to this WAV file")
	f.String("cues", "", "cue script file (YAML or JSON, - for stdin)")
	f.Duration("status", 0, "print a status panel at this interval")
	f.Int("fps", animator.DefaultFPS, "frame rate")
	f.String("mode", "full", "stream mode: full or layered")
	f.String("cache-dir", "", "persistent encoded-frame cache directory")
}
