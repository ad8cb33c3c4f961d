package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/youzoom64/RTMP-streamer/pkg/animator"
	"github.com/youzoom64/RTMP-streamer/pkg/cli"
)

const appName = "streamer"

var (
	// Global flags
	cfgFile     string
	profileName string
	outputFile  string
	outputJSON  bool
	verbose     bool

	// Profile overrides
	assetRoot string
	outputDir string

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "streamer",
	Short: "Layered character animator",
	Long: `streamer - renders a layered PNG character into frame files for a video encoder.

The character is assembled from a directory of layer images (body, outfit,
arms, eyebrows, eyes, mouth). Frames are written at a fixed rate as
numbered PNG files that an encoder such as ffmpeg reads as an image
sequence.

Configuration is stored in ~/.rtmp-streamer/streamer/ and supports multiple
profiles, one per character or output setup.

Examples:
  # Set up a profile
  streamer config add-profile zunda --assets ./zundamon --out-dir /tmp/frames

  # Check how the layers resolve
  streamer compose --mouth ほあ --eyes 普通目

  # Run the render loop and lip-sync a WAV file
  streamer run --speak hello.wav
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.rtmp-streamer/streamer/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&assetRoot, "assets", "", "asset root (overrides the profile)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "out-dir", "", "frame output directory (overrides the profile)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(runCmd)
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getAnimatorConfig returns the animator configuration of the selected
// profile with command line overrides applied. Without any profile the
// --assets flag alone is enough.
func getAnimatorConfig() (animator.Config, error) {
	cfg := getConfig()
	if cfg == nil {
		return animator.Config{}, fmt.Errorf("configuration not initialized")
	}

	var (
		ac   animator.Config
		name = profileName
	)
	p, err := cfg.ResolveProfile(profileName)
	switch {
	case err == nil:
		ac = p.AnimatorConfig(cfg.Dir())
		name = p.Name
	case profileName != "" || assetRoot == "":
		if profileName == "" {
			return ac, fmt.Errorf("no profile specified. Use -p flag, --assets, or set a default profile with 'streamer config use-profile'")
		}
		return ac, err
	}

	if assetRoot != "" {
		ac.AssetRoot = assetRoot
	}
	if outputDir != "" {
		ac.OutputDir = outputDir
	}
	if ac.OutputDir == "" {
		paths, err := cli.NewPaths(appName)
		if err != nil {
			return ac, err
		}
		ac.OutputDir = paths.FramesDir(name)
	}
	return ac, nil
}

// outputResult outputs the result using cli package
func outputResult(result any) error {
	format := cli.FormatYAML
	if outputJSON {
		format = cli.FormatJSON
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
	})
}

// printVerbose prints verbose output if enabled
func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}
