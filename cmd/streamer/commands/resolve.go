package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youzoom64/RTMP-streamer/pkg/cli"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <logical-path>...",
	Short: "Resolve logical layer paths to files",
	Long: `Resolve logical layer paths (e.g. "目/目セット/普通白目") through the
position map and the asset index, printing the file each one maps to.

With --keywords, the arguments are a keyword set that must all appear in
the matching key; the longest matching key wins.

Example:
  streamer resolve 服装1/いつもの服 眉/普通眉
  streamer resolve --keywords 左腕 基本`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

type resolution struct {
	Query string `json:"query" yaml:"query"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Found bool   `json:"found" yaml:"found"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	ac, err := getAnimatorConfig()
	if err != nil {
		return err
	}
	ch, err := loadCharacter(ac)
	if err != nil {
		return err
	}

	var results []resolution
	if kw, _ := cmd.Flags().GetBool("keywords"); kw {
		path, ok := ch.res.ResolveByKeywords(args...)
		results = append(results, resolution{Query: fmt.Sprint(args), Path: path, Found: ok})
	} else {
		for _, q := range args {
			path, ok := ch.res.Resolve(q)
			results = append(results, resolution{Query: q, Path: path, Found: ok})
		}
	}

	if outputJSON || outputFile != "" {
		return outputResult(results)
	}
	missing := 0
	for _, r := range results {
		if r.Found {
			cli.PrintSuccess("%s → %s", r.Query, r.Path)
		} else {
			missing++
			cli.PrintWarning("%s: not found", r.Query)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d not resolved", missing, len(results))
	}
	return nil
}

func init() {
	resolveCmd.Flags().Bool("keywords", false, "treat the arguments as one keyword set")
}
