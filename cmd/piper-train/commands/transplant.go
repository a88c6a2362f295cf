package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/piper1-gpl/pkg/checkpoint"
)

var (
	transplantResume     string
	transplantWarmstart  string
	transplantOut        string
	transplantNumSymbols int64
	transplantSpeakers   int64
	transplantSeed       uint64
)

var transplantCmd = &cobra.Command{
	Use:   "transplant",
	Short: "Initialize a fresh model from a prior checkpoint",
	Long: `Build a freshly initialized model and copy parameters into it from
a prior checkpoint, then save the result as a new checkpoint.

Two policies are available:

  --resume     full resume: every parameter is copied and every shape
               must match, including the phoneme embedding. Use this to
               continue training with an identical vocabulary.

  --warmstart  vocoder warmstart: only the vocoder stack is copied and
               the phoneme embedding is skipped outright, so the
               vocabulary size may differ from the source checkpoint.

Examples:
  piper-train transplant --resume old.ckpt --out new.ckpt --num-symbols 256
  piper-train transplant --warmstart en.ckpt --out zh.ckpt --num-symbols 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransplant()
	},
}

func init() {
	f := transplantCmd.Flags()
	f.StringVar(&transplantResume, "resume", "", "source checkpoint for a full resume")
	f.StringVar(&transplantWarmstart, "warmstart", "", "source checkpoint for a vocoder warmstart")
	f.StringVar(&transplantOut, "out", "", "destination checkpoint path")
	f.Int64Var(&transplantNumSymbols, "num-symbols", 256, "vocabulary size of the fresh model")
	f.Int64Var(&transplantSpeakers, "num-speakers", 1, "speaker count of the fresh model")
	f.Uint64Var(&transplantSeed, "seed", 1, "initialization seed for the fresh model")

	transplantCmd.MarkFlagsMutuallyExclusive("resume", "warmstart")
	transplantCmd.MarkFlagsOneRequired("resume", "warmstart")
	transplantCmd.MarkFlagRequired("out")
}

func runTransplant() error {
	src := transplantResume
	if src == "" {
		src = transplantWarmstart
	}
	ck, err := checkpoint.Load(src)
	if err != nil {
		return err
	}

	model, err := checkpoint.NewModel(
		checkpoint.VoiceModelSpecs(transplantNumSymbols, transplantSpeakers), transplantSeed)
	if err != nil {
		return err
	}

	var report *checkpoint.Report
	if transplantResume != "" {
		report, err = checkpoint.FullResume(model, ck)
	} else {
		report, err = checkpoint.VocoderWarmstart(model, ck)
	}
	if err != nil {
		return err
	}

	out := model.ToCheckpoint(transplantNumSymbols, transplantSpeakers)
	if err := out.Save(transplantOut); err != nil {
		return err
	}

	fmt.Printf("copied %d, skipped %d, mismatched %d -> %s\n",
		len(report.Copied), len(report.Skipped), len(report.Mismatched), transplantOut)
	if verbose {
		for _, name := range report.Copied {
			fmt.Printf("  copied     %s\n", name)
		}
		for _, name := range report.Skipped {
			fmt.Printf("  skipped    %s\n", name)
		}
		for _, name := range report.Mismatched {
			fmt.Printf("  mismatched %s\n", name)
		}
	}
	return nil
}
