package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/piper1-gpl/pkg/voice"
)

var exportConfigCmd = &cobra.Command{
	Use:   "export-config <voice-config.json> <model.onnx>",
	Short: "Copy the voice config alongside an exported model",
	Long: `Copy a voice config file next to an exported model artifact,
naming it <model>.onnx.json so the inference runtime finds it.

Example:
  piper-train export-config output/voice.json export/en_US-voice.onnx`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst, err := voice.CopyAlongside(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", dst)
		return nil
	},
}
