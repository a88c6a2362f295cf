// piper-train is the training data pipeline CLI for piper voices.
//
// Usage:
//
//	piper-train preprocess -f pipeline.yaml          # scan corpus, fill cache, write voice config
//	piper-train transplant --resume old.ckpt ...     # full resume into a fresh model
//	piper-train transplant --warmstart old.ckpt ...  # vocoder-only warmstart
//	piper-train export-config voice.json model.onnx  # copy config alongside an export
package main

import (
	"os"

	"github.com/sheldonrobinson/piper1-gpl/cmd/piper-train/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
