package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ScriptRock/pdfjson"
)

func newRewriteCommand() *cobra.Command {
	var (
		output      string
		filePrefix  string
		objects     []string
		decodeLevel = decodeLevelFlag{level: pdfjson.DecodeNone}
		streamData  = streamDataFlag{policy: pdfjson.StreamDataInline}
	)
	cmd := &cobra.Command{
		Use:   "rewrite in.json",
		Short: "Import a qpdf-v2 JSON document and write it back out",
		Long: `Rewrite round-trips a document through the object graph, normalizing
its layout. Stream payloads can be re-embedded inline, externalized to
files, or omitted, and optionally decoded first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := pdfjson.CreateFromJSONFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			var wanted map[string]bool
			if len(objects) > 0 {
				wanted = make(map[string]bool, len(objects))
				for _, k := range objects {
					wanted[k] = true
				}
			}

			prefix := filePrefix
			if prefix == "" && output != "" {
				prefix = output
			}
			if err := pdfjson.WriteJSON(g, 2, out, decodeLevel.level, streamData.policy, prefix, wanted); err != nil {
				return err
			}
			if output != "" {
				if fi, err := os.Stat(output); err == nil {
					slog.Debug("wrote", slog.String("file", output), slog.String("size", humanize.Bytes(uint64(fi.Size()))))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&filePrefix, "file-prefix", "", "prefix for external stream data files (default the output name)")
	cmd.Flags().StringArrayVar(&objects, "object", nil, `limit output to these object keys ("obj:n g R" or "trailer")`)
	cmd.Flags().Var(&decodeLevel, "decode-level", "decode level: none, generalized, specialized, or all")
	cmd.Flags().Var(&streamData, "stream-data", "stream data placement: inline, file, or none")
	return cmd
}

// decodeLevelFlag is a pflag.Value for pdfjson.DecodeLevel.
type decodeLevelFlag struct {
	level pdfjson.DecodeLevel
}

var _ pflag.Value = (*decodeLevelFlag)(nil)

func (f *decodeLevelFlag) String() string {
	switch f.level {
	case pdfjson.DecodeGeneralized:
		return "generalized"
	case pdfjson.DecodeSpecialized:
		return "specialized"
	case pdfjson.DecodeAll:
		return "all"
	}
	return "none"
}

func (f *decodeLevelFlag) Set(s string) error {
	switch s {
	case "none":
		f.level = pdfjson.DecodeNone
	case "generalized":
		f.level = pdfjson.DecodeGeneralized
	case "specialized":
		f.level = pdfjson.DecodeSpecialized
	case "all":
		f.level = pdfjson.DecodeAll
	default:
		return fmt.Errorf("invalid decode level %q", s)
	}
	return nil
}

func (f *decodeLevelFlag) Type() string { return "level" }

// streamDataFlag is a pflag.Value for pdfjson.StreamDataPolicy.
type streamDataFlag struct {
	policy pdfjson.StreamDataPolicy
}

var _ pflag.Value = (*streamDataFlag)(nil)

func (f *streamDataFlag) String() string {
	switch f.policy {
	case pdfjson.StreamDataFile:
		return "file"
	case pdfjson.StreamDataOmit:
		return "none"
	}
	return "inline"
}

func (f *streamDataFlag) Set(s string) error {
	switch s {
	case "inline":
		f.policy = pdfjson.StreamDataInline
	case "file":
		f.policy = pdfjson.StreamDataFile
	case "none":
		f.policy = pdfjson.StreamDataOmit
	default:
		return fmt.Errorf("invalid stream data placement %q", s)
	}
	return nil
}

func (f *streamDataFlag) Type() string { return "placement" }
