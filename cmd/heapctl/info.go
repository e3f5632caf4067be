package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/memmgr/heap/chunk"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the chunk geometry derived from a configuration",
		Long: `The info command validates the chunk configuration given by the global
flags and prints the sizes derived from it.

Example:
  heapctl info
  heapctl info --alignment 16 --guard 2 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

// geometry is the JSON form of the info output.
type geometry struct {
	Alignment      uint32 `json:"alignment"`
	MinPayload     uint16 `json:"min_payload"`
	GuardSize      uint16 `json:"guard_size"`
	HeaderSize     int    `json:"header_size"`
	HeaderCSize    uint16 `json:"header_csize"`
	MinCSize       uint16 `json:"min_csize"`
	CSizeMax       int    `json:"csize_max"`
	MaxChunkBytes  uint32 `json:"max_chunk_bytes"`
	MaxRequest     uint32 `json:"max_request"`
	GuardOffsetMax int    `json:"guard_offset_max"`
}

func runInfo() error {
	cfg := config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	g := geometry{
		Alignment:      cfg.Alignment,
		MinPayload:     cfg.MinPayload,
		GuardSize:      cfg.GuardSize,
		HeaderSize:     chunk.HeaderSize,
		HeaderCSize:    cfg.HeaderCSize(),
		MinCSize:       cfg.MinCSize(),
		CSizeMax:       chunk.CSizeMax,
		MaxChunkBytes:  chunk.CSizeMax * cfg.Alignment,
		MaxRequest:     cfg.MaxRequest(),
		GuardOffsetMax: chunk.GuardOffsetMax,
	}
	if jsonOut {
		return printJSON(g)
	}

	printInfo("\nChunk Geometry:\n")
	printInfo("  Alignment:        %d bytes\n", g.Alignment)
	printInfo("  Header:           %d bytes (%d units)\n", g.HeaderSize, g.HeaderCSize)
	printInfo("  Guard:            %d units\n", g.GuardSize)
	printInfo("  Minimum chunk:    %d units\n", g.MinCSize)
	printInfo("  Maximum chunk:    %d units (%d bytes)\n", g.CSizeMax, g.MaxChunkBytes)
	printInfo("  Largest request:  %d bytes\n", g.MaxRequest)
	return nil
}
