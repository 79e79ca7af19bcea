package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmora/tdlink"
	"github.com/dmora/tdlink/internal/errfmt"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Decode and summarize recorded frames",
		Long: `Inspect decodes a newline-delimited JSON frame recording and prints one
summary line per frame: discriminant, correlation token, and error details
for error frames. Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return inspectFrames(cmd.OutOrStdout(), in)
		},
	}
	return cmd
}

func inspectFrames(out io.Writer, in io.Reader) error {
	var total, bad, errored int
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		total++

		frame, err := tdlink.DecodeFrame(line)
		if err != nil {
			bad++
			fmt.Fprintf(out, "%5d  UNDECODABLE  %s\n", total, errfmt.Snippet(line))
			continue
		}

		token := frame.Extra
		if token == "" {
			token = "-"
		}
		if remote, ok := tdlink.AsRemote(frame.Err()); ok {
			errored++
			fmt.Fprintf(out, "%5d  %-40s  %-12s  code=%d message=%q\n",
				total, frame.Type, token, remote.Code, remote.Message)
			continue
		}
		fmt.Fprintf(out, "%5d  %-40s  %-12s\n", total, frame.Type, token)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read frames: %w", err)
	}

	fmt.Fprintf(out, "\n%d frames, %d errors, %d undecodable\n", total, errored, bad)
	return nil
}
