package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run <call.yaml>",
		Short: "Invoke a call once and print the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFrom(v)

			logger, err := newLogger(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
			if err != nil {
				return err
			}

			cf, err := LoadCallFile(args[0])
			if err != nil {
				return err
			}

			ctx := logger.WithContext(cmd.Context())

			c, err := newCaller(ctx, cf, s, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			content, err := c.Invoke(ctx).Unwrap()
			if err != nil {
				return err
			}

			return printBody(cmd.OutOrStdout(), content)
		},
	}
}

// printBody writes content, indenting it when it is JSON.
func printBody(w io.Writer, content string) error {
	if json.Valid([]byte(content)) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(content), "", "  "); err == nil {
			content = buf.String()
		}
	}
	_, err := fmt.Fprintln(w, content)
	return err
}
