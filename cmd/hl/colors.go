package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewColorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "colors",
		Short: "List the named highlight colors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.load(cmd)
			if err != nil {
				return err
			}

			names := e.palette.Names()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				data := make(map[string]string, len(names))
				for _, name := range names {
					data[name] = e.palette[name].Hex()
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			}

			for _, name := range names {
				marker := " "
				if name == e.cfg.DefaultColor {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", marker, name, e.palette[name].Hex())
			}
			return nil
		},
	}
}
