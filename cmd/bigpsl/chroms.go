// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biogo/bbi"
)

var chromsCmd = &cobra.Command{
	Use:   "chroms <in.bb>",
	Short: "List the chromosomes held by a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := bbi.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		chroms, err := r.Chromosomes()
		if err != nil {
			return err
		}
		for _, c := range chroms {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", c.Name, c.Length)
		}
		return nil
	},
}

var declarationCmd = &cobra.Command{
	Use:   "declaration <in.bb>",
	Short: "Print the autoSql declaration of a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := bbi.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		d := r.Declaration()
		if d == nil {
			return fmt.Errorf("%s has no declaration", args[0])
		}
		fmt.Fprint(cmd.OutOrStdout(), d.String())
		return nil
	},
}
