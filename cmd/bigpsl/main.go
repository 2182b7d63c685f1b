// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The bigpsl command converts, queries and summarises bigPsl alignment
// containers.
package main

import (
	"fmt"
	"os"

	"github.com/grailbio/base/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bigpsl",
	Short: "bigPsl alignment container tools",
	Long: `bigpsl converts bigPsl text records to indexed, block compressed
containers, extracts records from containers by region, and reports
identity, substitution and gap counts for the alignments they hold.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.Debug)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debugging information")
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(countsCmd)
	rootCmd.AddCommand(chromsCmd)
	rootCmd.AddCommand(declarationCmd)
}
