package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEncodeCmd(root *rootOptions) *cobra.Command {
	var wordList string
	var wordCount int

	cmd := &cobra.Command{
		Use:   "encode <hex-seed>",
		Short: "Write a hex seed as a recovery phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if wordList != "" {
				cfg.Wallet.WordListPath = wordList
			}
			if wordCount != 0 {
				cfg.Wallet.WordCount = wordCount
			}

			seed, err := hex.DecodeString(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid hex seed: %w", err)
			}

			m, err := newMnemonic(cfg)
			if err != nil {
				return err
			}
			phrase, err := m.Encode(seed)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), phrase)
			return nil
		},
	}

	cmd.Flags().StringVar(&wordList, "wordlist", "", "word list file (one word per line)")
	cmd.Flags().IntVar(&wordCount, "word-count", 0, "number of words in a phrase")
	return cmd
}
