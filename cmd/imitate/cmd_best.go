package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/imitate/internal/learning"
)

func runBest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStack(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	threshold := cfg.MinObservations
	if minObs > 0 {
		threshold = minObs
	}
	rec := learning.NewRecorder(st.backend)
	best, ok, err := rec.BestFor(cmd.Context(), args[0], threshold)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("no statement observed at least %d time(s) after %q\n", threshold, args[0])
		return nil
	}
	fmt.Println(best)
	return nil
}
