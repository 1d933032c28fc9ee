package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/imitate/internal/registry"
	"github.com/danielpatrickdp/imitate/internal/textframe"
)

func runFunctions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStack(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := textframe.Register(registry.New(st.sequences))
	fmt.Println(reg.Describe())
	return nil
}
