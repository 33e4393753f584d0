package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var extensionFlagAliases = map[string]string{
	"ext": "extension",
}

func addExtensionFlagAliases(cmd *cobra.Command) {
	cmd.SetGlobalNormalizationFunc(flagAliasNormalizer(extensionFlagAliases))
}

func flagAliasNormalizer(aliases map[string]string) func(*pflag.FlagSet, string) pflag.NormalizedName {
	return func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		return pflag.NormalizedName(name)
	}
}
