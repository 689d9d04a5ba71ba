package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/templates"
)

var matchCmd = &cobra.Command{
	Use:   "match <business name>",
	Short: "Show the template and magic link chosen for a business",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := initMatcher(cfg)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		optional := func(name string) model.Field {
			if !f.Changed(name) {
				return model.None()
			}
			v, _ := f.GetString(name)
			return model.Some(v)
		}
		keyword, _ := f.GetString("keyword")
		forced, _ := f.GetString("template")
		warnUnknownTemplate(m, forced)

		slug, link := m.Match(templates.MatchInput{
			BusinessName:   model.Some(args[0]),
			SearchKeyword:  keyword,
			ForcedTemplate: forced,
			City:           optional("city"),
			Address:        optional("address"),
			Phone:          optional("phone"),
		})
		fmt.Fprintln(cmd.OutOrStdout(), slug)
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

func init() {
	f := matchCmd.Flags()
	f.String("keyword", "", "search keyword the business was found with")
	f.String("template", "", "forced template slug")
	f.String("city", "", "city for the magic link")
	f.String("address", "", "address for the magic link")
	f.String("phone", "", "phone for the magic link")
	rootCmd.AddCommand(matchCmd)
}
