package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/pgEdge/filemigrate/internal/migrate"
	"github.com/pgEdge/filemigrate/internal/templates"
)

func newCreateCommand(i *do.Injector) *cobra.Command {
	var (
		template      string
		description   string
		listTemplates bool
	)

	cmd := &cobra.Command{
		Use:   "create [description]",
		Short: "Create a new migration from a template",
		Example: `  filemigrate create -d "add user table"
  filemigrate create -t python add user table
  filemigrate create --list-templates`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listTemplates {
				renderTemplates(out, templates.List())
				return nil
			}

			if description == "" {
				description = strings.Join(args, " ")
			} else if len(args) > 0 {
				return errors.New("pass the description either with --description or as arguments, not both")
			}
			if description == "" {
				return errors.New("a description is required")
			}

			engine, err := invokeEngine(i)
			if err != nil {
				return err
			}
			report, err := engine.Create(migrate.CreateOptions{
				Template:    template,
				Description: description,
			})
			if err != nil {
				return err
			}
			renderCreate(out, report)

			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", templates.DefaultKey,
		fmt.Sprintf("Starter file to use, one of: %s.", strings.Join(templates.Keys(), ", ")))
	cmd.Flags().StringVarP(&description, "description", "d", "", "Short description, used for the file name.")
	cmd.Flags().BoolVar(&listTemplates, "list-templates", false, "List the available templates and exit.")

	return cmd
}
