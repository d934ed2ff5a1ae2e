package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageza/recipe-site/backend/internal/seed"
)

var (
	seedFile string
	seedDemo bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load categories and ingredients, optionally with demo users and recipes",
	Long: `Loads the built-in taxonomy (or the YAML file given with --file).
Existing rows are left untouched, so the command can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := seed.Default()
		if seedFile != "" {
			data, err = seed.LoadFile(seedFile)
		}
		if err != nil {
			return err
		}

		s := seed.NewSeeder(application.DB, application.Auth, application.Recipes, logger)
		res, err := s.Taxonomy(cmd.Context(), data)
		if err != nil {
			return err
		}
		if seedDemo {
			demo, err := s.Demo(cmd.Context(), data)
			if err != nil {
				return err
			}
			res.Users, res.Recipes = demo.Users, demo.Recipes
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created %d categories, %d ingredients, %d users, %d recipes\n",
			res.Categories, res.Ingredients, res.Users, res.Recipes)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML seed file instead of the built-in data")
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also create demo users and recipes")
	rootCmd.AddCommand(seedCmd)
}
