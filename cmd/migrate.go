package cmd

import (
	"errors"

	"go-bank-ledger/config"
	"go-bank-ledger/storage"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or with --down, roll back) the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return errors.New("migrate requires the postgres driver")
			}
			if down {
				if err := storage.MigrateDown(cfg.Database.URL); err != nil {
					return err
				}
				log.Info("schema rolled back")
				return nil
			}
			if err := storage.Migrate(cfg.Database.URL); err != nil {
				return err
			}
			log.Info("schema up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	return cmd
}
