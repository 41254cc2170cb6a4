package cmd

import (
	"fmt"

	"magicwords/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		fmt.Println("数据库迁移完成。")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
