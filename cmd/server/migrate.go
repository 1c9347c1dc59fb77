package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cmci-cr/backend/pkg/database"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "数据库迁移",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "执行全部未应用的迁移",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(0)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "回滚指定步数的迁移",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rollbackSteps <= 0 {
			return fmt.Errorf("--steps 必须为正数")
		}
		return runMigrate(rollbackSteps)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "回滚步数")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

// runMigrate 建立连接后执行迁移；steps 为 0 表示 up，大于 0 表示回滚
func runMigrate(steps int) error {
	_, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	if steps == 0 {
		return database.RunMigrations(sqlDB, logger)
	}
	return database.RollbackMigrations(sqlDB, steps, logger)
}
