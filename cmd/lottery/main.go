package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// 版本信息，构建时通过 ldflags 注入
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lottery",
	Short: "每日抽奖后端",
	Long: `每日抽奖后端服务。

参与者每天可以提交选票，每个日期对应一场抽奖；
抽奖关闭时从当日选票中选出唯一的中奖票。`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"lottery version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认 ./config/config.yaml)")

	drawCmd.Flags().String("date", "", "要开奖的日期 YYYY-MM-DD (默认昨天)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(drawCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(migrateCmd)
}
