package cmd

import (
	"fmt"

	"magicwords/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioEnsure bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶统计",
	Long:  `Connects to MinIO and prints object counts and sizes for the image bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			return err
		}
		if minioEnsure {
			if err := store.EnsureBucket(cmd.Context()); err != nil {
				return err
			}
		}

		stats, err := store.Stats(cmd.Context(), minioPrefix)
		if err != nil {
			return fmt.Errorf("获取存储桶统计信息失败: %w", err)
		}
		fmt.Println(stats.String())
		for ext, size := range stats.ByExtension {
			fmt.Printf("  %-6s %s\n", ext, humanize.Bytes(uint64(size)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", storage.ImagePrefix, "按前缀过滤文件")
	minioCmd.Flags().BoolVar(&minioEnsure, "ensure", false, "create the bucket if it is missing")

	minioCmd.Example = `  magicwords minio
  magicwords minio --ensure -p images/`
}
