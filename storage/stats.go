package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	ByExtension  map[string]int64 // bytes per lower-cased extension
}

func (s BucketStats) String() string {
	return fmt.Sprintf("%d objects, %s", s.TotalObjects, humanize.Bytes(uint64(s.TotalSize)))
}

// Stats walks every object under prefix.
func (s *MinioStore) Stats(ctx context.Context, prefix string) (BucketStats, error) {
	stats := BucketStats{ByExtension: map[string]int64{}}
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return BucketStats{}, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		stats.add(object.Key, object.Size)
	}
	return stats, nil
}

func (s *BucketStats) add(key string, size int64) {
	s.TotalObjects++
	s.TotalSize += size
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		ext = "(none)"
	}
	s.ByExtension[ext] += size
}
