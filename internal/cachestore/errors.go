package cachestore

import (
	"errors"
	"fmt"

	"geo-heatmap/internal/model"
)

var errNoRecords = errors.New("cache envelope has no records")

// KindMismatchError：文件中的数据集类型与请求不符（按未命中处理）
type KindMismatchError struct {
	Want model.DatasetKind
	Got  model.DatasetKind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("cache kind mismatch: want %q, got %q", e.Want, e.Got)
}
